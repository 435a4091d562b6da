package topology

// AssetDefaults holds the asset parameters applied during resolution. The
// building type above a connector overrides the generic values.
type AssetDefaults struct {
	LoadScale             float64 `json:"load_scale" yaml:"load_scale"`
	SolarScale            float64 `json:"solar_scale" yaml:"solar_scale"`
	WindScale             float64 `json:"wind_scale" yaml:"wind_scale"`
	WindBin               string  `json:"wind_bin" yaml:"wind_bin"`
	ChargingSlots         int     `json:"charging_slots" yaml:"charging_slots"`
	MaxPowerPerSlot       float64 `json:"max_power_per_slot" yaml:"max_power_per_slot"`
	BatteryChargePower    float64 `json:"battery_charge_power" yaml:"battery_charge_power"`
	BatteryDischargePower float64 `json:"battery_discharge_power" yaml:"battery_discharge_power"`

	SolarFarm      SolarFarmDefaults      `json:"solar_farm" yaml:"solar_farm"`
	EVStation      EVStationDefaults      `json:"ev_station" yaml:"ev_station"`
	BatteryStation BatteryStationDefaults `json:"battery_station" yaml:"battery_station"`
	WindFarm       WindFarmDefaults       `json:"wind_farm" yaml:"wind_farm"`
	SmallHouse     HouseDefaults          `json:"small_house" yaml:"small_house"`
	HugeHouse      HouseDefaults          `json:"huge_house" yaml:"huge_house"`
}

type SolarFarmDefaults struct {
	SolarScale float64 `json:"solar_scale" yaml:"solar_scale"`
	LoadScale  float64 `json:"load_scale" yaml:"load_scale"`
}

type EVStationDefaults struct {
	ChargingSlots int     `json:"charging_slots" yaml:"charging_slots"`
	LoadScale     float64 `json:"load_scale" yaml:"load_scale"`
}

type BatteryStationDefaults struct {
	ChargePower    float64 `json:"charge_power" yaml:"charge_power"`
	DischargePower float64 `json:"discharge_power" yaml:"discharge_power"`
	LoadScale      float64 `json:"load_scale" yaml:"load_scale"`
}

type WindFarmDefaults struct {
	WindScale float64 `json:"wind_scale" yaml:"wind_scale"`
	LoadScale float64 `json:"load_scale" yaml:"load_scale"`
}

type HouseDefaults struct {
	LoadScale float64 `json:"load_scale" yaml:"load_scale"`
}

// DefaultAssets returns the standard asset parameters.
func DefaultAssets() AssetDefaults {
	return AssetDefaults{
		LoadScale:             1,
		SolarScale:            1,
		WindScale:             1,
		WindBin:               "WS",
		ChargingSlots:         1,
		MaxPowerPerSlot:       4,
		BatteryChargePower:    5,
		BatteryDischargePower: 5,
		SolarFarm:             SolarFarmDefaults{SolarScale: 8, LoadScale: 0},
		EVStation:             EVStationDefaults{ChargingSlots: 3, LoadScale: 0},
		BatteryStation:        BatteryStationDefaults{ChargePower: 10, DischargePower: 10, LoadScale: 0},
		WindFarm:              WindFarmDefaults{WindScale: 5, LoadScale: 0},
		SmallHouse:            HouseDefaults{LoadScale: 2},
		HugeHouse:             HouseDefaults{LoadScale: 10},
	}
}
