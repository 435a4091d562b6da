package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/logger"
	coremetrics "github.com/kilianp07/assetsim/core/metrics"
	inlog "github.com/kilianp07/assetsim/infra/logger"
)

// InfluxSink writes tick events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      inlog.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes one tick point and one point per connector.
func (s *InfluxSink) RecordTick(ev events.Tick) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Connectors)+1)
	points = append(points, tickPoint(ev))
	for _, c := range ev.Connectors {
		points = append(points, connectorPoint(ev, c))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordOccupancy writes an occupancy update.
func (s *InfluxSink) RecordOccupancy(ev events.Occupancy) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	occupied := 0
	for _, c := range ev.Cars {
		if c >= 0 {
			occupied++
		}
	}
	p := write.NewPointWithMeasurement("occupancy_update").
		AddTag("experiment_id", ev.ExperimentID).
		AddTag("station_id", ev.StationID).
		AddField("slots", len(ev.Cars)).
		AddField("occupied", occupied).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func tickPoint(ev events.Tick) *write.Point {
	return write.NewPointWithMeasurement("tick").
		AddTag("experiment_id", ev.ExperimentID).
		AddTag("phase", strconv.Itoa(ev.Phase)).
		AddField("simulation_at", ev.SimulationAt).
		AddField("series", ev.Series).
		AddField("failures", ev.Failures).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
}

func connectorPoint(ev events.Tick, c events.ConnectorSample) *write.Point {
	p := write.NewPointWithMeasurement("connector_state").
		AddTag("experiment_id", ev.ExperimentID).
		AddTag("connector_id", c.ConnectorID).
		AddField("simulation_at", ev.SimulationAt).
		AddField("net_power_kw", round3(c.NetPowerKW)).
		AddField("load_kw", round3(c.LoadKW)).
		AddField("pv_kw", round3(c.PVKW)).
		AddField("wind_kw", round3(c.WindKW))
	if c.HasEV {
		p = p.AddField("ev_kw", round3(c.EVKW)).
			AddField("shifted_energy", round3(c.ShiftedEnergy))
	}
	if c.HasBattery {
		p = p.AddField("battery_kw", round3(c.BatteryKW)).
			AddField("battery_soc", round3(c.BatterySoC))
	}
	return p.SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
