// Package ev models charging stations. An unmanaged station draws the EV
// profile on every slot. A managed station tracks the cars plugged into its
// bays and distributes the delivered power between them. Both variants keep
// a shifted-energy ledger so that demand curtailed by the external setpoint
// is served in later ticks, within the physical limit of the station.
package ev
