// Package models defines domain models for SkyWatch.
package models

import "time"

// AircraftState is a point-in-time view of one tracked aircraft as
// supplied by the feed. It is read-only to the alerting core.
type AircraftState struct {
	Hex         string    `json:"hex"`      // ICAO 24-bit address, unique within a snapshot
	Callsign    string    `json:"callsign"` // e.g. SWA123, may be empty
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Altitude    float64   `json:"alt_baro"` // barometric altitude in feet
	GroundSpeed float64   `json:"gs"`       // knots
	Track       float64   `json:"track"`    // degrees clockwise from true north
	OnGround    bool      `json:"on_ground"`
	Squawk      string    `json:"squawk"` // 4-digit transponder code
	SeenAt      time.Time `json:"seen_at"`
}

// Airborne reports whether the aircraft should be considered for
// pairwise conflict assessment.
func (a *AircraftState) Airborne() bool {
	return !a.OnGround
}

// Position is a geographic point with altitude in feet.
type Position struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Altitude float64 `json:"altitude"`
}
