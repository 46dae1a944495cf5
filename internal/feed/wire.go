package feed

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

// wireResponse is the dump1090/tar1090 aircraft.json document.
type wireResponse struct {
	Now      float64        `json:"now"`
	Aircraft []wireAircraft `json:"aircraft"`
}

// wireAircraft is one aircraft entry as the receiver emits it. Fields
// that may be absent stay pointers so missing and zero are distinct.
type wireAircraft struct {
	Hex    string          `json:"hex"`
	Flight string          `json:"flight"`
	Lat    *float64        `json:"lat"`
	Lon    *float64        `json:"lon"`
	Alt    json.RawMessage `json:"alt_baro"` // number, or the string "ground"
	GS     *float64        `json:"gs"`
	Track  *float64        `json:"track"`
	Squawk string          `json:"squawk"`
	Seen   float64         `json:"seen"` // seconds since last message
}

// toState converts a wire entry to the domain model. It returns false
// for entries without a usable position.
func (w *wireAircraft) toState(now time.Time) (models.AircraftState, bool) {
	if w.Hex == "" || w.Lat == nil || w.Lon == nil {
		return models.AircraftState{}, false
	}

	state := models.AircraftState{
		Hex:      strings.ToLower(w.Hex),
		Callsign: strings.TrimSpace(w.Flight),
		Lat:      *w.Lat,
		Lon:      *w.Lon,
		Squawk:   w.Squawk,
		SeenAt:   now.Add(-time.Duration(w.Seen * float64(time.Second))),
	}
	if w.GS != nil {
		state.GroundSpeed = *w.GS
	}
	if w.Track != nil {
		state.Track = *w.Track
	}

	// alt_baro is "ground" for aircraft on the surface.
	if len(w.Alt) > 0 {
		var alt float64
		if err := json.Unmarshal(w.Alt, &alt); err == nil {
			state.Altitude = alt
		} else {
			var s string
			if err := json.Unmarshal(w.Alt, &s); err == nil && s == "ground" {
				state.OnGround = true
			}
		}
	}
	return state, true
}
