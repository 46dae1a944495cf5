// Package monitor implements the risk classifier: pairwise proximity
// and collision assessment over an aircraft snapshot, and emergency
// transponder code detection. The package is purely functional; all
// side effects (alert creation, notification) live at the caller.
package monitor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/good-yellow-bee/skywatch/internal/geo"
	"github.com/good-yellow-bee/skywatch/internal/models"
)

// Emergency transponder codes.
const (
	SquawkGeneralEmergency = "7700"
	SquawkRadioFailure     = "7600"
	SquawkHijack           = "7500"
)

// Assessment is the geometric evaluation of one aircraft pair. It is
// produced and consumed within a single scan tick and never persisted.
type Assessment struct {
	Hex1, Hex2      string
	DistanceNM      float64
	AltitudeDiffFt  float64
	Bearing         float64 // initial bearing from aircraft 1 to aircraft 2
	ClosingSpeedKt  float64
	TimeToCPASec    float64 // +Inf when there is no closure
	ClosestApproach float64 // estimated minimum separation in NM
}

// Candidate is a proto-alert emitted by the classifier. The alert store
// decides whether it becomes an alert (cooldown permitting).
type Candidate struct {
	Kind        models.AlertKind
	Severity    models.Severity
	Title       string
	Message     string
	AircraftHex string
	Position    *models.Position
	Metadata    map[string]string
}

// AssessPair computes the geometric assessment for two aircraft.
func AssessPair(a, b *models.AircraftState) Assessment {
	dist := geo.Distance(a.Lat, a.Lon, b.Lat, b.Lon)
	closing := geo.ClosingSpeed(a.GroundSpeed, a.Track, b.GroundSpeed, b.Track)
	ttca := geo.TimeToClosestApproach(dist, closing)

	return Assessment{
		Hex1:            a.Hex,
		Hex2:            b.Hex,
		DistanceNM:      dist,
		AltitudeDiffFt:  math.Abs(a.Altitude - b.Altitude),
		Bearing:         geo.Bearing(a.Lat, a.Lon, b.Lat, b.Lon),
		ClosingSpeedKt:  closing,
		TimeToCPASec:    ttca,
		ClosestApproach: geo.ClosestApproachDistance(dist, closing, ttca),
	}
}

// ScanProximity runs the O(n^2) pairwise scan over all airborne
// aircraft in the snapshot and returns alert candidates. A pair inside
// both the distance and altitude thresholds yields one proximity
// candidate with the first aircraft as subject; when the collision
// criteria are also met the candidate escalates to a collision warning
// instead. This scan is the design's known scalability ceiling and is
// sized for hundreds of concurrent tracks, not tens of thousands.
func ScanProximity(states []models.AircraftState, t Thresholds) []Candidate {
	var candidates []Candidate

	for i := 0; i < len(states); i++ {
		a := &states[i]
		if !a.Airborne() {
			continue
		}
		for j := i + 1; j < len(states); j++ {
			b := &states[j]
			if !b.Airborne() {
				continue
			}

			as := AssessPair(a, b)
			if as.DistanceNM > t.ProximityDistanceNM || as.AltitudeDiffFt > t.ProximityAltitudeFt {
				continue
			}

			if as.TimeToCPASec <= t.CollisionWarningSeconds && as.ClosestApproach <= t.CollisionDistanceNM {
				candidates = append(candidates, collisionCandidate(a, b, as))
			} else {
				candidates = append(candidates, proximityCandidate(a, b, as))
			}
		}
	}

	return candidates
}

// ScanEmergency checks every aircraft's transponder code and returns an
// emergency candidate per aircraft broadcasting 7700, 7600 or 7500.
func ScanEmergency(states []models.AircraftState) []Candidate {
	var candidates []Candidate

	for i := range states {
		a := &states[i]

		var title string
		switch a.Squawk {
		case SquawkGeneralEmergency:
			title = "General Emergency"
		case SquawkRadioFailure:
			title = "Communications Failure"
		case SquawkHijack:
			title = "Unlawful Interference"
		default:
			continue
		}

		label := a.Callsign
		if label == "" {
			label = a.Hex
		}

		candidates = append(candidates, Candidate{
			Kind:        models.KindEmergency,
			Severity:    models.SeverityCritical,
			Title:       title,
			Message:     fmt.Sprintf("%s squawking %s: %s", label, a.Squawk, title),
			AircraftHex: a.Hex,
			Position:    statePosition(a),
			Metadata: map[string]string{
				"squawk":   a.Squawk,
				"callsign": a.Callsign,
			},
		})
	}

	return candidates
}

func proximityCandidate(a, b *models.AircraftState, as Assessment) Candidate {
	return Candidate{
		Kind:        models.KindProximity,
		Severity:    models.SeverityMedium,
		Title:       "Proximity Alert",
		Message:     fmt.Sprintf("%s: traffic %s", subjectLabel(a), trafficPhrase(a, b, as)),
		AircraftHex: a.Hex,
		Position:    statePosition(a),
		Metadata:    pairMetadata(b, as),
	}
}

func collisionCandidate(a, b *models.AircraftState, as Assessment) Candidate {
	return Candidate{
		Kind:     models.KindCollision,
		Severity: models.SeverityCritical,
		Title:    "Collision Warning",
		Message: fmt.Sprintf("%s: traffic %s, closest approach %.1f NM in %.0f seconds",
			subjectLabel(a), trafficPhrase(a, b, as), as.ClosestApproach, as.TimeToCPASec),
		AircraftHex: a.Hex,
		Position:    statePosition(a),
		Metadata:    pairMetadata(b, as),
	}
}

// trafficPhrase renders the relative-position phrase used by proximity
// and collision messages: compass direction, one-decimal distance, and
// the relative altitude of the target.
func trafficPhrase(a, b *models.AircraftState, as Assessment) string {
	return fmt.Sprintf("%s %.1f NM %s, %s",
		subjectLabel(b), as.DistanceNM, geo.CompassPoint(as.Bearing), relativeAltitude(a, b))
}

// relativeAltitude describes the target's altitude relative to the
// subject. Differences under 500 ft read as "same altitude".
func relativeAltitude(a, b *models.AircraftState) string {
	diff := b.Altitude - a.Altitude
	if math.Abs(diff) < 500 {
		return "same altitude"
	}
	if diff > 0 {
		return fmt.Sprintf("%.0f ft above", diff)
	}
	return fmt.Sprintf("%.0f ft below", -diff)
}

func subjectLabel(a *models.AircraftState) string {
	if a.Callsign != "" {
		return a.Callsign
	}
	return a.Hex
}

func statePosition(a *models.AircraftState) *models.Position {
	return &models.Position{Lat: a.Lat, Lon: a.Lon, Altitude: a.Altitude}
}

func pairMetadata(target *models.AircraftState, as Assessment) map[string]string {
	md := map[string]string{
		"target_hex":       target.Hex,
		"distance_nm":      strconv.FormatFloat(as.DistanceNM, 'f', 2, 64),
		"altitude_diff_ft": strconv.FormatFloat(as.AltitudeDiffFt, 'f', 0, 64),
		"bearing_deg":      strconv.FormatFloat(as.Bearing, 'f', 0, 64),
		"closing_speed_kt": strconv.FormatFloat(as.ClosingSpeedKt, 'f', 0, 64),
	}
	if !math.IsInf(as.TimeToCPASec, 1) {
		md["time_to_cpa_sec"] = strconv.FormatFloat(as.TimeToCPASec, 'f', 0, 64)
	}
	return md
}
