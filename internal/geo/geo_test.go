package geo

import (
	"math"
	"testing"
)

func TestDistanceZero(t *testing.T) {
	points := []struct{ lat, lon float64 }{
		{0, 0},
		{43.6777, -79.6248}, // CYYZ
		{-33.9399, 151.1753},
		{89.9, 179.9},
	}
	for _, p := range points {
		if d := Distance(p.lat, p.lon, p.lat, p.lon); d != 0 {
			t.Errorf("Distance(%v,%v self) = %v, want 0", p.lat, p.lon, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct{ lat1, lon1, lat2, lon2 float64 }{
		{43.6777, -79.6248, 40.6413, -73.7781}, // CYYZ-KJFK
		{51.4700, -0.4543, 35.5494, 139.7798},  // EGLL-RJTT
		{0, 0, 0.1, 0.1},
	}
	for _, p := range pairs {
		ab := Distance(p.lat1, p.lon1, p.lat2, p.lon2)
		ba := Distance(p.lat2, p.lon2, p.lat1, p.lon1)
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// One degree of latitude along a meridian is 60 NM on the spherical model.
	d := Distance(43.0, -79.0, 44.0, -79.0)
	if math.Abs(d-60.04) > 0.1 {
		t.Errorf("one degree latitude = %.3f NM, want ~60", d)
	}
}

func TestBearingRange(t *testing.T) {
	coords := []struct{ lat1, lon1, lat2, lon2 float64 }{
		{0, 0, 1, 0},    // due north
		{0, 0, 0, 1},    // due east
		{0, 0, -1, 0},   // due south
		{0, 0, 0, -1},   // due west
		{45, 45, -45, -135},
		{10, 10, 10, 10.0001},
	}
	for _, c := range coords {
		b := Bearing(c.lat1, c.lon1, c.lat2, c.lon2)
		if b < 0 || b >= 360 {
			t.Errorf("Bearing(%v) = %v, want [0,360)", c, b)
		}
	}
}

func TestBearingCardinal(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 0, 0, 0, 1, 90},
		{"south", 0, 0, -1, 0, 180},
		{"west", 0, 0, 0, -1, 270},
	}
	for _, tt := range tests {
		b := Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(b-tt.want) > 0.01 {
			t.Errorf("%s: Bearing = %v, want %v", tt.name, b, tt.want)
		}
	}
}

func TestClosingSpeed(t *testing.T) {
	tests := []struct {
		name                           string
		speed1, track1, speed2, track2 float64
		want                           float64
	}{
		{"head on", 300, 90, 300, 270, 600},
		{"same direction same speed", 250, 45, 250, 45, 0},
		{"overtake", 400, 0, 300, 0, 100},
		{"perpendicular", 300, 0, 400, 90, 500},
	}
	for _, tt := range tests {
		got := ClosingSpeed(tt.speed1, tt.track1, tt.speed2, tt.track2)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: ClosingSpeed = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTimeToClosestApproachDegenerate(t *testing.T) {
	if got := TimeToClosestApproach(10, 0); !math.IsInf(got, 1) {
		t.Errorf("zero relative speed: got %v, want +Inf", got)
	}
	if got := TimeToClosestApproach(10, -5); !math.IsInf(got, 1) {
		t.Errorf("negative relative speed: got %v, want +Inf", got)
	}
}

func TestTimeToClosestApproach(t *testing.T) {
	// 10 NM closing at 600 kt -> 60 seconds.
	got := TimeToClosestApproach(10, 600)
	if math.Abs(got-60) > 1e-9 {
		t.Errorf("got %v, want 60", got)
	}
}

func TestClosestApproachDistance(t *testing.T) {
	// Closure covers the full distance.
	if got := ClosestApproachDistance(10, 600, 60); got != 0 {
		t.Errorf("full closure: got %v, want 0", got)
	}
	// No closure: current distance is the closest distance.
	if got := ClosestApproachDistance(7.5, 0, math.Inf(1)); got != 7.5 {
		t.Errorf("no closure: got %v, want 7.5", got)
	}
	// Partial closure.
	got := ClosestApproachDistance(10, 300, 60)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("partial closure: got %v, want 5", got)
	}
	// Never negative even when projected closure overshoots.
	if got := ClosestApproachDistance(1, 600, 120); got != 0 {
		t.Errorf("overshoot: got %v, want 0", got)
	}
}

func TestCompassPoint(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.3, "NNE"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{348.8, "NNW"},
		{354, "N"},
		{360, "N"},
		{-90, "W"},
	}
	for _, tt := range tests {
		if got := CompassPoint(tt.bearing); got != tt.want {
			t.Errorf("CompassPoint(%v) = %q, want %q", tt.bearing, got, tt.want)
		}
	}
}
