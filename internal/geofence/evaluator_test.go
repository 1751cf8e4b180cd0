package geofence

import (
	"testing"
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/geo"
)

// metersLat converts a north offset in meters to degrees of latitude.
func metersLat(m float64) float64 {
	return m / 111194.9
}

func fixAt(northMeters float64, ts time.Time) geo.Fix {
	return geo.Fix{
		Latitude:  metersLat(northMeters),
		Longitude: 0,
		Accuracy:  5,
		Timestamp: ts,
	}
}

func testTarget() Target {
	return Target{Latitude: 0, Longitude: 0, Radius: 100}
}

func TestBufferInclusion(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	res := e.Evaluate(fixAt(101, now), now)
	if !res.WithinGeofence {
		t.Fatalf("expected radius+1 m to classify inside the 2 m buffer, distance %f", res.Distance)
	}

	res = e.Evaluate(fixAt(103, now), now)
	if res.WithinGeofence {
		t.Fatalf("expected radius+3 m to classify outside, distance %f", res.Distance)
	}
}

func TestEmergencyRadiusOverride(t *testing.T) {
	e := New(testTarget())
	e.SetEmergencyMode(true)
	now := time.Now()

	res := e.Evaluate(fixAt(400, now), now)
	if !res.WithinGeofence {
		t.Fatalf("expected 400 m to be inside the 500 m emergency radius")
	}

	e.SetEmergencyMode(false)
	res = e.Evaluate(fixAt(400, now), now)
	if res.WithinGeofence {
		t.Fatalf("expected 400 m to be outside the 100 m radius")
	}
}

func TestDebounceSuppressesSingleFlip(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	sides := []float64{50, 200, 50, 50, 50} // in, out, in, in, in
	var entries, exits int
	for i, north := range sides {
		ts := now.Add(time.Duration(i) * time.Second)
		res := e.Evaluate(fixAt(north, ts), ts)
		if res.Event != nil {
			switch res.Event.Type {
			case EventEntry:
				entries++
			case EventExit:
				exits++
			}
		}
	}

	if exits != 0 {
		t.Fatalf("single outside reading must not emit an exit event, got %d", exits)
	}
	if entries != 1 {
		t.Fatalf("expected exactly one entry event after two consecutive confirmations, got %d", entries)
	}
}

func TestExitNeedsTwoConfirmations(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	step := func(i int, north float64) *Event {
		ts := now.Add(time.Duration(i) * time.Second)
		return e.Evaluate(fixAt(north, ts), ts).Event
	}

	step(0, 50)
	ev := step(1, 50)
	if ev == nil || ev.Type != EventEntry {
		t.Fatalf("expected entry on second inside evaluation")
	}

	ev = step(2, 200)
	if ev != nil {
		t.Fatalf("first outside evaluation must not emit, got %v", ev.Type)
	}
	ev = step(3, 200)
	if ev == nil || ev.Type != EventExit {
		t.Fatalf("expected exit on second consecutive outside evaluation")
	}
}

func TestDwellMutualExclusion(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	sides := []float64{50, 50, 200, 200, 50, 200, 50, 50}
	for i, north := range sides {
		ts := now.Add(time.Duration(i) * 10 * time.Second)
		res := e.Evaluate(fixAt(north, ts), ts)
		if res.TimeInside > 0 && res.TimeOutside > 0 {
			t.Fatalf("dwell accumulators both positive after evaluation %d: in=%v out=%v",
				i, res.TimeInside, res.TimeOutside)
		}
	}
}

func TestDwellAccumulation(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	e.Evaluate(fixAt(50, now), now)
	res := e.Evaluate(fixAt(50, now.Add(10*time.Second)), now.Add(10*time.Second))
	if res.TimeInside != 10*time.Second {
		t.Fatalf("expected 10s inside dwell, got %v", res.TimeInside)
	}

	// Switching sides resets the opposite accumulator.
	res = e.Evaluate(fixAt(200, now.Add(15*time.Second)), now.Add(15*time.Second))
	if res.TimeInside != 0 {
		t.Fatalf("inside dwell must reset on exit, got %v", res.TimeInside)
	}
	if res.TimeOutside != 5*time.Second {
		t.Fatalf("expected 5s outside dwell, got %v", res.TimeOutside)
	}
}

func TestStalenessGuard(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	e.Evaluate(fixAt(50, now), now)
	before := e.Evaluate(fixAt(50, now.Add(10*time.Second)), now.Add(10*time.Second))

	// 31 seconds stale relative to evaluation time: skipped entirely.
	evalAt := now.Add(60 * time.Second)
	res := e.Evaluate(fixAt(200, evalAt.Add(-31*time.Second)), evalAt)
	if !res.Skipped {
		t.Fatalf("expected stale fix to be skipped")
	}
	if res.Event != nil {
		t.Fatalf("stale fix must not emit an event")
	}
	if res.TimeInside != before.TimeInside || res.TimeOutside != before.TimeOutside {
		t.Fatalf("stale fix must leave accumulators unchanged: in=%v out=%v", res.TimeInside, res.TimeOutside)
	}
}

func TestFreshBoundaryNotSkipped(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	res := e.Evaluate(fixAt(50, now.Add(-30*time.Second)), now)
	if res.Skipped {
		t.Fatalf("fix exactly 30s old must still evaluate")
	}
}

func TestResetClearsState(t *testing.T) {
	e := New(testTarget())
	now := time.Now()

	e.Evaluate(fixAt(50, now), now)
	e.Evaluate(fixAt(50, now.Add(10*time.Second)), now.Add(10*time.Second))
	e.Reset()

	res := e.Evaluate(fixAt(50, now.Add(20*time.Second)), now.Add(20*time.Second))
	if res.TimeInside != 0 {
		t.Fatalf("expected zero dwell after reset, got %v", res.TimeInside)
	}
}
