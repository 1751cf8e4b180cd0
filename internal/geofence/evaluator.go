package geofence

import (
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/geo"
)

const (
	// BufferMeters widens the boundary slightly so GPS noise right at
	// the edge does not flap the classification.
	BufferMeters = 2.0

	// EmergencyRadiusMeters replaces the target radius while emergency
	// mode is active.
	EmergencyRadiusMeters = 500.0

	// StaleAfter is the maximum age a fix may have at evaluation time.
	// Older fixes carry no new information and are skipped.
	StaleAfter = 30 * time.Second

	// requiredChecks is the number of consecutive confirmations of a
	// changed classification before an entry/exit event fires.
	requiredChecks = 2
)

// Target is the geofence center and radius being tracked. Immutable for
// the duration of a tracking session.
type Target struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

type EventType string

const (
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
)

// Event is a debounced boundary crossing.
type Event struct {
	Type EventType
	At   time.Time
}

// Result is the outcome of one evaluation.
type Result struct {
	Skipped        bool
	WithinGeofence bool
	Distance       float64
	TimeInside     time.Duration
	TimeOutside    time.Duration
	Event          *Event
}

// Evaluator classifies fixes against a target and tracks dwell time on
// each side of the boundary. It is not safe for concurrent use; the
// tracker serializes all evaluations on a single goroutine.
type Evaluator struct {
	target    Target
	emergency bool

	timeInside        time.Duration
	timeOutside       time.Duration
	consecutiveChecks int
	lastWithin        bool
	lastEmittedWithin bool
	lastCheckTime     time.Time
}

func New(target Target) *Evaluator {
	return &Evaluator{
		target: target,
	}
}

// SetTarget swaps the tracked target, used when emergency mode replaces
// the office location with the device position.
func (e *Evaluator) SetTarget(target Target) {
	e.target = target
}

func (e *Evaluator) SetEmergencyMode(active bool) {
	e.emergency = active
}

func (e *Evaluator) Target() Target {
	return e.target
}

// Reset clears all dwell and debounce state, used when tracking stops.
func (e *Evaluator) Reset() {
	e.timeInside = 0
	e.timeOutside = 0
	e.consecutiveChecks = 0
	e.lastWithin = false
	e.lastEmittedWithin = false
	e.lastCheckTime = time.Time{}
}

func (e *Evaluator) effectiveRadius() float64 {
	if e.emergency {
		return EmergencyRadiusMeters
	}

	return e.target.Radius
}

// Evaluate classifies one fix. Dwell time accumulates from the
// wall-clock delta between consecutive evaluations rather than the fix
// timestamps, so delayed reports cannot distort the accounting. A fix
// older than StaleAfter is skipped entirely and does not advance the
// dwell clock, so the interval spanning the skip is never counted.
func (e *Evaluator) Evaluate(fix geo.Fix, now time.Time) Result {
	distance := geo.Distance(fix.Latitude, fix.Longitude, e.target.Latitude, e.target.Longitude)
	within := distance <= e.effectiveRadius()+BufferMeters

	if now.Sub(fix.Timestamp) > StaleAfter {
		return Result{
			Skipped:        true,
			WithinGeofence: within,
			Distance:       distance,
			TimeInside:     e.timeInside,
			TimeOutside:    e.timeOutside,
		}
	}

	var delta time.Duration
	if !e.lastCheckTime.IsZero() {
		delta = now.Sub(e.lastCheckTime)
	}
	e.lastCheckTime = now

	if within {
		e.timeInside += delta
		e.timeOutside = 0
	} else {
		e.timeOutside += delta
		e.timeInside = 0
	}

	// Debounce: count consecutive evaluations on the current side.
	if within != e.lastWithin {
		e.consecutiveChecks = 0
	}
	e.consecutiveChecks++
	e.lastWithin = within

	var event *Event
	if within != e.lastEmittedWithin && e.consecutiveChecks >= requiredChecks {
		t := EventExit
		if within {
			t = EventEntry
		}
		event = &Event{Type: t, At: now}
		e.lastEmittedWithin = within
	}

	return Result{
		WithinGeofence: within,
		Distance:       distance,
		TimeInside:     e.timeInside,
		TimeOutside:    e.timeOutside,
		Event:          event,
	}
}
