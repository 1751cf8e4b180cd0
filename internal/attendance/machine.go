package attendance

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Kalpa111334/Hr-Management/internal/geofence"
	"github.com/Kalpa111334/Hr-Management/internal/models"
)

// Status is the auto-attendance state. ENTERING and EXITING are derived
// progress labels shown while a dwell accumulator is nonzero but below
// its threshold; they are never persisted.
type Status string

const (
	StatusDisabled   Status = "DISABLED"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusEntering   Status = "ENTERING"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusExiting    Status = "EXITING"
)

const (
	// DefaultCheckInThreshold is the sustained dwell inside the
	// geofence before auto check-in fires.
	DefaultCheckInThreshold = 2 * time.Minute

	// DefaultCheckOutThreshold is the sustained dwell outside before
	// auto check-out fires.
	DefaultCheckOutThreshold = 5 * time.Minute

	// ManualCheckOutMinimum is the real-time elapsed since check-in
	// required before a manual check-out is accepted.
	ManualCheckOutMinimum = 5 * time.Minute
)

// Precondition violations, rejected synchronously with no state change.
var (
	ErrNoActiveCheckIn     = errors.New("no active check-in found")
	ErrMinTimeNotMet       = errors.New("minimum time threshold not met")
	ErrStillInsideGeofence = errors.New("still within office geofence")
	ErrNotTracking         = errors.New("auto attendance is not enabled")
)

// Filter narrows a record query.
type Filter struct {
	UserId string
	Status string
}

// Store persists attendance records. Implemented by the gorm store; a
// fake suffices for tests.
type Store interface {
	Create(rec *models.AttendanceRecord) error
	Update(id string, patch map[string]interface{}) error
	FindMany(filter Filter) ([]models.AttendanceRecord, error)
}

// PreferenceStore persists the per-user auto-attendance toggle.
type PreferenceStore interface {
	Update(userId string, autoAttendanceEnabled bool) error
}

// Notifier dispatches user-facing notifications. Injected rather than
// global so tests can substitute a fake.
type Notifier interface {
	Send(kind string, payload map[string]interface{}) error
}

// Callbacks are the registration points the UI layer hooks into.
type Callbacks struct {
	OnEntry        func()
	OnExit         func()
	OnAutoCheckIn  func()
	OnAutoCheckOut func()
}

// Config tunes the machine for one user session.
type Config struct {
	UserId            string
	CheckInThreshold  time.Duration
	CheckOutThreshold time.Duration
}

func (c Config) checkInThreshold() time.Duration {
	if c.CheckInThreshold > 0 {
		return c.CheckInThreshold
	}
	return DefaultCheckInThreshold
}

func (c Config) checkOutThreshold() time.Duration {
	if c.CheckOutThreshold > 0 {
		return c.CheckOutThreshold
	}
	return DefaultCheckOutThreshold
}

// Observation is one evaluator result fed into the machine.
type Observation struct {
	WithinGeofence bool
	TimeInside     time.Duration
	TimeOutside    time.Duration
	Event          *geofence.Event
	Now            time.Time
}

// machineState is the explicit state the transition function operates
// on. locationReached latches auto check-in to once per dwell episode.
type machineState struct {
	status          Status
	locationReached bool
}

type command int

const (
	cmdAutoCheckIn command = iota
	cmdAutoCheckOut
	cmdNotifyEntry
	cmdNotifyExit
)

// transition is the pure state-machine core: current state plus one
// observation in, next state plus side-effect commands out. Commands
// are executed by the Machine; a failed command keeps the old state.
func transition(st machineState, obs Observation, cfg Config, emergency bool) (machineState, []command) {
	next := st
	var cmds []command

	if st.status == StatusDisabled {
		return st, nil
	}

	switch {
	case obs.WithinGeofence && obs.TimeInside >= cfg.checkInThreshold() && !st.locationReached:
		next.locationReached = true
		next.status = StatusCheckedIn
		cmds = append(cmds, cmdAutoCheckIn)

	case !obs.WithinGeofence && obs.TimeOutside >= cfg.checkOutThreshold() && st.locationReached && !emergency:
		next.locationReached = false
		next.status = StatusCheckedOut
		cmds = append(cmds, cmdAutoCheckOut)

	// Derived progress labels while a dwell accumulator is running.
	case obs.WithinGeofence && obs.TimeInside > 0 && !st.locationReached:
		next.status = StatusEntering

	case !obs.WithinGeofence && obs.TimeOutside > 0 && st.locationReached:
		next.status = StatusExiting
	}

	if obs.Event != nil {
		switch obs.Event.Type {
		case geofence.EventEntry:
			cmds = append(cmds, cmdNotifyEntry)
		case geofence.EventExit:
			cmds = append(cmds, cmdNotifyExit)
		}
	}

	return next, cmds
}

// Machine drives auto check-in/check-out from dwell-time crossings and
// validates manual attendance operations. Not safe for concurrent use;
// the tracker serializes all calls.
type Machine struct {
	cfg       Config
	store     Store
	prefs     PreferenceStore
	notifier  Notifier
	callbacks Callbacks

	st         machineState
	emergency  bool
	target     geofence.Target
	locationId string
	lastWithin bool

	activeRecordId string
	checkInAt      time.Time
}

func NewMachine(cfg Config, store Store, prefs PreferenceStore, notifier Notifier, callbacks Callbacks) *Machine {
	return &Machine{
		cfg:       cfg,
		store:     store,
		prefs:     prefs,
		notifier:  notifier,
		callbacks: callbacks,
		st:        machineState{status: StatusDisabled},
	}
}

func (m *Machine) Status() Status {
	return m.st.status
}

func (m *Machine) LocationReached() bool {
	return m.st.locationReached
}

// Enable arms the machine against the given target. The machine starts
// in CHECKED_OUT and transitions on dwell crossings.
func (m *Machine) Enable(target geofence.Target, locationId string) {
	m.target = target
	m.locationId = locationId
	m.st = machineState{status: StatusCheckedOut}
}

// Reset disarms the machine, used when tracking stops or unmounts.
func (m *Machine) Reset() {
	m.st = machineState{status: StatusDisabled}
	m.activeRecordId = ""
	m.checkInAt = time.Time{}
	m.lastWithin = false
}

func (m *Machine) SetEmergencyMode(active bool) {
	m.emergency = active
}

// Step feeds one evaluator result through the transition function and
// executes the resulting commands. The state only advances when every
// store mutation succeeded, on both the check-in and check-out paths.
func (m *Machine) Step(obs Observation) error {
	m.lastWithin = obs.WithinGeofence

	next, cmds := transition(m.st, obs, m.cfg, m.emergency)
	for _, cmd := range cmds {
		err := m.execute(cmd, obs)
		if err != nil {
			log.Printf("attendance: command failed, holding state %s (%v)", m.st.status, err)
			return err
		}
	}

	m.st = next
	return nil
}

func (m *Machine) execute(cmd command, obs Observation) error {
	switch cmd {
	case cmdAutoCheckIn:
		return m.autoCheckIn(obs.Now)

	case cmdAutoCheckOut:
		return m.autoCheckOut(obs.Now)

	case cmdNotifyEntry:
		if m.callbacks.OnEntry != nil {
			m.callbacks.OnEntry()
		}
		m.notify("geofence_entry", map[string]interface{}{"location_id": m.locationId})

	case cmdNotifyExit:
		if m.callbacks.OnExit != nil {
			m.callbacks.OnExit()
		}
		m.notify("geofence_exit", map[string]interface{}{"location_id": m.locationId})
	}

	return nil
}

func (m *Machine) autoCheckIn(now time.Time) error {
	rec := &models.AttendanceRecord{
		Id:              uuid.NewString(),
		UserId:          m.cfg.UserId,
		LocationId:      m.locationId,
		CheckInTime:     &now,
		Status:          models.StatusCheckedIn,
		IsAutoEnabled:   true,
		AutoStatus:      models.StatusCheckedIn,
		AutoCheckInTime: &now,
		AutoLocation:    fmt.Sprintf("%f,%f", m.target.Latitude, m.target.Longitude),
	}

	err := m.store.Create(rec)
	if err != nil {
		return err
	}

	m.activeRecordId = rec.Id
	m.checkInAt = now

	err = m.prefs.Update(m.cfg.UserId, true)
	if err != nil {
		log.Printf("attendance: failed to update preference (%v)", err)
	}

	m.notify("auto_check_in", map[string]interface{}{
		"user_id":     m.cfg.UserId,
		"location_id": m.locationId,
	})
	if m.callbacks.OnAutoCheckIn != nil {
		m.callbacks.OnAutoCheckIn()
	}

	log.Printf("attendance: auto check-in for user %s at location %s", m.cfg.UserId, m.locationId)
	return nil
}

func (m *Machine) autoCheckOut(now time.Time) error {
	rec, err := m.activeRecord()
	if err != nil {
		return err
	}

	patch := map[string]interface{}{
		"status":              models.StatusCheckedOut,
		"auto_status":         models.StatusCheckedOut,
		"check_out_time":      now,
		"auto_check_out_time": now,
	}
	err = m.store.Update(rec.Id, patch)
	if err != nil {
		return err
	}

	m.activeRecordId = ""
	m.checkInAt = time.Time{}

	err = m.prefs.Update(m.cfg.UserId, false)
	if err != nil {
		log.Printf("attendance: failed to update preference (%v)", err)
	}

	m.notify("auto_check_out", map[string]interface{}{
		"user_id":     m.cfg.UserId,
		"location_id": m.locationId,
	})
	if m.callbacks.OnAutoCheckOut != nil {
		m.callbacks.OnAutoCheckOut()
	}

	log.Printf("attendance: auto check-out for user %s", m.cfg.UserId)
	return nil
}

// activeRecord finds the open CHECKED_IN record for this user,
// preferring the one this machine created.
func (m *Machine) activeRecord() (*models.AttendanceRecord, error) {
	recs, err := m.store.FindMany(Filter{UserId: m.cfg.UserId, Status: models.StatusCheckedIn})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNoActiveCheckIn
	}

	for i := range recs {
		if recs[i].Id == m.activeRecordId {
			return &recs[i], nil
		}
	}

	return &recs[0], nil
}

// ManualCheckIn creates an attendance record outside the auto flow.
func (m *Machine) ManualCheckIn(now time.Time, autoEnabled bool) (*models.AttendanceRecord, error) {
	autoStatus := ""
	if autoEnabled {
		autoStatus = models.StatusCheckedIn
	}

	rec := &models.AttendanceRecord{
		Id:            uuid.NewString(),
		UserId:        m.cfg.UserId,
		LocationId:    m.locationId,
		CheckInTime:   &now,
		Status:        models.StatusCheckedIn,
		IsAutoEnabled: autoEnabled,
		AutoStatus:    autoStatus,
	}

	err := m.store.Create(rec)
	if err != nil {
		return nil, err
	}

	m.activeRecordId = rec.Id
	m.checkInAt = now
	return rec, nil
}

// ManualCheckOut closes the active record after validating the
// preconditions: an active check-in exists, at least five minutes of
// real time have passed since it, and the device is outside the
// geofence. Violations are rejected with no state change.
func (m *Machine) ManualCheckOut(now time.Time) error {
	if m.st.status == StatusDisabled {
		return ErrNotTracking
	}

	rec, err := m.activeRecord()
	if err != nil {
		return err
	}

	if m.checkInAt.IsZero() || now.Sub(m.checkInAt) < ManualCheckOutMinimum {
		return ErrMinTimeNotMet
	}

	if m.lastWithin {
		return ErrStillInsideGeofence
	}

	patch := map[string]interface{}{
		"status":         models.StatusCheckedOut,
		"check_out_time": now,
	}
	err = m.store.Update(rec.Id, patch)
	if err != nil {
		return err
	}

	m.st = machineState{status: StatusCheckedOut}
	m.activeRecordId = ""
	m.checkInAt = time.Time{}
	return nil
}

func (m *Machine) notify(kind string, payload map[string]interface{}) {
	if m.notifier == nil {
		return
	}

	err := m.notifier.Send(kind, payload)
	if err != nil {
		log.Printf("attendance: notification %s failed (%v)", kind, err)
	}
}
