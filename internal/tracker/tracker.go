package tracker

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Kalpa111334/Hr-Management/internal/attendance"
	"github.com/Kalpa111334/Hr-Management/internal/geo"
	"github.com/Kalpa111334/Hr-Management/internal/geofence"
	"github.com/Kalpa111334/Hr-Management/internal/kvstore"
	"github.com/Kalpa111334/Hr-Management/internal/models"
	"github.com/Kalpa111334/Hr-Management/internal/sampler"
	"github.com/Kalpa111334/Hr-Management/internal/store"
)

// Tracker wires the sampler, evaluator and attendance machine into one
// tracking session and publishes the snapshot row. All evaluation runs
// on a single goroutine fed by channels, so the dwell accumulators and
// debounce counter have exactly one writer.
type Tracker struct {
	cfg    Config
	dbConn *gorm.DB

	attendanceStore *store.AttendanceStore
	locationStore   *store.LocationStore
	prefStore       *store.PreferenceStore
	snapshotStore   *store.SnapshotStore
	kv              *kvstore.Store

	provider  sampler.Provider
	sampler   *sampler.Sampler
	evaluator *geofence.Evaluator
	machine   *attendance.Machine
	emergency *attendance.EmergencyManager

	officeTarget geofence.Target
	callbacks    attendance.Callbacks

	fixCh chan geo.Fix
	errCh chan *sampler.ProviderError
	emCh  chan attendance.EmergencyState

	mu   sync.Mutex
	snap Snapshot

	killSig chan struct{}
	wg      *sync.WaitGroup
	started bool
	stopped bool
}

func New(cfg Config) (*Tracker, error) {
	var err error

	// Base Initialization
	t := &Tracker{
		cfg:   cfg,
		fixCh: make(chan geo.Fix, 16),
		errCh: make(chan *sampler.ProviderError, 16),
		emCh:  make(chan attendance.EmergencyState, 4),
		wg:    &sync.WaitGroup{},
	}

	// DB Conn Initialization
	t.dbConn, err = store.Open(cfg.Db)
	if err != nil {
		return nil, err
	}

	t.attendanceStore = &store.AttendanceStore{DbConn: t.dbConn, Debug: cfg.Db.Debug}
	t.locationStore = &store.LocationStore{DbConn: t.dbConn, Debug: cfg.Db.Debug}
	t.prefStore = &store.PreferenceStore{DbConn: t.dbConn, Debug: cfg.Db.Debug}
	t.snapshotStore = &store.SnapshotStore{DbConn: t.dbConn, Debug: cfg.Db.Debug}

	// Local state surviving restarts (emergency mode keys)
	statePath := cfg.Tracking.StatePath
	if statePath == "" {
		statePath = "tracker_state.json"
	}
	t.kv, err = kvstore.Open(statePath)
	if err != nil {
		return nil, err
	}

	// Office target
	loc, err := t.locationStore.FindById(cfg.Tracking.LocationId)
	if err != nil {
		return nil, fmt.Errorf("unknown office location %s: %w", cfg.Tracking.LocationId, err)
	}
	t.officeTarget = geofence.Target{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Radius:    loc.Radius,
	}

	// Engine components
	notifier := &attendance.LogNotifier{}
	t.emergency = attendance.NewEmergencyManager(t.kv, notifier, func(state attendance.EmergencyState) {
		select {
		case t.emCh <- state:
		default:
			log.Printf("tracker: emergency change dropped, channel full")
		}
	})

	t.evaluator = geofence.New(t.officeTarget)

	machineCfg := attendance.Config{
		UserId:            cfg.Tracking.UserId,
		CheckInThreshold:  time.Duration(cfg.Tracking.CheckInThreshold) * time.Minute,
		CheckOutThreshold: time.Duration(cfg.Tracking.CheckOutThreshold) * time.Minute,
	}
	t.machine = attendance.NewMachine(machineCfg, t.attendanceStore, t.prefStore, notifier, attendance.Callbacks{
		OnEntry:        func() { t.fire(t.callbacks.OnEntry) },
		OnExit:         func() { t.fire(t.callbacks.OnExit) },
		OnAutoCheckIn:  func() { t.fire(t.callbacks.OnAutoCheckIn) },
		OnAutoCheckOut: func() { t.fire(t.callbacks.OnAutoCheckOut) },
	})

	t.provider = sampler.NewHTTPProvider(
		cfg.Provider.Endpoint, cfg.Provider.Apikey, cfg.Provider.Uri,
		cfg.Provider.Interval, cfg.Provider.Debug)

	samplerCfg := sampler.Config{
		PollInterval: time.Duration(cfg.Tracking.PollInterval) * time.Second,
		Options:      sampler.Options{EnableHighAccuracy: cfg.Tracking.HighAccuracy},
	}
	t.sampler = sampler.New(samplerCfg, t.provider,
		func(fix geo.Fix) { t.fixCh <- fix },
		func(perr *sampler.ProviderError) { t.errCh <- perr })

	return t, nil
}

func (t *Tracker) fire(cb func()) {
	if cb != nil {
		cb()
	}
}

// RegisterCallbacks hooks the UI-facing callback points. Must be called
// before Start.
func (t *Tracker) RegisterCallbacks(cb attendance.Callbacks) {
	t.callbacks = cb
}

// Snapshot returns a copy of the current reactive state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snap
}

// Start arms the machine and begins sampling. The evaluation loop
// consumes fixes, provider errors and emergency transitions from their
// channels one at a time.
func (t *Tracker) Start() error {
	if t.started {
		return nil
	}
	t.started = true
	t.killSig = make(chan struct{})

	emState := t.emergency.State()
	target := t.officeTarget
	if emState.Active {
		target = emState.Location
		t.evaluator.SetEmergencyMode(true)
		t.machine.SetEmergencyMode(true)
	}
	t.evaluator.SetTarget(target)
	t.machine.Enable(target, t.cfg.Tracking.LocationId)

	t.mu.Lock()
	t.snap.IsTracking = true
	t.snap.AutoStatus = t.machine.Status()
	if emState.Active {
		loc := emState.Location
		t.snap.EmergencyLocation = &loc
	}
	t.mu.Unlock()

	t.wg.Add(1)
	go t.evalLoop()

	t.emergency.Run(t.wg, t.killSig)

	err := t.sampler.Start(emState.Active)
	if err != nil {
		t.Stop()
		return err
	}

	log.Printf("tracker: started for user %s at location %s", t.cfg.Tracking.UserId, t.cfg.Tracking.LocationId)
	return nil
}

// Stop cancels the sampler, the emergency timer and the evaluation
// loop, and resets all engine state. Safe to call more than once.
func (t *Tracker) Stop() {
	if !t.started || t.stopped {
		return
	}
	t.stopped = true

	t.sampler.Stop()
	close(t.killSig)
	t.wg.Wait()

	t.machine.Reset()
	t.evaluator.Reset()

	t.mu.Lock()
	t.snap = Snapshot{AutoStatus: attendance.StatusDisabled}
	t.mu.Unlock()

	log.Printf("tracker: stopped")
}

// Run starts tracking and blocks until a kill signal arrives.
func (t *Tracker) Run() error {
	err := t.Start()
	if err != nil {
		return err
	}

	killSig := make(chan os.Signal, 1)
	signal.Notify(killSig, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	<-killSig

	log.Printf("Caught kill signal, shutting down")
	t.Stop()
	log.Printf("All threads exited")

	return nil
}

func (t *Tracker) evalLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.killSig:
			return
		case fix := <-t.fixCh:
			t.processFix(fix)
		case perr := <-t.errCh:
			t.processError(perr)
		case state := <-t.emCh:
			t.processEmergencyChange(state)
		}
	}
}

func (t *Tracker) processFix(fix geo.Fix) {
	now := time.Now()
	res := t.evaluator.Evaluate(fix, now)
	emState := t.emergency.State()

	t.mu.Lock()
	t.snap.Position = &fix
	t.snap.Accuracy = fix.Accuracy
	t.snap.Distance = res.Distance
	t.snap.Error = nil
	if !res.Skipped {
		t.snap.IsWithinGeofence = res.WithinGeofence
		t.snap.TimeInsideGeofence = res.TimeInside.Milliseconds()
		t.snap.TimeOutsideGeofence = res.TimeOutside.Milliseconds()
	}
	if emState.Active {
		t.snap.EmergencyLocationHistory = append(t.snap.EmergencyLocationHistory,
			EmergencyFix{Position: fix, Timestamp: now})
		t.snap.MovementPatterns = t.sampler.Patterns()
	}
	t.mu.Unlock()

	// A stale fix carries no new information: no dwell update, no
	// event, no machine step.
	if res.Skipped {
		t.persistSnapshot(now)
		return
	}

	obs := attendance.Observation{
		WithinGeofence: res.WithinGeofence,
		TimeInside:     res.TimeInside,
		TimeOutside:    res.TimeOutside,
		Event:          res.Event,
		Now:            now,
	}
	err := t.machine.Step(obs)

	t.mu.Lock()
	t.snap.AutoStatus = t.machine.Status()
	t.snap.LocationReached = t.machine.LocationReached()
	if err != nil {
		t.snap.Error = &StatusError{Code: CodeMutationFailed, Message: err.Error()}
	}
	t.mu.Unlock()

	t.persistSnapshot(now)
}

func (t *Tracker) processError(perr *sampler.ProviderError) {
	// Platform failure clears the current position so the UI does not
	// show a fix that may no longer be true.
	t.mu.Lock()
	t.snap.Position = nil
	t.snap.Error = &StatusError{Code: perr.Code, Message: perr.Message}
	t.mu.Unlock()

	t.persistSnapshot(time.Now())
}

func (t *Tracker) processEmergencyChange(state attendance.EmergencyState) {
	t.machine.SetEmergencyMode(state.Active)
	t.evaluator.SetEmergencyMode(state.Active)
	t.sampler.SetEmergencyMode(state.Active)

	if state.Active {
		t.evaluator.SetTarget(state.Location)
	} else {
		t.evaluator.SetTarget(t.officeTarget)
	}

	t.mu.Lock()
	if state.Active {
		loc := state.Location
		t.snap.EmergencyLocation = &loc
	} else {
		t.snap.EmergencyLocation = nil
		t.snap.EmergencyLocationHistory = nil
		t.snap.MovementPatterns = nil
	}
	t.mu.Unlock()

	log.Printf("tracker: emergency mode now %v", state.Active)
}

// ActivateEmergency turns emergency mode on around the current device
// position.
func (t *Tracker) ActivateEmergency() error {
	t.mu.Lock()
	pos := t.snap.Position
	t.mu.Unlock()

	if pos == nil {
		return fmt.Errorf("no current position to anchor emergency mode")
	}

	return t.emergency.Activate(pos.Latitude, pos.Longitude, time.Now())
}

func (t *Tracker) DeactivateEmergency() error {
	return t.emergency.Deactivate()
}

func (t *Tracker) persistSnapshot(now time.Time) {
	t.mu.Lock()
	snap := t.snap
	t.mu.Unlock()

	row := &models.TrackerSnapshot{
		UserId:              t.cfg.Tracking.UserId,
		LocationId:          t.cfg.Tracking.LocationId,
		Distance:            snap.Distance,
		IsWithinGeofence:    snap.IsWithinGeofence,
		IsTracking:          snap.IsTracking,
		LocationReached:     snap.LocationReached,
		TimeInsideGeofence:  snap.TimeInsideGeofence,
		TimeOutsideGeofence: snap.TimeOutsideGeofence,
		AutoStatus:          string(snap.AutoStatus),
	}
	if snap.Position != nil {
		row.Latitude = snap.Position.Latitude
		row.Longitude = snap.Position.Longitude
		row.Accuracy = snap.Position.Accuracy
		ts := snap.Position.Timestamp
		row.PositionAt = &ts
	}
	if snap.Error != nil {
		row.ErrorCode = snap.Error.Code
		row.ErrorMessage = snap.Error.Message
	}

	err := t.snapshotStore.Save(row)
	if err != nil {
		log.Printf("tracker: failed to persist snapshot (%v)", err)
	}
}
