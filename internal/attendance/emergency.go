package attendance

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/geofence"
)

const (
	// EmergencyTargetRadius is the geofence radius placed around the
	// device position when emergency mode activates.
	EmergencyTargetRadius = 200.0

	// EmergencyDuration is how long emergency mode may stay active
	// before it auto-deactivates.
	EmergencyDuration = 4 * time.Hour

	// expiryCheckInterval is how often the expiry timer re-checks.
	expiryCheckInterval = 60 * time.Second
)

// Persisted key names, kept stable so state survives restarts.
const (
	keyEmergencyMode      = "emergencyMode"
	keyEmergencyLocation  = "emergencyLocation"
	keyEmergencyStartTime = "emergencyStartTime"
)

// KV is the reload-surviving key/value store the emergency state is
// persisted in.
type KV interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Delete(key string) error
}

// EmergencyState is the current override. While active, auto check-out
// is suppressed and the effective geofence is widened.
type EmergencyState struct {
	Active    bool            `json:"active"`
	Location  geofence.Target `json:"location"`
	StartedAt time.Time       `json:"started_at"`
}

// EmergencyManager owns activation, persistence and the 4-hour expiry
// of emergency mode.
type EmergencyManager struct {
	kv       KV
	notifier Notifier
	onChange func(EmergencyState)

	mu    sync.Mutex
	state EmergencyState

	ticker  *time.Ticker
	killSig chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewEmergencyManager loads any persisted emergency state so an active
// override survives a restart. onChange fires on every activation,
// deactivation and expiry.
func NewEmergencyManager(kv KV, notifier Notifier, onChange func(EmergencyState)) *EmergencyManager {
	m := &EmergencyManager{
		kv:       kv,
		notifier: notifier,
		onChange: onChange,
	}
	m.load()
	return m
}

func (m *EmergencyManager) load() {
	mode, err := m.kv.Get(keyEmergencyMode)
	if err != nil || mode != "true" {
		return
	}

	locData, err := m.kv.Get(keyEmergencyLocation)
	if err != nil {
		return
	}

	var loc geofence.Target
	err = json.Unmarshal([]byte(locData), &loc)
	if err != nil {
		log.Printf("emergency: failed to parse persisted location (%v)", err)
		return
	}

	startData, err := m.kv.Get(keyEmergencyStartTime)
	if err != nil {
		return
	}

	startedAt, err := time.Parse(time.RFC3339, startData)
	if err != nil {
		log.Printf("emergency: failed to parse persisted start time (%v)", err)
		return
	}

	m.state = EmergencyState{Active: true, Location: loc, StartedAt: startedAt}
	log.Printf("emergency: restored active emergency mode started at %s", startedAt.Format(time.RFC3339))
}

func (m *EmergencyManager) State() EmergencyState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Activate turns emergency mode on around the given device position.
func (m *EmergencyManager) Activate(latitude float64, longitude float64, now time.Time) error {
	m.mu.Lock()
	state := EmergencyState{
		Active: true,
		Location: geofence.Target{
			Latitude:  latitude,
			Longitude: longitude,
			Radius:    EmergencyTargetRadius,
		},
		StartedAt: now,
	}

	locData, err := json.Marshal(state.Location)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	err = m.kv.Set(keyEmergencyMode, "true")
	if err == nil {
		err = m.kv.Set(keyEmergencyLocation, string(locData))
	}
	if err == nil {
		err = m.kv.Set(keyEmergencyStartTime, now.Format(time.RFC3339))
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.state = state
	onChange := m.onChange
	m.mu.Unlock()

	log.Printf("emergency: mode activated at %f,%f", latitude, longitude)
	m.notify("emergency_activated", map[string]interface{}{
		"latitude":  latitude,
		"longitude": longitude,
	})
	if onChange != nil {
		onChange(state)
	}

	return nil
}

// Deactivate turns emergency mode off and clears the persisted keys.
func (m *EmergencyManager) Deactivate() error {
	m.mu.Lock()
	if !m.state.Active {
		m.mu.Unlock()
		return nil
	}

	err := m.kv.Delete(keyEmergencyMode)
	if err == nil {
		err = m.kv.Delete(keyEmergencyLocation)
	}
	if err == nil {
		err = m.kv.Delete(keyEmergencyStartTime)
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.state = EmergencyState{}
	onChange := m.onChange
	m.mu.Unlock()

	log.Printf("emergency: mode deactivated")
	m.notify("emergency_deactivated", nil)
	if onChange != nil {
		onChange(EmergencyState{})
	}

	return nil
}

// Run checks every minute whether the active override has outlived
// EmergencyDuration and auto-deactivates when it has.
func (m *EmergencyManager) Run(wg *sync.WaitGroup, killSig chan struct{}) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.ticker = time.NewTicker(expiryCheckInterval)
	m.killSig = killSig
	m.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer m.ticker.Stop()

		for {
			select {
			case <-killSig:
				m.mu.Lock()
				m.running = false
				m.mu.Unlock()
				return
			case <-m.ticker.C:
				m.syncFromStore()
				m.checkExpiry(time.Now())
			}
		}
	}()
}

// syncFromStore picks up activations and deactivations written by
// another process sharing the key/value file, such as the API server.
func (m *EmergencyManager) syncFromStore() {
	loaded := EmergencyState{}

	mode, err := m.kv.Get(keyEmergencyMode)
	if err == nil && mode == "true" {
		locData, locErr := m.kv.Get(keyEmergencyLocation)
		startData, startErr := m.kv.Get(keyEmergencyStartTime)
		if locErr == nil && startErr == nil {
			var loc geofence.Target
			startedAt, timeErr := time.Parse(time.RFC3339, startData)
			if json.Unmarshal([]byte(locData), &loc) == nil && timeErr == nil {
				loaded = EmergencyState{Active: true, Location: loc, StartedAt: startedAt}
			}
		}
	}

	m.mu.Lock()
	changed := loaded.Active != m.state.Active || !loaded.StartedAt.Equal(m.state.StartedAt)
	if changed {
		m.state = loaded
	}
	onChange := m.onChange
	m.mu.Unlock()

	if changed {
		log.Printf("emergency: state changed externally (active=%v)", loaded.Active)
		if onChange != nil {
			onChange(loaded)
		}
	}
}

func (m *EmergencyManager) checkExpiry(now time.Time) {
	m.mu.Lock()
	expired := m.state.Active && now.Sub(m.state.StartedAt) >= EmergencyDuration
	m.mu.Unlock()

	if !expired {
		return
	}

	err := m.Deactivate()
	if err != nil {
		log.Printf("emergency: auto-deactivate failed (%v)", err)
		return
	}

	log.Printf("emergency: mode auto-disabled after %v", EmergencyDuration)
}

func (m *EmergencyManager) notify(kind string, payload map[string]interface{}) {
	if m.notifier == nil {
		return
	}

	err := m.notifier.Send(kind, payload)
	if err != nil {
		log.Printf("emergency: notification %s failed (%v)", kind, err)
	}
}
