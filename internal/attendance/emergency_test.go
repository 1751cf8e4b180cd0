package attendance

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeKV is a map-backed KV for tests.
type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (kv *fakeKV) Get(key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	v, ok := kv.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return v, nil
}

func (kv *fakeKV) Set(key string, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.values[key] = value
	return nil
}

func (kv *fakeKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	delete(kv.values, key)
	return nil
}

func (kv *fakeKV) has(key string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	_, ok := kv.values[key]
	return ok
}

func TestEmergencyActivatePersistsAndRestores(t *testing.T) {
	kv := newFakeKV()
	m := NewEmergencyManager(kv, nil, nil)
	now := time.Now().Truncate(time.Second)

	err := m.Activate(6.9271, 79.8612, now)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	for _, key := range []string{keyEmergencyMode, keyEmergencyLocation, keyEmergencyStartTime} {
		if !kv.has(key) {
			t.Fatalf("expected key %s persisted", key)
		}
	}

	st := m.State()
	if !st.Active || st.Location.Radius != EmergencyTargetRadius {
		t.Fatalf("unexpected state after activation: %+v", st)
	}

	// A fresh manager over the same KV restores the active override.
	m2 := NewEmergencyManager(kv, nil, nil)
	st2 := m2.State()
	if !st2.Active {
		t.Fatalf("expected restored manager to load active state")
	}
	if !st2.StartedAt.Equal(now) {
		t.Fatalf("expected restored start time %v, got %v", now, st2.StartedAt)
	}
	if st2.Location.Latitude != 6.9271 || st2.Location.Longitude != 79.8612 {
		t.Fatalf("unexpected restored location: %+v", st2.Location)
	}
}

func TestEmergencyDeactivateClearsKeys(t *testing.T) {
	kv := newFakeKV()
	var changes []EmergencyState
	m := NewEmergencyManager(kv, nil, func(st EmergencyState) {
		changes = append(changes, st)
	})
	now := time.Now()

	err := m.Activate(0, 0, now)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	err = m.Deactivate()
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	for _, key := range []string{keyEmergencyMode, keyEmergencyLocation, keyEmergencyStartTime} {
		if kv.has(key) {
			t.Fatalf("expected key %s cleared", key)
		}
	}

	if len(changes) != 2 || !changes[0].Active || changes[1].Active {
		t.Fatalf("expected onChange active then inactive, got %+v", changes)
	}

	// Deactivating twice is a no-op.
	err = m.Deactivate()
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("no-op deactivate must not fire onChange")
	}
}

func TestEmergencyAutoExpiry(t *testing.T) {
	kv := newFakeKV()
	m := NewEmergencyManager(kv, nil, nil)
	started := time.Now().Add(-5 * time.Hour)

	err := m.Activate(0, 0, started)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	m.checkExpiry(time.Now())

	if m.State().Active {
		t.Fatalf("expected emergency mode auto-disabled after %v", EmergencyDuration)
	}
	if kv.has(keyEmergencyMode) {
		t.Fatalf("expected persisted keys cleared on expiry")
	}
}

func TestEmergencyNotExpiredBeforeDuration(t *testing.T) {
	kv := newFakeKV()
	m := NewEmergencyManager(kv, nil, nil)
	started := time.Now().Add(-time.Hour)

	err := m.Activate(0, 0, started)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	m.checkExpiry(time.Now())

	if !m.State().Active {
		t.Fatalf("emergency mode must stay active before %v elapses", EmergencyDuration)
	}
}

func TestEmergencySyncFromStore(t *testing.T) {
	kv := newFakeKV()
	var changes []EmergencyState
	m := NewEmergencyManager(kv, nil, func(st EmergencyState) {
		changes = append(changes, st)
	})

	// Another process activates through the shared file.
	other := NewEmergencyManager(kv, nil, nil)
	now := time.Now().Truncate(time.Second)
	err := other.Activate(1, 2, now)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	m.syncFromStore()

	st := m.State()
	if !st.Active || st.Location.Latitude != 1 || st.Location.Longitude != 2 {
		t.Fatalf("expected external activation picked up, got %+v", st)
	}
	if len(changes) != 1 || !changes[0].Active {
		t.Fatalf("expected one onChange for the external activation, got %+v", changes)
	}

	// Nothing changed: sync must stay quiet.
	m.syncFromStore()
	if len(changes) != 1 {
		t.Fatalf("sync without changes must not fire onChange")
	}

	// External deactivation.
	err = other.Deactivate()
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	m.syncFromStore()
	if m.State().Active {
		t.Fatalf("expected external deactivation picked up")
	}
	if len(changes) != 2 {
		t.Fatalf("expected onChange for the external deactivation, got %+v", changes)
	}
}
