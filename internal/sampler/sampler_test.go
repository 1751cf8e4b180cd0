package sampler

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/geo"
)

// fakeProvider captures the sampler's callbacks so tests can push fixes
// and errors by hand.
type fakeProvider struct {
	mu           sync.Mutex
	onFix        func(geo.Fix)
	onErr        func(*ProviderError)
	currentCalls int
	cleared      []int
}

func (p *fakeProvider) WatchPosition(onFix func(geo.Fix), onErr func(*ProviderError), opts Options) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onFix = onFix
	p.onErr = onErr
	return 1, nil
}

func (p *fakeProvider) GetCurrentPosition(onFix func(geo.Fix), onErr func(*ProviderError), opts Options) {
	p.mu.Lock()
	p.currentCalls++
	p.mu.Unlock()
}

func (p *fakeProvider) ClearWatch(handle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cleared = append(p.cleared, handle)
}

func (p *fakeProvider) pushFix(fix geo.Fix) {
	p.mu.Lock()
	onFix := p.onFix
	p.mu.Unlock()
	onFix(fix)
}

func (p *fakeProvider) pushErr(perr *ProviderError) {
	p.mu.Lock()
	onErr := p.onErr
	p.mu.Unlock()
	onErr(perr)
}

func (p *fakeProvider) currentCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentCalls
}

type emitLog struct {
	mu    sync.Mutex
	fixes []geo.Fix
	errs  []*ProviderError
}

func (l *emitLog) onPosition(fix geo.Fix) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fixes = append(l.fixes, fix)
}

func (l *emitLog) onError(perr *ProviderError) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errs = append(l.errs, perr)
}

func (l *emitLog) emitted() []geo.Fix {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]geo.Fix, len(l.fixes))
	copy(out, l.fixes)
	return out
}

func startSampler(t *testing.T) (*Sampler, *fakeProvider, *emitLog) {
	t.Helper()

	provider := &fakeProvider{}
	emits := &emitLog{}
	s := New(Config{}, provider, emits.onPosition, emits.onError)
	err := s.Start(false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(s.Stop)

	return s, provider, emits
}

func goodFix(lat float64, ts time.Time) geo.Fix {
	return geo.Fix{Latitude: lat, Longitude: lat * 2, Accuracy: 5, Timestamp: ts}
}

func TestWindowAveragingAndEviction(t *testing.T) {
	_, provider, emits := startSampler(t)
	now := time.Now()

	for i := 0; i < 6; i++ {
		provider.pushFix(goodFix(float64(i+1), now.Add(time.Duration(i)*time.Second)))
	}

	got := emits.emitted()
	if len(got) != 2 {
		t.Fatalf("expected averaged emissions on the 5th and 6th fixes, got %d", len(got))
	}

	// Mean of 1..5, then of 2..6 once the first fix was evicted.
	if math.Abs(got[0].Latitude-3.0) > 1e-9 {
		t.Fatalf("expected first average latitude 3.0, got %f", got[0].Latitude)
	}
	if math.Abs(got[1].Latitude-4.0) > 1e-9 {
		t.Fatalf("expected eviction of the oldest fix, average latitude 4.0, got %f", got[1].Latitude)
	}
}

func TestLowAccuracyDropped(t *testing.T) {
	_, provider, emits := startSampler(t)
	now := time.Now()

	bad := geo.Fix{Latitude: 99, Longitude: 99, Accuracy: 25, Timestamp: now}
	provider.pushFix(bad)

	for i := 0; i < 5; i++ {
		provider.pushFix(goodFix(float64(i+1), now.Add(time.Duration(i+1)*time.Second)))
	}

	got := emits.emitted()
	if len(got) != 1 {
		t.Fatalf("expected one averaged emission, got %d", len(got))
	}
	if math.Abs(got[0].Latitude-3.0) > 1e-9 {
		t.Fatalf("low-accuracy fix leaked into the average: latitude %f", got[0].Latitude)
	}
}

func TestRawEmitDebounce(t *testing.T) {
	_, provider, emits := startSampler(t)
	now := time.Now()

	// Two quick fixes before the window fills: only the last survives
	// the debounce.
	provider.pushFix(goodFix(1, now))
	provider.pushFix(goodFix(2, now.Add(100*time.Millisecond)))

	time.Sleep(EmitDebounce + 300*time.Millisecond)

	got := emits.emitted()
	if len(got) != 1 {
		t.Fatalf("expected one debounced raw emission, got %d", len(got))
	}
	if got[0].Latitude != 2 {
		t.Fatalf("expected the latest raw fix, got latitude %f", got[0].Latitude)
	}
}

func TestTransientErrorRetries(t *testing.T) {
	_, provider, emits := startSampler(t)

	provider.pushErr(&ProviderError{Code: CodeTimeout, Message: "timed out"})

	// First backoff step is 2^0 = 1 second.
	time.Sleep(1500 * time.Millisecond)

	if provider.currentCallCount() == 0 {
		t.Fatalf("expected a one-shot retry after transient failure")
	}

	emits.mu.Lock()
	errCount := len(emits.errs)
	emits.mu.Unlock()
	if errCount != 1 {
		t.Fatalf("expected the error surfaced once, got %d", errCount)
	}
}

func TestPermissionDeniedIsTerminal(t *testing.T) {
	_, provider, emits := startSampler(t)

	provider.pushErr(&ProviderError{Code: CodePermissionDenied, Message: "denied"})

	time.Sleep(1500 * time.Millisecond)

	if provider.currentCallCount() != 0 {
		t.Fatalf("permission denial must not be retried")
	}

	emits.mu.Lock()
	defer emits.mu.Unlock()
	if len(emits.errs) != 1 {
		t.Fatalf("expected the denial surfaced, got %d errors", len(emits.errs))
	}
	if emits.errs[0].Retryable() {
		t.Fatalf("permission denial must classify as terminal")
	}
}

func TestStopClearsWatchAndIsIdempotent(t *testing.T) {
	s, provider, _ := startSampler(t)

	s.Stop()
	s.Stop()

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.cleared) != 1 || provider.cleared[0] != 1 {
		t.Fatalf("expected exactly one ClearWatch for handle 1, got %v", provider.cleared)
	}
}

func TestEmergencyPatternsRetained(t *testing.T) {
	provider := &fakeProvider{}
	emits := &emitLog{}
	s := New(Config{}, provider, emits.onPosition, emits.onError)
	err := s.Start(true)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	now := time.Now()
	for i := 0; i < 25; i++ {
		provider.pushFix(goodFix(float64(i)*0.0001, now.Add(time.Duration(i)*time.Second)))
	}

	patterns := s.Patterns()
	if len(patterns) != 20 {
		t.Fatalf("expected movement patterns capped at 20, got %d", len(patterns))
	}
}
