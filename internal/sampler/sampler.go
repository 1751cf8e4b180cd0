package sampler

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/geo"
)

const (
	// Fixes with worse accuracy than this are too imprecise to trust.
	MinAccuracyMeters = 20.0

	// WindowSize is the number of recent fixes averaged into the
	// smoothed position.
	WindowSize = 5

	// Raw fixes emitted before the window fills are debounced by this
	// delay to coalesce bursts.
	EmitDebounce = 1 * time.Second

	// MaxRetries bounds the exponential-backoff retry after a
	// transient provider failure.
	MaxRetries = 5

	// Anomaly thresholds for emergency-mode movement diagnostics.
	anomalySpeedJump   = 10.0 // m/s
	anomalyHeadingJump = 90.0 // degrees
)

// MovementPattern is one derived speed/heading reading, retained while
// emergency mode is active.
type MovementPattern struct {
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}

// maxPatterns is how many movement patterns are retained.
const maxPatterns = 20

// Config controls sampling behavior. Zero values fall back to the
// defaults above.
type Config struct {
	PollInterval          time.Duration // periodic one-shot poll, default 60s
	EmergencyPollInterval time.Duration // poll interval in emergency mode, default 30s
	Options               Options
}

func (c Config) pollInterval(emergency bool) time.Duration {
	if emergency {
		if c.EmergencyPollInterval > 0 {
			return c.EmergencyPollInterval
		}
		return 30 * time.Second
	}

	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return 60 * time.Second
}

// Sampler filters and smooths raw provider fixes into a position
// stream. It runs a continuous watch for responsiveness plus a periodic
// one-shot poll as a freshness floor, and retries transient failures
// with exponential backoff.
type Sampler struct {
	cfg      Config
	provider Provider

	onPosition func(geo.Fix)
	onError    func(*ProviderError)

	mu          sync.Mutex
	running     bool
	emergency   bool
	window      []geo.Fix
	lastSpeed   *float64
	lastHeading *float64
	patterns    []MovementPattern
	retryCount  int

	watchHandle   int
	pollTicker    *time.Ticker
	pollKill      chan struct{}
	debounceTimer *time.Timer
	retryTimer    *time.Timer
	wg            sync.WaitGroup
}

// New builds a sampler. onPosition receives filtered (and, once the
// window fills, averaged) fixes; onError receives structured failures.
func New(cfg Config, provider Provider, onPosition func(geo.Fix), onError func(*ProviderError)) *Sampler {
	return &Sampler{
		cfg:        cfg,
		provider:   provider,
		onPosition: onPosition,
		onError:    onError,
		window:     make([]geo.Fix, 0, WindowSize),
	}
}

// Start begins watching and polling. Calling Start on a running sampler
// is a no-op.
func (s *Sampler) Start(emergency bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.emergency = emergency
	s.pollTicker = time.NewTicker(s.cfg.pollInterval(emergency))
	s.pollKill = make(chan struct{})
	s.mu.Unlock()

	handle, err := s.provider.WatchPosition(s.handleFix, s.handleError, s.cfg.Options)
	if err != nil {
		s.Stop()
		return err
	}

	s.mu.Lock()
	s.watchHandle = handle
	ticker := s.pollTicker
	kill := s.pollKill
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-kill:
				return
			case <-ticker.C:
				s.provider.GetCurrentPosition(s.handleFix, s.handleError, s.cfg.Options)
			}
		}
	}()

	log.Printf("sampler: started (emergency=%v, poll interval %v)", emergency, s.cfg.pollInterval(emergency))
	return nil
}

// Stop cancels the watch, the poll ticker and any pending debounce or
// retry timer. Safe to call more than once.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false

	if s.watchHandle != 0 {
		s.provider.ClearWatch(s.watchHandle)
		s.watchHandle = 0
	}
	if s.pollTicker != nil {
		s.pollTicker.Stop()
	}
	if s.pollKill != nil {
		close(s.pollKill)
		s.pollKill = nil
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.window = s.window[:0]
	s.lastSpeed = nil
	s.lastHeading = nil
	s.patterns = nil
	s.retryCount = 0
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("sampler: stopped")
}

// SetEmergencyMode tightens or relaxes the poll interval in place.
func (s *Sampler) SetEmergencyMode(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emergency == active {
		return
	}
	s.emergency = active
	if s.running && s.pollTicker != nil {
		s.pollTicker.Reset(s.cfg.pollInterval(active))
	}
}

// Patterns returns a copy of the retained movement patterns.
func (s *Sampler) Patterns() []MovementPattern {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MovementPattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

func (s *Sampler) handleFix(fix geo.Fix) {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		return
	}

	// Any successful fix resets the backoff.
	s.retryCount = 0
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}

	if fix.Accuracy > MinAccuracyMeters {
		s.mu.Unlock()
		return
	}

	s.window = append(s.window, fix)
	if len(s.window) > WindowSize {
		s.window = s.window[1:]
	}

	s.deriveMovement()

	if len(s.window) == WindowSize {
		avg := s.average()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
			s.debounceTimer = nil
		}
		s.mu.Unlock()
		s.onPosition(avg)
		return
	}

	// Window not full yet: emit the raw fix, debounced to coalesce
	// bursts of readings.
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(EmitDebounce, func() {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			s.onPosition(fix)
		}
	})
	s.mu.Unlock()
}

// average computes the arithmetic mean of the window. Caller holds mu.
func (s *Sampler) average() geo.Fix {
	var lat, lon, acc float64
	for _, f := range s.window {
		lat += f.Latitude
		lon += f.Longitude
		acc += f.Accuracy
	}

	n := float64(len(s.window))
	return geo.Fix{
		Latitude:  lat / n,
		Longitude: lon / n,
		Accuracy:  acc / n,
		Timestamp: s.window[len(s.window)-1].Timestamp,
	}
}

// deriveMovement computes speed and heading from the last two accepted
// fixes. In emergency mode the reading is retained and a jump in speed
// or heading is logged as a diagnostic. Caller holds mu.
func (s *Sampler) deriveMovement() {
	if len(s.window) < 2 {
		return
	}

	prev := s.window[len(s.window)-2]
	curr := s.window[len(s.window)-1]
	speed := geo.Speed(prev.Latitude, prev.Longitude, prev.Timestamp, curr.Latitude, curr.Longitude, curr.Timestamp)
	heading := geo.Bearing(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude)

	if s.emergency {
		pattern := MovementPattern{Speed: speed, Heading: heading, Timestamp: time.Now()}
		s.patterns = append(s.patterns, pattern)
		if len(s.patterns) > maxPatterns {
			s.patterns = s.patterns[len(s.patterns)-maxPatterns:]
		}

		if s.lastSpeed != nil && s.lastHeading != nil {
			speedDiff := math.Abs(speed - *s.lastSpeed)
			headingDiff := math.Abs(heading - *s.lastHeading)
			if speedDiff > anomalySpeedJump || headingDiff > anomalyHeadingJump {
				log.Printf("sampler: unusual movement detected (speed jump %.1f m/s, heading jump %.1f deg)", speedDiff, headingDiff)
			}
		}
	}

	s.lastSpeed = &speed
	s.lastHeading = &heading
}

func (s *Sampler) handleError(perr *ProviderError) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	if perr.Code == CodePermissionDenied {
		perr = &ProviderError{
			Code:    perr.Code,
			Message: "Location access denied. Please enable location services.",
		}
	}

	retry := perr.Retryable() && s.retryCount < MaxRetries
	var backoff time.Duration
	if retry {
		backoff = time.Duration(math.Pow(2, float64(s.retryCount))) * time.Second
		s.retryCount++
		if s.retryTimer != nil {
			s.retryTimer.Stop()
		}
		s.retryTimer = time.AfterFunc(backoff, func() {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if running {
				s.provider.GetCurrentPosition(s.handleFix, s.handleError, s.cfg.Options)
			}
		})
	}
	s.mu.Unlock()

	if retry {
		log.Printf("sampler: location error %d (%s), retrying in %v", perr.Code, perr.Message, backoff)
	} else {
		log.Printf("sampler: location error %d (%s), giving up", perr.Code, perr.Message)
	}

	s.onError(perr)
}
