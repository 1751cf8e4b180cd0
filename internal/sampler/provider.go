package sampler

import (
	"fmt"

	"github.com/Kalpa111334/Hr-Management/internal/geo"
)

// Provider error codes, mirroring the platform geolocation codes.
const (
	CodeUnsupported         = 0
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// ProviderError is a structured location failure. PermissionDenied is
// terminal and is never retried; the other codes are transient.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("location error %d: %s", e.Code, e.Message)
}

// Retryable reports whether a backoff retry makes sense for this error.
func (e *ProviderError) Retryable() bool {
	return e.Code != CodePermissionDenied
}

// Options controls how the provider acquires fixes.
type Options struct {
	EnableHighAccuracy bool
}

// Provider abstracts the platform location source. A watch delivers
// fixes continuously until cleared; GetCurrentPosition is a one-shot.
type Provider interface {
	WatchPosition(onFix func(geo.Fix), onErr func(*ProviderError), opts Options) (int, error)
	GetCurrentPosition(onFix func(geo.Fix), onErr func(*ProviderError), opts Options)
	ClearWatch(handle int)
}
