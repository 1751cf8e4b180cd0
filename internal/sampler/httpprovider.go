package sampler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/geo"
)

// buildURL constructs a properly formatted URL with the given endpoint and URI
func buildURL(endpoint string, uri string) string {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return "https://" + endpoint + uri
	}
	return endpoint + uri
}

// fixWireEntry is the JSON layout the device location endpoint returns.
type fixWireEntry struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

// HTTPProvider implements Provider against an HTTP device-location
// endpoint. A watch is a goroutine polling the endpoint on a short
// ticker; GetCurrentPosition is a single request.
type HTTPProvider struct {
	Endpoint string
	Apikey   string
	Uri      string
	Interval int // watch poll interval in seconds
	Debug    bool

	mu         sync.Mutex
	nextHandle int
	watches    map[int]chan struct{}
}

func NewHTTPProvider(endpoint string, apikey string, uri string, interval int, debug bool) *HTTPProvider {
	if interval <= 0 {
		interval = 10
	}

	return &HTTPProvider{
		Endpoint: endpoint,
		Apikey:   apikey,
		Uri:      uri,
		Interval: interval,
		Debug:    debug,
		watches:  make(map[int]chan struct{}),
	}
}

func (p *HTTPProvider) runRequest(opts Options) (*geo.Fix, *ProviderError) {
	// build request
	reqURL := buildURL(p.Endpoint, p.Uri)
	if opts.EnableHighAccuracy {
		if strings.Contains(reqURL, "?") {
			reqURL += "&high_accuracy=1"
		} else {
			reqURL += "?high_accuracy=1"
		}
	}

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &ProviderError{Code: CodePositionUnavailable, Message: err.Error()}
	}

	// set authentication header
	tokenStr := fmt.Sprintf("token %s", p.Apikey)
	req.Header.Set("Authorization", tokenStr)

	// start request
	if p.Debug {
		log.Printf("provider: start HTTP GET request: url %s", reqURL)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		code := CodePositionUnavailable
		if strings.Contains(err.Error(), "Timeout") || strings.Contains(err.Error(), "deadline") {
			code = CodeTimeout
		}
		return nil, &ProviderError{Code: code, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &ProviderError{Code: CodePermissionDenied, Message: "location access denied"}
	case resp.StatusCode != http.StatusOK:
		msg := fmt.Sprintf("endpoint returned status code %d", resp.StatusCode)
		return nil, &ProviderError{Code: CodePositionUnavailable, Message: msg}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Code: CodePositionUnavailable, Message: err.Error()}
	}

	entry := &fixWireEntry{}
	err = json.Unmarshal(body, entry)
	if err != nil {
		return nil, &ProviderError{Code: CodePositionUnavailable, Message: err.Error()}
	}

	fix := &geo.Fix{
		Latitude:  entry.Latitude,
		Longitude: entry.Longitude,
		Accuracy:  entry.Accuracy,
		Timestamp: time.UnixMilli(entry.Timestamp),
	}

	return fix, nil
}

func (p *HTTPProvider) WatchPosition(onFix func(geo.Fix), onErr func(*ProviderError), opts Options) (int, error) {
	p.mu.Lock()
	p.nextHandle++
	handle := p.nextHandle
	killSig := make(chan struct{})
	p.watches[handle] = killSig
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Duration(p.Interval) * time.Second)
		defer ticker.Stop()

		for {
			fix, perr := p.runRequest(opts)
			if perr != nil {
				onErr(perr)
			} else {
				onFix(*fix)
			}

			select {
			case <-killSig:
				log.Printf("provider: watch#%d finished", handle)
				return
			case <-ticker.C:
			}
		}
	}()

	return handle, nil
}

func (p *HTTPProvider) GetCurrentPosition(onFix func(geo.Fix), onErr func(*ProviderError), opts Options) {
	go func() {
		fix, perr := p.runRequest(opts)
		if perr != nil {
			onErr(perr)
			return
		}

		onFix(*fix)
	}()
}

func (p *HTTPProvider) ClearWatch(handle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	killSig, ok := p.watches[handle]
	if ok {
		close(killSig)
		delete(p.watches, handle)
	}
}
