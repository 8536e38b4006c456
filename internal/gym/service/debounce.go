package service

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the minimum interval between two scans of the same
// code. Keyboard-wedge scanners fire the full code more than once per
// physical swipe; anything inside the window is the same swipe.
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer suppresses duplicate scans of the same code at the input
// boundary. It is the only guard against same-member double scans — the
// decision engine itself takes no locks.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether a scan of code at instant now should be processed,
// and records it if so. A scan inside the window of the previous accepted
// scan of the same code is suppressed and does not reset the window.
func (d *Debouncer) Allow(code string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.last[code]; ok && now.Sub(prev) < d.window {
		return false
	}

	// Keep the map from growing without bound on a long-lived kiosk.
	if len(d.last) > 4096 {
		for k, t := range d.last {
			if now.Sub(t) >= d.window {
				delete(d.last, k)
			}
		}
	}

	d.last[code] = now
	return true
}
