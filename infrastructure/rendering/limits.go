package rendering

import (
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds a single render
const DefaultTimeout = 10 * time.Second

// Limits holds render settings that may change while the process runs
type Limits struct {
	timeout atomic.Int64
}

// NewLimits creates limits with the given timeout, or DefaultTimeout if d <= 0
func NewLimits(d time.Duration) *Limits {
	l := &Limits{}
	l.SetTimeout(d)
	return l
}

// Timeout returns the current render timeout
func (l *Limits) Timeout() time.Duration {
	return time.Duration(l.timeout.Load())
}

// SetTimeout replaces the render timeout. Non-positive values reset to DefaultTimeout.
func (l *Limits) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	l.timeout.Store(int64(d))
}
