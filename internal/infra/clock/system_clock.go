// Package clock provides the wall-clock implementation of service.Clock.
package clock

import (
	"time"

	"gatekeeper/internal/domain/service"
)

type systemClock struct{}

// NewSystemClock returns a clock backed by time.Now in UTC.
func NewSystemClock() service.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
