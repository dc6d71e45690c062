package service

import "time"

// Clock supplies the current time to lockout decisions.
type Clock interface {
	Now() time.Time
}
