package domain

import "time"

// ItemSnapshot is an immutable point-in-time read of one catalog item.
type ItemSnapshot struct {
	Name      string
	UnitPrice int
	Stock     int
	ReadAt    time.Time
}
