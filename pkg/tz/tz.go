// Package tz holds the zone event dates are typed and displayed in.
package tz

import (
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultZone is used until Set is called.
const DefaultZone = "Europe/Paris"

var events atomic.Pointer[time.Location]

func init() {
	loc, err := time.LoadLocation(DefaultZone)
	if err != nil {
		panic("tz: load " + DefaultZone + ": " + err.Error())
	}
	events.Store(loc)
}

// Events returns the zone of event dates.
func Events() *time.Location {
	return events.Load()
}

// Set changes the zone of event dates. An empty name keeps the current one.
func Set(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("tz: %w", err)
	}
	events.Store(loc)
	return nil
}
