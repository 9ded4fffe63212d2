// Package fake provides in-memory calendar and photo providers for tests
// and local development. Real providers live on the mobile side of the
// interop boundary and feed the same ports.
package fake

import (
	"context"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// Calendar serves a fixed slice of events. Set Denied to simulate the user
// having refused calendar access.
type Calendar struct {
	Items  []collect.CalendarEvent
	Denied bool
}

func (c *Calendar) Events(_ context.Context, start, end time.Time) ([]collect.CalendarEvent, error) {
	if c.Denied {
		return nil, domain.ErrPermissionDenied
	}
	var out []collect.CalendarEvent
	for _, ev := range c.Items {
		day := domain.DateOf(ev.Start)
		if !day.Before(start) && !day.After(end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Photos serves a fixed slice of photos. Set Denied to simulate the user
// having refused photo library access.
type Photos struct {
	Items  []collect.Photo
	Denied bool
}

func (p *Photos) Photos(_ context.Context, start, end time.Time) ([]collect.Photo, error) {
	if p.Denied {
		return nil, domain.ErrPermissionDenied
	}
	var out []collect.Photo
	for _, ph := range p.Items {
		day := domain.DateOf(ph.TakenAt)
		if !day.Before(start) && !day.After(end) {
			out = append(out, ph)
		}
	}
	return out, nil
}
