package collect

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// CalendarEvent is one event from the device calendar provider.
type CalendarEvent struct {
	ID       string
	Title    string
	Location string
	Start    time.Time
	End      time.Time
}

// CalendarProvider is the port to the device calendar. It returns every
// event starting inside [start, end]. Implementations return
// domain.ErrPermissionDenied when calendar access has not been granted, and
// an empty slice (not an error) when there is simply no data.
type CalendarProvider interface {
	Events(ctx context.Context, start, end time.Time) ([]CalendarEvent, error)
}

// CalendarCollector scans calendar events and keeps the ones whose title and
// location text look travel-related. Each qualifying event becomes one
// signal carrying the event's own start/end span and its free text; no GPS
// is involved on this path.
type CalendarCollector struct {
	provider CalendarProvider
}

// NewCalendarCollector constructs a collector over the given provider.
func NewCalendarCollector(p CalendarProvider) *CalendarCollector {
	return &CalendarCollector{provider: p}
}

// Source implements Collector.
func (c *CalendarCollector) Source() domain.Source {
	return domain.SourceCalendarImport
}

// Scan implements Collector.
func (c *CalendarCollector) Scan(ctx context.Context, r DateRange, emit func(Batch) error) error {
	events, err := c.provider.Events(ctx, r.Start, r.End)
	if err != nil {
		return fmt.Errorf("collect.CalendarCollector.Scan: %w", err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	total := len(events)
	var pending []RawSignal
	for i, ev := range events {
		text := strings.TrimSpace(ev.Title + " " + ev.Location)
		if isTravelEvent(text) {
			end := ev.End
			if end.Before(ev.Start) {
				end = ev.Start
			}
			pending = append(pending, RawSignal{
				Date:      domain.DateOf(ev.Start),
				EndDate:   domain.DateOf(end),
				Text:      text,
				SourceRef: ev.ID,
			})
		}

		if (i+1)%batchSize == 0 {
			if err := flush(ctx, emit, &pending, i+1, total); err != nil {
				return err
			}
		}
	}
	return flush(ctx, emit, &pending, total, total)
}

// flush hands accumulated signals to emit and checks for cancellation.
// It always emits, even with zero new signals, so the progress bar advances
// through stretches of non-matching items.
func flush(ctx context.Context, emit func(Batch) error, pending *[]RawSignal, scanned, total int) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrCancelled
	}
	b := Batch{Signals: *pending, Scanned: scanned, Total: total}
	*pending = nil
	if err := emit(b); err != nil {
		return err
	}
	return nil
}
