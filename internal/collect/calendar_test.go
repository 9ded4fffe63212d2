package collect_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/collect/fake"
	"github.com/mhartwig/schengen-keeper/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fullRange() collect.DateRange {
	return collect.DateRange{Start: day(2024, 1, 1), End: day(2024, 12, 31)}
}

// collectAll drains a scan into a flat signal slice.
func collectAll(t *testing.T, c collect.Collector, r collect.DateRange) []collect.RawSignal {
	t.Helper()
	var signals []collect.RawSignal
	err := c.Scan(context.Background(), r, func(b collect.Batch) error {
		signals = append(signals, b.Signals...)
		return nil
	})
	require.NoError(t, err)
	return signals
}

func event(id, title, location string, start, end time.Time) collect.CalendarEvent {
	return collect.CalendarEvent{ID: id, Title: title, Location: location, Start: start, End: end}
}

func TestCalendarCollector_KeepsTravelEvents(t *testing.T) {
	provider := &fake.Calendar{Items: []collect.CalendarEvent{
		event("e1", "Flight to Paris", "", day(2024, 3, 1), day(2024, 3, 1)),
		event("e2", "Dentist", "", day(2024, 3, 2), day(2024, 3, 2)),
		event("e3", "Team offsite", "Barcelona", day(2024, 4, 10), day(2024, 4, 12)),
	}}
	c := collect.NewCalendarCollector(provider)

	signals := collectAll(t, c, fullRange())

	require.Len(t, signals, 2, "the dentist appointment is not travel")
	assert.Equal(t, "e1", signals[0].SourceRef)
	assert.Equal(t, "e3", signals[1].SourceRef)
	assert.True(t, signals[1].EndDate.Equal(day(2024, 4, 12)), "calendar signals keep the event span")
	assert.Contains(t, signals[1].Text, "Barcelona")
	assert.False(t, signals[1].HasCoords, "calendar signals never carry GPS")
}

func TestCalendarCollector_Source(t *testing.T) {
	c := collect.NewCalendarCollector(&fake.Calendar{})
	assert.Equal(t, domain.SourceCalendarImport, c.Source())
}

func TestCalendarCollector_InvertedEndClamped(t *testing.T) {
	provider := &fake.Calendar{Items: []collect.CalendarEvent{
		event("e1", "Hotel in Rome", "", day(2024, 5, 10), day(2024, 5, 8)),
	}}
	c := collect.NewCalendarCollector(provider)

	signals := collectAll(t, c, fullRange())

	require.Len(t, signals, 1)
	assert.True(t, signals[0].EndDate.Equal(signals[0].Date), "end before start collapses to a one-day signal")
}

func TestCalendarCollector_PermissionDenied(t *testing.T) {
	c := collect.NewCalendarCollector(&fake.Calendar{Denied: true})

	err := c.Scan(context.Background(), fullRange(), func(collect.Batch) error { return nil })

	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestCalendarCollector_ProgressCountsAllEvents(t *testing.T) {
	// 60 events, only some travel-related: progress must advance through
	// the non-matching ones too.
	var items []collect.CalendarEvent
	for i := 0; i < 60; i++ {
		title := "Standup"
		if i%10 == 0 {
			title = "Trip planning"
		}
		d := day(2024, 3, 1).AddDate(0, 0, i%28)
		items = append(items, event(fmt.Sprintf("e%d", i), title, "", d, d))
	}
	c := collect.NewCalendarCollector(&fake.Calendar{Items: items})

	var batches []collect.Batch
	err := c.Scan(context.Background(), fullRange(), func(b collect.Batch) error {
		batches = append(batches, b)
		return nil
	})

	require.NoError(t, err)
	require.NotEmpty(t, batches)
	last := batches[len(batches)-1]
	assert.Equal(t, 60, last.Scanned)
	assert.Equal(t, 60, last.Total)
	for i := 1; i < len(batches); i++ {
		assert.GreaterOrEqual(t, batches[i].Scanned, batches[i-1].Scanned, "progress is monotonic")
	}
}

func TestCalendarCollector_CancelledMidScan(t *testing.T) {
	var items []collect.CalendarEvent
	for i := 0; i < 100; i++ {
		d := day(2024, 3, 1)
		items = append(items, event(fmt.Sprintf("e%d", i), "Flight", "", d, d))
	}
	c := collect.NewCalendarCollector(&fake.Calendar{Items: items})

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Scan(ctx, fullRange(), func(b collect.Batch) error {
		cancel() // cancel after the first batch lands
		return ctx.Err()
	})

	assert.Error(t, err)
}

func TestCalendarCollector_EmitErrorAborts(t *testing.T) {
	provider := &fake.Calendar{Items: []collect.CalendarEvent{
		event("e1", "Flight", "", day(2024, 3, 1), day(2024, 3, 1)),
	}}
	c := collect.NewCalendarCollector(provider)

	sentinel := fmt.Errorf("stop")
	err := c.Scan(context.Background(), fullRange(), func(collect.Batch) error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
}
