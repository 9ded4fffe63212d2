// Package filesource provides file-backed implementations of the collect
// provider ports. Device data crosses the interop boundary as JSON export
// files (one for calendar events, one for photo metadata); these providers
// read them on each scan so a re-exported file is picked up without a
// restart. A missing file means no data, not an error.
package filesource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// Calendar reads calendar events from a JSON export file.
type Calendar struct {
	Path string
}

type calendarEventJSON struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Events implements collect.CalendarProvider.
func (c *Calendar) Events(_ context.Context, start, end time.Time) ([]collect.CalendarEvent, error) {
	var raw []calendarEventJSON
	if err := readExport(c.Path, &raw); err != nil {
		return nil, fmt.Errorf("filesource.Calendar.Events: %w", err)
	}

	var out []collect.CalendarEvent
	for _, ev := range raw {
		// Compare on calendar days: the range bounds are dates, the export
		// carries full timestamps.
		day := domain.DateOf(ev.Start)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, collect.CalendarEvent{
			ID:       ev.ID,
			Title:    ev.Title,
			Location: ev.Location,
			Start:    ev.Start,
			End:      ev.End,
		})
	}
	return out, nil
}

// Photos reads photo metadata from a JSON export file.
type Photos struct {
	Path string
}

type photoJSON struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	// Lat/Lng are pointers so a genuinely untagged photo is distinguishable
	// from one taken at (0, 0).
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Photos implements collect.PhotoProvider.
func (p *Photos) Photos(_ context.Context, start, end time.Time) ([]collect.Photo, error) {
	var raw []photoJSON
	if err := readExport(p.Path, &raw); err != nil {
		return nil, fmt.Errorf("filesource.Photos.Photos: %w", err)
	}

	var out []collect.Photo
	for _, ph := range raw {
		day := domain.DateOf(ph.TakenAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		photo := collect.Photo{ID: ph.ID, TakenAt: ph.TakenAt}
		if ph.Lat != nil && ph.Lng != nil {
			photo.Lat = *ph.Lat
			photo.Lng = *ph.Lng
			photo.HasGPS = true
		}
		out = append(out, photo)
	}
	return out, nil
}

// readExport unmarshals the file at path into v. A missing file leaves v
// untouched.
func readExport(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}
