package collect

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// Photo is one media item from the device photo library provider.
type Photo struct {
	ID      string
	TakenAt time.Time
	Lat     float64
	Lng     float64
	HasGPS  bool
}

// PhotoProvider is the port to the device photo library. It returns every
// photo captured inside [start, end], geotagged or not; filtering is the
// collector's job. Implementations return domain.ErrPermissionDenied when
// library access has not been granted.
type PhotoProvider interface {
	Photos(ctx context.Context, start, end time.Time) ([]Photo, error)
}

// PhotoCollector scans geotagged photos. Each photo with a GPS fix becomes
// one single-day signal carrying its coordinate; photos without GPS are
// never considered.
type PhotoCollector struct {
	provider PhotoProvider
}

// NewPhotoCollector constructs a collector over the given provider.
func NewPhotoCollector(p PhotoProvider) *PhotoCollector {
	return &PhotoCollector{provider: p}
}

// Source implements Collector.
func (c *PhotoCollector) Source() domain.Source {
	return domain.SourcePhotoImport
}

// Scan implements Collector.
func (c *PhotoCollector) Scan(ctx context.Context, r DateRange, emit func(Batch) error) error {
	photos, err := c.provider.Photos(ctx, r.Start, r.End)
	if err != nil {
		return fmt.Errorf("collect.PhotoCollector.Scan: %w", err)
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].TakenAt.Before(photos[j].TakenAt) })

	total := len(photos)
	var pending []RawSignal
	for i, ph := range photos {
		if ph.HasGPS {
			day := domain.DateOf(ph.TakenAt)
			pending = append(pending, RawSignal{
				Date:      day,
				EndDate:   day,
				Lat:       ph.Lat,
				Lng:       ph.Lng,
				HasCoords: true,
				SourceRef: ph.ID,
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
