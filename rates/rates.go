// Package rates models the tariff forecast consumed by the optimiser: a
// finite, ascending, non-overlapping sequence of rate points, a provider
// boundary interface, and a rate extender that fills a future horizon with
// per-time-of-day median fallback when the provider's data ends early.
//
// Grounded on original_source's core/series/extend.rs (extend_grid_rates)
// and the donor's modo package (HTTP-polled provider shape).
package rates

import (
	"fmt"
	"time"

	"github.com/cepro/battsched/coreerr"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/timeinterval"
)

// Point is a single rate-point: an interval paired with the cost-per-energy
// rate applicable throughout it.
type Point struct {
	Interval timeinterval.Interval
	Rate     quantity.Rate
}

// Provider is the boundary interface the core consumes to fetch a tariff
// forecast for a local calendar date. Implementations return a sorted,
// non-overlapping sequence at their own Granularity (tariff.Modo uses
// 30 min).
type Provider interface {
	RatesFor(date time.Time) ([]Point, error)
	// Granularity is the provider's native interval spacing, used by
	// Extend to align synthetic points.
	Granularity() time.Duration
}

// Statistics is a per-time-of-day median rate table used as a fallback once
// a provider's real data runs out. Keys are seconds since local midnight,
// aligned to the provider's granularity.
type Statistics struct {
	MedianByTimeOfDay map[int]quantity.Rate
	Granularity       time.Duration
}

// MedianAt returns the median rate for the time-of-day of t, and whether
// one is known.
func (s Statistics) MedianAt(t time.Time) (quantity.Rate, bool) {
	key := alignedSecondsOfDay(t, s.Granularity)
	r, ok := s.MedianByTimeOfDay[key]
	return r, ok
}

func alignedSecondsOfDay(t time.Time, granularity time.Duration) int {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	sinceMidnight := t.Sub(midnight)
	step := int64(granularity.Seconds())
	if step <= 0 {
		step = 1
	}
	aligned := (int64(sinceMidnight.Seconds()) / step) * step
	return int(aligned)
}

// Extend appends synthetic rate points to points, starting at the next
// aligned boundary after the last known point (or the aligned floor of
// forecastStart when points is empty), using stats' median-by-time-of-day.
// It stops at the first time-of-day whose median is absent, or once it
// reaches forecastEnd, whichever comes first. The returned slice remains
// time-ordered and non-overlapping.
func Extend(points []Point, stats Statistics, granularity time.Duration, forecastStart, forecastEnd time.Time) ([]Point, error) {
	if granularity <= 0 {
		return nil, fmt.Errorf("%w: rate extension granularity must be positive", coreerr.ErrInvalidInput)
	}

	var cursor time.Time
	if len(points) > 0 {
		cursor = points[len(points)-1].Interval.End
	} else {
		midnight := time.Date(forecastStart.Year(), forecastStart.Month(), forecastStart.Day(), 0, 0, 0, 0, forecastStart.Location())
		cursor = midnight.Add(time.Duration(alignedSecondsOfDay(forecastStart, granularity)) * time.Second)
	}

	result := append([]Point(nil), points...)
	for cursor.Before(forecastEnd) {
		median, ok := stats.MedianAt(cursor)
		if !ok {
			break
		}
		next := cursor.Add(granularity)
		if next.After(forecastEnd) {
			next = forecastEnd
		}
		iv, err := timeinterval.New(cursor, next)
		if err != nil {
			break
		}
		result = append(result, Point{Interval: iv, Rate: median})
		cursor = next
	}

	return result, nil
}
