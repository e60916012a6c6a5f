// Package tariff implements a concrete rates.Provider backed by a real
// dynamic-imbalance-price HTTP API, supplementing spec's abstract tariff
// provider boundary with one working implementation.
//
// Adapted from the donor's modo package: same poll loop and
// sync.RWMutex-guarded cache shape, but accumulating settlement-period
// prices into a per-day rate table instead of exposing only the latest
// value.
package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cepro/battsched/coreerr"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/rates"
	"github.com/cepro/battsched/timeinterval"
)

const imbalancePriceURL = "https://admin.modo.energy/v1/data-api/widgets/system-price/"

// settlementPeriodDuration is Modo's native granularity.
const settlementPeriodDuration = 30 * time.Minute

// Modo polls Modo's imbalance-price API and caches it by settlement period,
// implementing rates.Provider.
type Modo struct {
	httpClient http.Client

	lock  sync.RWMutex
	cache map[time.Time]quantity.Rate // settlement period start -> rate

	logger *slog.Logger
}

type imbalancePriceResponse struct {
	Date              string  `json:"date"`
	SettlementPeriod  int     `json:"settlement_period"`
	PricePoundsPerMwh float64 `json:"system_price"` // Modo returns imbalance price in currency/MWh
}

// NewModo returns a Modo provider using the given HTTP client.
func NewModo(httpClient http.Client) *Modo {
	return &Modo{
		httpClient: httpClient,
		cache:      make(map[time.Time]quantity.Rate),
		logger:     slog.Default().With("provider", "modo"),
	}
}

// Run loops forever polling Modo's imbalance price every period and caching
// it against its settlement period. Exits when ctx is cancelled.
func (m *Modo) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.update(); err != nil {
				m.logger.Error("failed to update imbalance price", "error", err)
			}
		}
	}
}

func (m *Modo) update() error {
	resp, err := m.requestImbalancePrice()
	if err != nil {
		return err
	}

	spStart, err := timeOfSettlementPeriod(resp.Date, resp.SettlementPeriod)
	if err != nil {
		return fmt.Errorf("parse settlement period: %w", err)
	}

	// Modo reports price in currency per MWh; Rate is currency per watt-hour.
	rate, err := quantity.NewRate(resp.PricePoundsPerMwh / 1e6)
	if err != nil {
		return fmt.Errorf("build rate: %w", err)
	}

	m.lock.Lock()
	m.cache[spStart] = rate
	m.lock.Unlock()

	m.logger.Info("updated imbalance price", "settlement_period_start", spStart, "rate", rate)
	return nil
}

// RatesFor returns every cached settlement-period rate falling on date's
// local calendar day, in ascending order. It returns coreerr.ErrEmptyForecast
// if nothing has been cached for that day yet.
func (m *Modo) RatesFor(date time.Time) ([]rates.Point, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var points []rates.Point
	for i := 0; i < int(24*time.Hour/settlementPeriodDuration); i++ {
		spStart := dayStart.Add(time.Duration(i) * settlementPeriodDuration)
		rate, ok := m.cache[spStart]
		if !ok {
			continue
		}
		iv, err := timeinterval.New(spStart, spStart.Add(settlementPeriodDuration))
		if err != nil {
			continue
		}
		points = append(points, rates.Point{Interval: iv, Rate: rate})
	}

	if len(points) == 0 {
		return nil, coreerr.ErrEmptyForecast
	}
	return points, nil
}

// Granularity returns Modo's native settlement-period spacing.
func (m *Modo) Granularity() time.Duration {
	return settlementPeriodDuration
}

func (m *Modo) requestImbalancePrice() (imbalancePriceResponse, error) {
	resp, err := m.httpClient.Get(imbalancePriceURL)
	if err != nil {
		return imbalancePriceResponse{}, fmt.Errorf("get system price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return imbalancePriceResponse{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed imbalancePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return imbalancePriceResponse{}, fmt.Errorf("parse body: %w", err)
	}
	return parsed, nil
}

// timeOfSettlementPeriod returns the start time of the 30-minute settlement
// period denoted by the given date and SP number.
func timeOfSettlementPeriod(dateStr string, settlementPeriod int) (time.Time, error) {
	if settlementPeriod < 1 || settlementPeriod > 50 {
		return time.Time{}, fmt.Errorf("invalid settlement period: %d", settlementPeriod)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.Time{}, fmt.Errorf("load london tz: %w", err)
	}

	t := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, london)
	t = t.Add(time.Duration(settlementPeriod-1) * settlementPeriodDuration)

	return t, nil
}
