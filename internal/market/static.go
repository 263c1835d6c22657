package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
)

// StaticFeed serves a fixed trading day of hourly quotes. It stands in
// for a real market data provider.
type StaticFeed struct {
	now func() time.Time
}

func NewStaticFeed() *StaticFeed {
	return &StaticFeed{now: time.Now}
}

func (f *StaticFeed) Current(ctx context.Context) (domain.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.MarketSnapshot{}, err
	}
	return domain.MarketSnapshot{
		Gold: domain.MarketSeries{
			Label:  "World Gold Price (24K)",
			Unit:   "USD/oz",
			Points: hourly(goldQuotes),
		},
		ExchangeRate: domain.MarketSeries{
			Label:  "USD to MMK",
			Unit:   "MMK",
			Points: hourly(rateQuotes),
		},
		FetchedAt: f.now().UTC(),
	}, nil
}

var (
	goldQuotes = []string{"2089.50", "2091.20", "2088.75", "2092.30", "2090.15", "2094.80", "2093.50", "2095.25"}
	rateQuotes = []string{"2100.00", "2102.50", "2101.75", "2105.00", "2103.50", "2107.25", "2106.00", "2108.50"}
)

// hourly labels quotes from 08:00 and derives each point's change from
// the one before it.
func hourly(quotes []string) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(quotes))
	prev := decimal.Zero
	for i, q := range quotes {
		value := decimal.RequireFromString(q)
		change := decimal.Zero
		if i > 0 {
			change = value.Sub(prev)
		}
		points = append(points, domain.PricePoint{
			Time:   time.Date(0, 1, 1, 8+i, 0, 0, 0, time.UTC).Format("15:04"),
			Value:  value,
			Change: change,
		})
		prev = value
	}
	return points
}
