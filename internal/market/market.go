package market

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
)

var ErrNoData = errors.New("market series has no data points")

// PriceFeed supplies the gold price and exchange rate series shown on the
// news page.
type PriceFeed interface {
	Current(ctx context.Context) (domain.MarketSnapshot, error)
}

// Summarize reduces a series to its latest value and the change since
// the first point of the day.
func Summarize(series domain.MarketSeries) (domain.MarketSummary, error) {
	if len(series.Points) == 0 {
		return domain.MarketSummary{}, ErrNoData
	}
	start := series.Points[0].Value
	current := series.Points[len(series.Points)-1].Value
	change := current.Sub(start)

	percent := decimal.Zero
	if !start.IsZero() {
		percent = change.Div(start).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return domain.MarketSummary{
		Label:            series.Label,
		Unit:             series.Unit,
		Current:          current,
		DayStart:         start,
		DayChange:        change,
		DayChangePercent: percent,
		Points:           append([]domain.PricePoint(nil), series.Points...),
	}, nil
}

func News(snapshot domain.MarketSnapshot) (domain.NewsResponse, error) {
	gold, err := Summarize(snapshot.Gold)
	if err != nil {
		return domain.NewsResponse{}, err
	}
	rate, err := Summarize(snapshot.ExchangeRate)
	if err != nil {
		return domain.NewsResponse{}, err
	}
	return domain.NewsResponse{
		Gold:         gold,
		ExchangeRate: rate,
		UpdatedAt:    snapshot.FetchedAt.UTC().Format(time.RFC3339),
	}, nil
}
