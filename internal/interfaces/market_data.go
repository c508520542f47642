package interfaces

import (
	"context"

	"github.com/ternarybob/insightx/internal/models"
)

// MarketDataService provides historical price data for ticker symbols.
// Implementations normalize friendly names ("apple") to canonical symbols
// before fetching.
type MarketDataService interface {
	// GetPriceData retrieves daily bars for a symbol over the given period.
	// Returns models.NoDataFoundError when the symbol is unknown or the
	// provider returns no usable bars.
	GetPriceData(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error)
}
