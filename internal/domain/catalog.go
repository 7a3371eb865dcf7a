package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a gift the fulfillment provider can deliver. Price is the
// provider's money price; the point cost is derived at redemption time via
// the configured conversion rate, rounding up.
type CatalogItem struct {
	ID                 int32           `json:"id"`
	ExternalProductRef string          `json:"external_product_ref"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	Active             bool            `json:"active"`
	CreatedOn          time.Time       `json:"created_on"`
}
