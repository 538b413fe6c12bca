package notifications

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// DeliveryFees is the flat-rate table shown on order emails: one rate for the
// capital region and one for everywhere else.
type DeliveryFees struct {
	CapitalRegion string
	Capital       decimal.Decimal
	Standard      decimal.Decimal
}

func DeliveryFeesFromConfig(cfg config.DeliveryConfig) DeliveryFees {
	return DeliveryFees{
		CapitalRegion: cfg.CapitalRegion,
		Capital:       cfg.CapitalFee,
		Standard:      cfg.StandardFee,
	}
}

// For returns the fee for a shipping region. Matching is case-insensitive.
func (f DeliveryFees) For(region string) decimal.Decimal {
	capital := strings.TrimSpace(f.CapitalRegion)
	if capital != "" && strings.EqualFold(strings.TrimSpace(region), capital) {
		return f.Capital
	}
	return f.Standard
}
