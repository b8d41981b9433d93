package checkout

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/perfumichi/storefront/internal/cart"
	"github.com/perfumichi/storefront/pkg/config"
	"github.com/perfumichi/storefront/pkg/money"
)

// Shipping line shown to the buyer when the order stays under the free
// shipping threshold.
const (
	ShippingName        = "Envío estándar"
	ShippingDescription = "Entrega en 24-48h (Gratis a partir de 80€)"
)

func fallbackDescription(size string) string {
	return fmt.Sprintf("Decant %s - Perfume de alta calidad", size)
}

// BuildLineItems expands the cart into Stripe line items. An entry with
// quantity n becomes n single-quantity lines. The subtotal in minor units is
// returned alongside so the caller can reason about the shipping rule that
// was applied.
func BuildLineItems(items []cart.Item, cfg config.CheckoutConfig) ([]*stripe.CheckoutSessionCreateLineItemParams, int64) {
	lines := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(items))
	var subtotal int64

	for _, item := range items {
		unitAmount := money.ToMinorUnits(item.Price)
		description := item.Description
		if description == "" {
			description = fallbackDescription(item.Size)
		}
		var images []*string
		if strings.HasPrefix(item.ImageURL, "http") {
			images = stripe.StringSlice([]string{item.ImageURL})
		}

		for q := 0; q < item.Quantity; q++ {
			lines = append(lines, &stripe.CheckoutSessionCreateLineItemParams{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(cfg.Currency),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(item.Title),
						Description: stripe.String(description),
						Images:      images,
					},
				},
			})
			subtotal += unitAmount
		}
	}

	if len(lines) > 0 && subtotal < cfg.FreeShippingThreshold {
		lines = append(lines, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(cfg.Currency),
				UnitAmount: stripe.Int64(cfg.ShippingCostCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name:        stripe.String(ShippingName),
					Description: stripe.String(ShippingDescription),
				},
			},
		})
	}

	return lines, subtotal
}
