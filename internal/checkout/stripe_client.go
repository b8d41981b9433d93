package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/perfumichi/storefront/pkg/stripe"
)

type stripeSessionClient struct {
	api *pkgstripe.Client
}

// NewStripeSessionClient adapts the configured Stripe client to the
// SessionCreator the checkout service depends on.
func NewStripeSessionClient(api *pkgstripe.Client) SessionCreator {
	if api == nil {
		return nil
	}
	return &stripeSessionClient{api: api}
}

func (c *stripeSessionClient) Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	return c.api.API().V1CheckoutSessions.Create(ctx, params)
}
