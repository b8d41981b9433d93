package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/perfumichi/storefront/internal/cart"
	"github.com/perfumichi/storefront/pkg/config"
	pkgerrors "github.com/perfumichi/storefront/pkg/errors"
	"github.com/perfumichi/storefront/pkg/kv"
	"github.com/perfumichi/storefront/pkg/logger"
)

const submitGuardPrefix = "checkout_submit:"

// SessionCreator is the subset of the Stripe API the checkout flow uses.
type SessionCreator interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

type cartReader interface {
	Load(ctx context.Context, token string) ([]cart.Item, error)
	SavePendingOrder(ctx context.Context, token string) (*cart.PendingOrder, error)
}

// Service creates Stripe Checkout Sessions from a stored cart.
type Service interface {
	CreateSession(ctx context.Context, token, origin string) (string, error)
}

type service struct {
	carts   cartReader
	creator SessionCreator
	guard   kv.Store
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewService wires the checkout flow.
func NewService(carts cartReader, creator SessionCreator, guard kv.Store, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if creator == nil {
		return nil, fmt.Errorf("session creator required")
	}
	if guard == nil {
		return nil, fmt.Errorf("guard store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, creator: creator, guard: guard, cfg: cfg, logg: logg}, nil
}

// CreateSession builds the line items for the token's cart and opens a Stripe
// Checkout Session. An empty cart is rejected before any external call. The
// per-token submission guard blocks concurrent submissions and is released
// whether or not the session was created.
func (s *service) CreateSession(ctx context.Context, token, origin string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart token is required")
	}

	items, err := s.carts.Load(ctx, token)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	guardKey := submitGuardPrefix + token
	acquired, err := s.guard.SetNX(ctx, guardKey, "1", s.cfg.SubmitGuardTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring submission guard")
	}
	if !acquired {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	defer func() {
		if delErr := s.guard.Del(ctx, guardKey); delErr != nil {
			s.logg.Error(ctx, "releasing submission guard failed", delErr)
		}
	}()

	if _, err := s.carts.SavePendingOrder(ctx, token); err != nil {
		return "", err
	}

	if strings.TrimSpace(origin) == "" {
		origin = s.cfg.FallbackOrigin
	}

	lines, _ := BuildLineItems(items, s.cfg)
	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lines,
		SuccessURL: stripe.String(origin + "/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(origin + "/cancel.html"),
		Locale:     stripe.String(s.cfg.Locale),
		BillingAddressCollection: stripe.String(
			string(stripe.CheckoutSessionBillingAddressCollectionRequired),
		),
		ShippingAddressCollection: &stripe.CheckoutSessionCreateShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(s.cfg.AllowedCountries),
		},
	}

	created, err := s.creator.Create(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating checkout session")
	}
	if created == nil || created.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session has no redirect url")
	}
	return created.URL, nil
}
