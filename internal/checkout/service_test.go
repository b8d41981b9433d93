package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/perfumichi/storefront/internal/cart"
	pkgerrors "github.com/perfumichi/storefront/pkg/errors"
	"github.com/perfumichi/storefront/pkg/kv"
	"github.com/perfumichi/storefront/pkg/logger"
)

type stubCarts struct {
	items      []cart.Item
	loadErr    error
	savedCalls int
}

func (s *stubCarts) Load(_ context.Context, _ string) ([]cart.Item, error) {
	return s.items, s.loadErr
}

func (s *stubCarts) SavePendingOrder(_ context.Context, _ string) (*cart.PendingOrder, error) {
	s.savedCalls++
	return &cart.PendingOrder{Items: s.items, Timestamp: time.Now()}, nil
}

type stubCreator struct {
	calls   int
	session *stripe.CheckoutSession
	err     error
	params  *stripe.CheckoutSessionCreateParams
}

func (s *stubCreator) Create(_ context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	s.calls++
	s.params = params
	return s.session, s.err
}

func newTestCheckout(t *testing.T, carts *stubCarts, creator *stubCreator) (Service, *kv.Memory) {
	t.Helper()
	guard := kv.NewMemory()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := testCheckoutConfig()
	cfg.SubmitGuardTTL = time.Minute
	svc, err := NewService(carts, creator, guard, cfg, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, guard
}

func cartItems() []cart.Item {
	return []cart.Item{{Title: "Oud Wood", Size: "5ml", Price: price("12.50"), Quantity: 2}}
}

func TestCreateSessionSuccess(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{items: cartItems()}
	creator := &stubCreator{session: &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_123"}}
	svc, guard := newTestCheckout(t, carts, creator)

	url, err := svc.CreateSession(context.Background(), "tok", "https://shop.example.com")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if url != "https://checkout.stripe.com/pay/cs_123" {
		t.Fatalf("unexpected url %q", url)
	}
	if carts.savedCalls != 1 {
		t.Fatalf("expected pending order snapshot, got %d calls", carts.savedCalls)
	}

	if got := *creator.params.SuccessURL; got != "https://shop.example.com/success.html?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url %q", got)
	}
	if got := *creator.params.CancelURL; got != "https://shop.example.com/cancel.html" {
		t.Fatalf("unexpected cancel url %q", got)
	}
	if got := *creator.params.Locale; got != "es" {
		t.Fatalf("unexpected locale %q", got)
	}
	if got := *creator.params.BillingAddressCollection; got != "required" {
		t.Fatalf("unexpected billing collection %q", got)
	}
	if got := len(creator.params.ShippingAddressCollection.AllowedCountries); got != 8 {
		t.Fatalf("expected 8 shipping countries, got %d", got)
	}
	if got := *creator.params.Mode; got != "payment" {
		t.Fatalf("unexpected mode %q", got)
	}

	// guard must be released after a successful run
	ok, err := guard.SetNX(context.Background(), "checkout_submit:tok", "1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("guard not released: ok=%v err=%v", ok, err)
	}
}

func TestCreateSessionExpandsQuantitiesWithShipping(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{items: []cart.Item{{Title: "Santal 33", Size: "10ml", Price: price("10.00"), Quantity: 3}}}
	creator := &stubCreator{session: &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_321"}}
	svc, _ := newTestCheckout(t, carts, creator)

	if _, err := svc.CreateSession(context.Background(), "tok", ""); err != nil {
		t.Fatalf("create session: %v", err)
	}

	lines := creator.params.LineItems
	if len(lines) != 4 {
		t.Fatalf("expected 3 unit lines plus shipping, got %d", len(lines))
	}
	for _, line := range lines[:3] {
		if got := *line.PriceData.UnitAmount; got != 1000 {
			t.Fatalf("unexpected unit amount %d", got)
		}
	}
	shipping := lines[3]
	if got := *shipping.PriceData.UnitAmount; got != 599 {
		t.Fatalf("unexpected shipping amount %d", got)
	}
	if got := *shipping.PriceData.ProductData.Name; got != ShippingName {
		t.Fatalf("unexpected shipping line name %q", got)
	}
}

func TestCreateSessionFallsBackToDefaultOrigin(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{items: cartItems()}
	creator := &stubCreator{session: &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_456"}}
	svc, _ := newTestCheckout(t, carts, creator)

	if _, err := svc.CreateSession(context.Background(), "tok", "  "); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !strings.HasPrefix(*creator.params.SuccessURL, "https://perfumichi.com/") {
		t.Fatalf("expected fallback origin, got %q", *creator.params.SuccessURL)
	}
}

func TestCreateSessionEmptyCartRejectedLocally(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{}
	creator := &stubCreator{}
	svc, _ := newTestCheckout(t, carts, creator)

	_, err := svc.CreateSession(context.Background(), "tok", "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatal("empty cart must not reach the payment provider")
	}
	if carts.savedCalls != 0 {
		t.Fatal("empty cart must not write a pending order")
	}
}

func TestCreateSessionGuardBlocksConcurrentSubmission(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{items: cartItems()}
	creator := &stubCreator{session: &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_789"}}
	svc, guard := newTestCheckout(t, carts, creator)

	if _, err := guard.SetNX(context.Background(), "checkout_submit:tok", "1", time.Minute); err != nil {
		t.Fatalf("seed guard: %v", err)
	}

	_, err := svc.CreateSession(context.Background(), "tok", "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatal("guarded submission must not reach the payment provider")
	}
}

func TestCreateSessionReleasesGuardOnFailure(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{items: cartItems()}
	creator := &stubCreator{err: errors.New("stripe down")}
	svc, guard := newTestCheckout(t, carts, creator)

	_, err := svc.CreateSession(context.Background(), "tok", "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	ok, err := guard.SetNX(context.Background(), "checkout_submit:tok", "1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("guard must be released after failure: ok=%v err=%v", ok, err)
	}
}

func TestCreateSessionMissingURLIsDependencyError(t *testing.T) {
	t.Parallel()
	carts := &stubCarts{items: cartItems()}
	creator := &stubCreator{session: &stripe.CheckoutSession{}}
	svc, _ := newTestCheckout(t, carts, creator)

	_, err := svc.CreateSession(context.Background(), "tok", "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for missing url, got %v", err)
	}
}
