package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perfumichi/storefront/pkg/config"
	"github.com/perfumichi/storefront/pkg/kv"
	"github.com/perfumichi/storefront/pkg/logger"
)

func newTestService(t *testing.T) (Service, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store, store, config.CartConfig{KeyTTL: time.Hour}, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddKeepsSeparateEntriesAndCounts(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "tok", AddItemInput{Title: "Oud Wood", Size: "5ml", Price: price("12.50")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := svc.Add(ctx, "tok", AddItemInput{Title: "Oud Wood", Size: "5ml", Price: price("12.50"), Quantity: 2})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct ids for separate entries")
	}

	items, err := svc.Load(ctx, "tok")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}

	count, err := svc.Count(ctx, "tok")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, "tok", AddItemInput{Title: "Tobacco Vanille", Size: "10ml", Price: price("18.00"), Quantity: 0})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", item.Quantity)
	}
}

func TestSetQuantityRemovesAtZeroAndIgnoresUnknown(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, "tok", AddItemInput{Title: "Santal 33", Size: "5ml", Price: price("11.00")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.SetQuantity(ctx, "tok", uuid.New(), 5); err != nil {
		t.Fatalf("unknown id should be a no-op: %v", err)
	}
	items, _ := svc.Load(ctx, "tok")
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("cart changed by unknown id update: %+v", items)
	}

	if err := svc.SetQuantity(ctx, "tok", item.ID, 4); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	items, _ = svc.Load(ctx, "tok")
	if items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", items[0].Quantity)
	}

	if err := svc.SetQuantity(ctx, "tok", item.ID, 0); err != nil {
		t.Fatalf("set quantity 0: %v", err)
	}
	items, _ = svc.Load(ctx, "tok")
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d entries", len(items))
	}
}

func TestDecrementFromOneRemoves(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, "tok", AddItemInput{Title: "Baccarat", Size: "5ml", Price: price("15.00")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.IncrementQuantity(ctx, "tok", item.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	count, _ := svc.Count(ctx, "tok")
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}

	if err := svc.DecrementQuantity(ctx, "tok", item.ID); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := svc.DecrementQuantity(ctx, "tok", item.ID); err != nil {
		t.Fatalf("decrement to zero: %v", err)
	}
	items, _ := svc.Load(ctx, "tok")
	if len(items) != 0 {
		t.Fatalf("expected item removed, got %d entries", len(items))
	}
}

func TestTotalSumsAtFullPrecision(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "tok", AddItemInput{Title: "A", Size: "5ml", Price: price("0.1"), Quantity: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "tok", AddItemInput{Title: "B", Size: "5ml", Price: price("0.2")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	total, err := svc.Total(ctx, "tok")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.Equal(price("0.5")) {
		t.Fatalf("expected 0.5, got %s", total)
	}
}

func TestLoadCorruptDataResetsCart(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := store.Set(ctx, "cart:tok", "{not json", time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	items, err := svc.Load(ctx, "tok")
	if err != nil {
		t.Fatalf("load should recover: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart after reset, got %d", len(items))
	}

	raw, err := store.Get(ctx, "cart:tok")
	if err != nil {
		t.Fatalf("reset value not persisted: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("expected stored empty cart, got %q", raw)
	}
}

func TestLegacyEntriesWithoutQuantityReadAsOne(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	legacy := `[{"id":"` + uuid.NewString() + `","title":"Vintage","size":"5ml","price":"9.99"}]`
	if err := store.Set(ctx, "cart:tok", legacy, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}

	count, err := svc.Count(ctx, "tok")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1 for legacy entry, got %d", count)
	}
}

func TestMutationsNotifySubscribersOnce(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	var calls []string
	svc.Subscribe(func(_ context.Context, token string) {
		calls = append(calls, token)
	})

	item, err := svc.Add(ctx, "tok", AddItemInput{Title: "Noir", Size: "5ml", Price: price("10.00")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 notification after add, got %d", len(calls))
	}

	if err := svc.SetQuantity(ctx, "tok", item.ID, 3); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(calls))
	}

	if err := svc.SetQuantity(ctx, "tok", uuid.New(), 3); err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("no-op should not notify, got %d", len(calls))
	}

	if err := svc.Clear(ctx, "tok"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(calls) != 3 || calls[2] != "tok" {
		t.Fatalf("expected clear notification for tok, got %v", calls)
	}
}

func TestPendingOrderRoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "tok", AddItemInput{Title: "Eros", Size: "10ml", Price: price("14.25"), Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	saved, err := svc.SavePendingOrder(ctx, "tok")
	if err != nil {
		t.Fatalf("save pending order: %v", err)
	}
	if saved.Timestamp.IsZero() {
		t.Fatal("expected timestamp")
	}
	if !saved.Total.Equal(price("28.50")) {
		t.Fatalf("expected total 28.50, got %s", saved.Total)
	}

	loaded, err := svc.LoadPendingOrder(ctx, "tok")
	if err != nil {
		t.Fatalf("load pending order: %v", err)
	}
	if len(loaded.Items) != 1 || !loaded.Total.Equal(saved.Total) {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestRemoteChangeRenotifiesSubscribers(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notified := make(chan string, 1)
	svc.Subscribe(func(_ context.Context, token string) {
		select {
		case notified <- token:
		default:
		}
	})

	go func() {
		_ = svc.WatchRemote(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	store.Inject("cart:other-tab", `[]`)

	select {
	case token := <-notified:
		if token != "other-tab" {
			t.Errorf("expected token other-tab, got %s", token)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for remote notification")
	}
}
