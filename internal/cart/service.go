package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perfumichi/storefront/pkg/config"
	pkgerrors "github.com/perfumichi/storefront/pkg/errors"
	"github.com/perfumichi/storefront/pkg/kv"
	"github.com/perfumichi/storefront/pkg/logger"
)

const (
	cartKeyPrefix    = "cart:"
	pendingKeyPrefix = "pending_order:"
)

// Subscriber is notified after every persisted cart change. token identifies
// whose cart changed.
type Subscriber func(ctx context.Context, token string)

// AddItemInput carries the fields needed to add one entry to a cart.
type AddItemInput struct {
	Title       string
	Size        string
	Price       decimal.Decimal
	Image       string
	Quantity    int
	Description string
	ImageURL    string
}

// Service exposes the per-token cart operations. Every mutation persists the
// full cart before notifying subscribers.
type Service interface {
	Load(ctx context.Context, token string) ([]Item, error)
	Count(ctx context.Context, token string) (int, error)
	Add(ctx context.Context, token string, input AddItemInput) (*Item, error)
	SetQuantity(ctx context.Context, token string, itemID uuid.UUID, quantity int) error
	IncrementQuantity(ctx context.Context, token string, itemID uuid.UUID) error
	DecrementQuantity(ctx context.Context, token string, itemID uuid.UUID) error
	Remove(ctx context.Context, token string, itemID uuid.UUID) error
	Clear(ctx context.Context, token string) error
	Total(ctx context.Context, token string) (decimal.Decimal, error)
	Subscribe(fn Subscriber)
	SavePendingOrder(ctx context.Context, token string) (*PendingOrder, error)
	LoadPendingOrder(ctx context.Context, token string) (*PendingOrder, error)
	WatchRemote(ctx context.Context) error
}

type service struct {
	store kv.Store
	cfg   config.CartConfig
	logg  *logger.Logger
	mu    sync.RWMutex
	subs  []Subscriber
	watch kv.Watcher
}

// NewService builds a cart service over the provided key-value store. watcher
// may be nil when cross-context sync is not available.
func NewService(store kv.Store, watcher kv.Watcher, cfg config.CartConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, watch: watcher, cfg: cfg, logg: logg}, nil
}

// Load reads the cart for token. Corrupt stored data resets the cart to empty
// instead of surfacing an error.
func (s *service) Load(ctx context.Context, token string) ([]Item, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	raw, err := s.store.Get(ctx, cartKey(token))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []Item{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"error": err.Error()})
		s.logg.Warn(ctx, "stored cart is corrupt, resetting to empty")
		if resetErr := s.persist(ctx, token, []Item{}); resetErr != nil {
			return nil, resetErr
		}
		return []Item{}, nil
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Count returns the sum of quantities across all entries.
func (s *service) Count(ctx context.Context, token string) (int, error) {
	items, err := s.Load(ctx, token)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total, nil
}

// Add appends a new entry. Identical products are kept as separate entries.
func (s *service) Add(ctx context.Context, token string, input AddItemInput) (*Item, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item title is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	items, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	item := Item{
		ID:          uuid.New(),
		Title:       input.Title,
		Size:        input.Size,
		Price:       input.Price,
		Image:       input.Image,
		Quantity:    quantity,
		Description: input.Description,
		ImageURL:    input.ImageURL,
	}
	items = append(items, item)

	if err := s.persist(ctx, token, items); err != nil {
		return nil, err
	}
	s.notify(ctx, token)
	return &item, nil
}

// SetQuantity sets the entry's quantity; zero or below removes the entry.
// Unknown ids are ignored.
func (s *service) SetQuantity(ctx context.Context, token string, itemID uuid.UUID, quantity int) error {
	if err := requireToken(token); err != nil {
		return err
	}
	items, err := s.Load(ctx, token)
	if err != nil {
		return err
	}

	changed := false
	next := items[:0]
	for _, item := range items {
		if item.ID != itemID {
			next = append(next, item)
			continue
		}
		changed = true
		if quantity <= 0 {
			continue
		}
		item.Quantity = quantity
		next = append(next, item)
	}
	if !changed {
		return nil
	}

	if err := s.persist(ctx, token, next); err != nil {
		return err
	}
	s.notify(ctx, token)
	return nil
}

// IncrementQuantity raises the entry's quantity by one.
func (s *service) IncrementQuantity(ctx context.Context, token string, itemID uuid.UUID) error {
	return s.shift(ctx, token, itemID, 1)
}

// DecrementQuantity lowers the entry's quantity by one; at one the entry is
// removed.
func (s *service) DecrementQuantity(ctx context.Context, token string, itemID uuid.UUID) error {
	return s.shift(ctx, token, itemID, -1)
}

func (s *service) shift(ctx context.Context, token string, itemID uuid.UUID, delta int) error {
	if err := requireToken(token); err != nil {
		return err
	}
	items, err := s.Load(ctx, token)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ID == itemID {
			return s.SetQuantity(ctx, token, itemID, item.Quantity+delta)
		}
	}
	return nil
}

// Remove deletes the entry regardless of quantity. Unknown ids are ignored.
func (s *service) Remove(ctx context.Context, token string, itemID uuid.UUID) error {
	return s.SetQuantity(ctx, token, itemID, 0)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, token string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if err := s.persist(ctx, token, []Item{}); err != nil {
		return err
	}
	s.notify(ctx, token)
	return nil
}

// Total sums price times quantity at full decimal precision.
func (s *service) Total(ctx context.Context, token string) (decimal.Decimal, error) {
	items, err := s.Load(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total, nil
}

// Subscribe registers a change listener. Listeners run synchronously after
// each persisted mutation.
func (s *service) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SavePendingOrder snapshots the current cart for the post-payment surface.
func (s *service) SavePendingOrder(ctx context.Context, token string) (*PendingOrder, error) {
	items, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	total, err := s.Total(ctx, token)
	if err != nil {
		return nil, err
	}
	order := &PendingOrder{
		Items:     items,
		Timestamp: time.Now().UTC(),
		Total:     total,
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding pending order")
	}
	if err := s.store.Set(ctx, pendingKey(token), string(payload), s.cfg.KeyTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving pending order")
	}
	return order, nil
}

// LoadPendingOrder reads back the snapshot written by SavePendingOrder.
func (s *service) LoadPendingOrder(ctx context.Context, token string) (*PendingOrder, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	raw, err := s.store.Get(ctx, pendingKey(token))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading pending order")
	}
	var order PendingOrder
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding pending order")
	}
	return &order, nil
}

// WatchRemote blocks consuming the store's change feed and re-notifies
// subscribers when another process writes a cart key. The last write wins;
// no merging is attempted.
func (s *service) WatchRemote(ctx context.Context) error {
	if s.watch == nil {
		return fmt.Errorf("no watcher configured")
	}
	return s.watch.Watch(ctx, func(key string) {
		token, ok := strings.CutPrefix(key, cartKeyPrefix)
		if !ok {
			return
		}
		s.notify(ctx, token)
	})
}

func (s *service) persist(ctx context.Context, token string, items []Item) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart")
	}
	if err := s.store.Set(ctx, cartKey(token), string(payload), s.cfg.KeyTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart")
	}
	return nil
}

func (s *service) notify(ctx context.Context, token string) {
	s.mu.RLock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ctx, token)
	}
}

func requireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token is required")
	}
	return nil
}

func cartKey(token string) string {
	return cartKeyPrefix + token
}

func pendingKey(token string) string {
	return pendingKeyPrefix + token
}
