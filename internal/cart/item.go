package cart

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one cart entry. Items are identified by the ID assigned when they
// are added, not by their position in the cart.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Size        string          `json:"size"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// UnmarshalJSON fills in a quantity of 1 for entries stored before quantities
// existed.
func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Quantity < 1 {
		raw.Quantity = 1
	}
	*i = Item(raw)
	return nil
}

// Subtotal returns price multiplied by quantity at full precision.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PendingOrder is the snapshot written right before handing off to checkout,
// read back by the confirmation surface.
type PendingOrder struct {
	Items     []Item          `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
	Total     decimal.Decimal `json:"total"`
}
