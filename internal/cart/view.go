package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perfumichi/storefront/pkg/money"
)

// EmptyCartMessage is shown when there is nothing to render.
const EmptyCartMessage = "Tu cesta está vacía."

// ViewRow is one rendered cart line.
type ViewRow struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Size      string    `json:"size"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Subtotal  string    `json:"subtotal"`
	Image     string    `json:"image,omitempty"`
}

// View is the display projection of a cart: rows, a formatted total, the
// empty-state message, and the badge state.
type View struct {
	Rows         []ViewRow `json:"rows"`
	Total        string    `json:"total"`
	EmptyMessage string    `json:"empty_message,omitempty"`
	BadgeCount   int       `json:"badge_count"`
	BadgeVisible bool      `json:"badge_visible"`
}

// Render projects the cart items into their display shape. It never mutates
// the cart.
func Render(items []Item) View {
	view := View{Rows: make([]ViewRow, 0, len(items))}
	total := decimal.Zero
	count := 0
	for _, item := range items {
		view.Rows = append(view.Rows, ViewRow{
			ID:        item.ID,
			Title:     item.Title,
			Size:      item.Size,
			UnitPrice: money.FormatEUR(item.Price),
			Quantity:  item.Quantity,
			Subtotal:  money.FormatEUR(item.Subtotal()),
			Image:     item.Image,
		})
		total = total.Add(item.Subtotal())
		count += item.Quantity
	}
	view.Total = money.FormatEUR(total)
	view.BadgeCount = count
	view.BadgeVisible = count > 0
	if len(view.Rows) == 0 {
		view.EmptyMessage = EmptyCartMessage
	}
	return view
}
