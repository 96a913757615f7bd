// Package ledger is the per device shopping cart: an ordered list of line
// items persisted to a kvstore.Store after every mutation.
//
// Re-adding a product and size that is already in the cart only increases the
// quantity. The name, price, image and restaurant captured by the first add
// are kept, so a catalog price change between two adds in the same session is
// not reflected in the cart.
//
// Lines from different restaurants may coexist in one cart.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/internal/kvstore"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/metric"
	"github.com/Alturino/foodorder/internal/validate"
)

const SnapshotKey = "cart"

var (
	ErrInvalidItem = errors.New("invalid cart item")

	validator = validate.New()
)

type LineItem struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Image          string          `json:"image,omitempty"`
	Size           string          `json:"size,omitempty"`
	RestaurantID   string          `json:"restaurantId,omitempty"`
	RestaurantName string          `json:"restaurantName,omitempty"`
}

// LineTotal is price × quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type AddItemInput struct {
	ProductID      string          `validate:"required" json:"productId"`
	Name           string          `validate:"required" json:"name"`
	Price          decimal.Decimal `validate:"price" json:"price"`
	Quantity       int             `validate:"gte=1" json:"quantity"`
	Image          string          `json:"image,omitempty"`
	Size           string          `json:"size,omitempty"`
	RestaurantID   string          `json:"restaurantId,omitempty"`
	RestaurantName string          `json:"restaurantName,omitempty"`
}

type Snapshot struct {
	Items []LineItem `json:"items"`
}

// LineID is the identity of the line holding productID in the given size.
// A plain product id is used as is; anything else is length prefixed so no two
// (productID, size) pairs share an id.
func LineID(productID, size string) string {
	if size == "" && !strings.Contains(productID, ":") {
		return productID
	}
	return fmt.Sprintf("%d:%s:%s", len(productID), productID, size)
}

type Ledger struct {
	m     sync.RWMutex
	store kvstore.Store
	items []LineItem
}

// New returns an empty ledger persisting to store. Nothing is read from store.
func New(store kvstore.Store) *Ledger {
	return &Ledger{store: store, items: []LineItem{}}
}

// Load restores the ledger from the snapshot in store. A missing snapshot
// yields an empty cart; an unreadable one is logged and also yields an empty
// cart.
func Load(c context.Context, store kvstore.Store) *Ledger {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ledger Load").
		Str(log.KeyStoreKey, SnapshotKey).
		Logger()

	l := New(store)

	raw, err := store.Get(c, SnapshotKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		logger.Debug().Msg("no cart snapshot, starting empty")
		return l
	}
	if err != nil {
		err = fmt.Errorf("failed reading cart snapshot with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		return l
	}

	snapshot := Snapshot{}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		err = fmt.Errorf("failed unmarshaling cart snapshot with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		return l
	}

	for _, item := range snapshot.Items {
		if item.Quantity <= 0 || l.indexOf(item.ID) >= 0 {
			continue
		}
		l.items = append(l.items, item)
	}
	logger.Debug().Int(log.KeyItemCount, l.itemCount()).Msg("loaded cart snapshot")
	return l
}

func (l *Ledger) AddItem(c context.Context, in AddItemInput) error {
	if err := validator.StructCtx(c, in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	l.m.Lock()
	defer l.m.Unlock()

	id := LineID(in.ProductID, in.Size)
	if i := l.indexOf(id); i >= 0 {
		l.items[i].Quantity += in.Quantity
	} else {
		l.items = append(l.items, LineItem{
			ID:             id,
			ProductID:      in.ProductID,
			Name:           in.Name,
			Price:          in.Price,
			Quantity:       in.Quantity,
			Image:          in.Image,
			Size:           in.Size,
			RestaurantID:   in.RestaurantID,
			RestaurantName: in.RestaurantName,
		})
	}

	metric.CartMutations.WithLabelValues(metric.OpAddItem).Inc()
	l.persist(c)
	return nil
}

// UpdateQuantity sets the absolute quantity of a line. A quantity of zero or
// less removes the line. Unknown ids are ignored.
func (l *Ledger) UpdateQuantity(c context.Context, lineID string, quantity int) {
	l.m.Lock()
	defer l.m.Unlock()

	i := l.indexOf(lineID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	} else {
		l.items[i].Quantity = quantity
	}

	metric.CartMutations.WithLabelValues(metric.OpUpdateQuantity).Inc()
	l.persist(c)
}

func (l *Ledger) RemoveItem(c context.Context, lineID string) {
	l.m.Lock()
	defer l.m.Unlock()

	i := l.indexOf(lineID)
	if i < 0 {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)

	metric.CartMutations.WithLabelValues(metric.OpRemoveItem).Inc()
	l.persist(c)
}

func (l *Ledger) Clear(c context.Context) {
	l.m.Lock()
	defer l.m.Unlock()

	l.items = []LineItem{}

	metric.CartMutations.WithLabelValues(metric.OpClearCart).Inc()
	if err := l.store.Remove(c, SnapshotKey); err != nil {
		l.persistFailed(c, fmt.Errorf("failed removing cart snapshot with error=%w", err))
	}
}

func (l *Ledger) Items() []LineItem {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.snapshot().Items
}

func (l *Ledger) Item(lineID string) (LineItem, bool) {
	l.m.RLock()
	defer l.m.RUnlock()
	i := l.indexOf(lineID)
	if i < 0 {
		return LineItem{}, false
	}
	return l.items[i], true
}

func (l *Ledger) ItemCount() int {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.itemCount()
}

// Total is the subtotal of all lines, excluding delivery and platform fees.
func (l *Ledger) Total() decimal.Decimal {
	l.m.RLock()
	defer l.m.RUnlock()
	total := decimal.Zero
	for _, item := range l.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (l *Ledger) IsEmpty() bool {
	l.m.RLock()
	defer l.m.RUnlock()
	return len(l.items) == 0
}

func (l *Ledger) Snapshot() Snapshot {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.snapshot()
}

// snapshot must be called with l.m held.
func (l *Ledger) snapshot() Snapshot {
	items := make([]LineItem, len(l.items))
	copy(items, l.items)
	return Snapshot{Items: items}
}

func (l *Ledger) itemCount() int {
	count := 0
	for _, item := range l.items {
		count += item.Quantity
	}
	return count
}

func (l *Ledger) indexOf(lineID string) int {
	for i, item := range l.items {
		if item.ID == lineID {
			return i
		}
	}
	return -1
}

// persist must be called with l.m held.
func (l *Ledger) persist(c context.Context) {
	b, err := json.Marshal(l.snapshot())
	if err != nil {
		l.persistFailed(c, fmt.Errorf("failed marshaling cart snapshot with error=%w", err))
		return
	}
	if err := l.store.Set(c, SnapshotKey, string(b)); err != nil {
		l.persistFailed(c, fmt.Errorf("failed writing cart snapshot with error=%w", err))
	}
}

// persistFailed keeps the in memory cart authoritative; losing the snapshot
// only degrades the next session.
func (l *Ledger) persistFailed(c context.Context, err error) {
	metric.CartPersistFailures.Inc()
	zerolog.Ctx(c).
		Warn().
		Err(err).
		Str(log.KeyTag, "ledger persist").
		Str(log.KeyStoreKey, SnapshotKey).
		Msg(err.Error())
}
