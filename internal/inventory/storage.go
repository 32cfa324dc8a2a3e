package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erazemk/ifrit/internal/model"
)

// Storage keys.
const (
	ItemsKey        = "ifritInventory.items"
	AchievementsKey = "ifritInventory.achievements"

	// UnreadableItemsKey keeps a stored collection that could not be decoded.
	UnreadableItemsKey = "ifritInventory.items.unreadable"
)

// Storage is a string key/value store. store.KV satisfies it.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Load reads the persisted collection. A missing key, malformed JSON or a
// payload that is not an array all yield nil with no error; only a failing
// storage backend is reported.
func Load(ctx context.Context, s Storage) ([]model.Item, error) {
	items, _, err := load(ctx, s)
	return items, err
}

// load is Load that also returns the stored value when it could not be
// decoded, so callers can keep it instead of overwriting it.
func load(ctx context.Context, s Storage) (items []model.Item, unreadable string, err error) {
	raw, ok, err := s.Get(ctx, ItemsKey)
	if err != nil {
		return nil, "", err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, "", nil
	}
	items, err = ParseItems([]byte(raw))
	if err != nil {
		return nil, raw, nil
	}
	return items, "", nil
}

// Save writes the full collection.
func Save(ctx context.Context, s Storage, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}
	return s.Set(ctx, ItemsKey, string(data))
}

// ParseItems decodes a JSON array of items. Elements are decoded one by one
// and leniently (see model.Item.UnmarshalJSON); only a payload that is not an
// array, or an element that is not an object, is ErrInvalidImport.
func ParseItems(data []byte) ([]model.Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidImport
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	items := make([]model.Item, len(elems))
	for i, elem := range elems {
		if err := json.Unmarshal(elem, &items[i]); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidImport, i, err)
		}
	}
	return items, nil
}

// Export writes items as two-space indented JSON.
func Export(w io.Writer, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportFilename returns the download name for an export taken at t.
func ExportFilename(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return "ifrit-inventory-backup-" + ts + ".json"
}

// NextID returns max(ids)+1.
func NextID(items []model.Item) int64 {
	var highest int64
	for _, it := range items {
		highest = max(highest, it.ID)
	}
	return highest + 1
}

// backfill assigns ids and creation times to imported items lacking them.
// Creation times step back one second per position so that "recently
// added" keeps the file order.
func backfill(items []model.Item, now time.Time) int64 {
	next := NextID(items)
	base := now.UnixMilli()
	for i := range items {
		if items[i].ID == 0 {
			items[i].ID = next
			next++
		}
		if items[i].CreatedAt == nil {
			items[i].CreatedAt = model.Ptr(base - int64(i)*1000)
		}
	}
	return next
}
