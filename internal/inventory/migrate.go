package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/ifrit/internal/model"
)

// Migration sentinel keys.
const (
	WipePhotosKey        = "ifritInventory.wipePhotos.m1"
	ArtbookRenameKey     = "ifritInventory.artbookRename.m2"
	OwnedBackfillKey     = "ifritInventory.ownedBackfill.m3"
	CreatedAtBackfillKey = "ifritInventory.createdAtBackfill.m4"
)

const legacyArtbooks = "Artbooks"

var ultimaniaSeeds = []string{
	"Final Fantasy Ultimania Archive Vol. 2",
	"Final Fantasy Ultimania Archive Vol. 3",
}

// migrationState is what a migration may change.
type migrationState struct {
	items  []model.Item
	nextID int64
	now    time.Time
}

// A Migration transforms persisted items at most once per collection.
// Apply reports whether it changed anything.
type Migration struct {
	Key   string
	Apply func(st *migrationState) bool
}

// Migrations run in this order. Ownership is backfilled before photos are
// stripped so that items photographed in the legacy format stay collected.
var Migrations = []Migration{
	{Key: OwnedBackfillKey, Apply: backfillOwned},
	{Key: WipePhotosKey, Apply: wipePhotos},
	{Key: ArtbookRenameKey, Apply: renameArtbooks},
	{Key: CreatedAtBackfillKey, Apply: backfillCreatedAt},
}

func backfillOwned(st *migrationState) bool {
	changed := false
	for i := range st.items {
		if st.items[i].Owned == nil {
			st.items[i].Owned = model.Ptr(st.items[i].Image != "")
			changed = true
		}
	}
	return changed
}

func wipePhotos(st *migrationState) bool {
	changed := false
	for i := range st.items {
		if st.items[i].Image != "" {
			st.items[i].Image = ""
			changed = true
		}
	}
	return changed
}

func renameArtbooks(st *migrationState) bool {
	changed := false
	for i := range st.items {
		if st.items[i].Category == legacyArtbooks {
			st.items[i].Category = model.CategoryArtbooks
			changed = true
		}
	}
	for _, name := range ultimaniaSeeds {
		if hasName(st.items, name) {
			continue
		}
		st.items = append(st.items, model.Item{
			ID:       st.nextID,
			Name:     name,
			Category: model.CategoryArtbooks,
			Rarity:   0,
		})
		st.nextID++
		changed = true
	}
	return changed
}

func backfillCreatedAt(st *migrationState) bool {
	changed := false
	base := st.now.UnixMilli()
	for i := range st.items {
		if st.items[i].CreatedAt == nil {
			st.items[i].CreatedAt = model.Ptr(base - int64(i)*1000)
			changed = true
		}
	}
	return changed
}

func hasName(items []model.Item, name string) bool {
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

// Migrate applies every migration whose sentinel is absent. Items are saved
// only when a migration changed them, and each sentinel is written once.
// It returns the keys of the migrations that ran.
func Migrate(ctx context.Context, s Storage, items []model.Item, nextID int64, now time.Time) ([]model.Item, int64, []string, error) {
	st := &migrationState{items: items, nextID: nextID, now: now}
	var ran []string

	for _, m := range Migrations {
		_, done, err := s.Get(ctx, m.Key)
		if err != nil {
			return items, nextID, ran, fmt.Errorf("reading migration sentinel %s: %w", m.Key, err)
		}
		if done {
			continue
		}

		if m.Apply(st) {
			if err := Save(ctx, s, st.items); err != nil {
				return st.items, st.nextID, ran, fmt.Errorf("saving after migration %s: %w", m.Key, err)
			}
		}
		if err := s.Set(ctx, m.Key, "1"); err != nil {
			return st.items, st.nextID, ran, fmt.Errorf("writing migration sentinel %s: %w", m.Key, err)
		}
		ran = append(ran, m.Key)
	}

	return st.items, st.nextID, ran, nil
}

// prepareSeed fills in the fields migrations would backfill, without adding
// or removing items. Seeded collections are never migrated.
func prepareSeed(items []model.Item, now time.Time) []model.Item {
	st := &migrationState{items: items, nextID: NextID(items), now: now}
	backfillOwned(st)
	backfillCreatedAt(st)
	return st.items
}

// MarkMigrated writes every migration sentinel, so a collection created in
// the current format is left alone by Migrate.
func MarkMigrated(ctx context.Context, s Storage) error {
	for _, m := range Migrations {
		if err := s.Set(ctx, m.Key, "1"); err != nil {
			return fmt.Errorf("writing migration sentinel %s: %w", m.Key, err)
		}
	}
	return nil
}
