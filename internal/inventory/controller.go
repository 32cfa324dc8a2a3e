package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/model"
)

// Features toggles optional parts of a collection.
type Features struct {
	Lottery      bool
	Achievements bool
}

// Config holds the dependencies of a Controller.
type Config struct {
	Owner    int64
	Storage  Storage
	Logger   *zap.Logger
	Guards   []Guard
	Notifier Notifier
	Features Features
	Now      func() time.Time

	// Seed builds the collection used when storage holds none.
	// Nil selects SampleData.
	Seed func() []model.Item
}

// Result reports the outcome of a mutation. Warnings are non-fatal
// problems, such as a failed save, that left the in-memory state updated.
type Result struct {
	Item     *model.Item         `json:"item,omitempty"`
	Count    int                 `json:"count,omitempty"`
	Unlocked []AchievementStatus `json:"unlocked,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// Patch lists the fields of an update. Nil fields are left unchanged.
type Patch struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	Platform     *string `json:"platform"`
	Rarity       *int    `json:"rarity"`
	Year         *int    `json:"year"`
	Notes        *string `json:"notes"`
	Image        *string `json:"image"`
	Owned        *bool   `json:"owned"`
	Sealed       *bool   `json:"sealed"`
	LotteryOrder *int    `json:"lotteryOrder"`
}

// Controller owns one collection: the canonical item list, the id counter
// and the unlocked achievements. All methods are safe for concurrent use.
type Controller struct {
	owner    int64
	storage  Storage
	log      *zap.Logger
	guards   []Guard
	notifier Notifier
	features Features
	now      func() time.Time

	mu       sync.RWMutex
	items    []model.Item
	nextID   int64
	unlocked map[string]bool
}

// Open loads the collection from storage and runs pending migrations on it.
// When nothing is stored the seed is saved as is. A stored value that cannot
// be decoded is copied to UnreadableItemsKey and the collection opens empty.
func Open(ctx context.Context, cfg Config) (*Controller, error) {
	c := &Controller{
		owner:    cfg.Owner,
		storage:  cfg.Storage,
		log:      cfg.Logger,
		guards:   cfg.Guards,
		notifier: cfg.Notifier,
		features: cfg.Features,
		now:      cfg.Now,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.With(zap.Int64("owner", cfg.Owner))
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.now == nil {
		c.now = time.Now
	}

	items, unreadable, err := load(ctx, c.storage)
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	switch {
	case unreadable != "":
		// Keep the stored value and start empty; nothing is written to
		// ItemsKey until the next mutation.
		if err := c.storage.Set(ctx, UnreadableItemsKey, unreadable); err != nil {
			return nil, fmt.Errorf("preserving unreadable collection: %w", err)
		}
		c.log.Error("stored collection is unreadable, starting empty",
			zap.String("preserved_as", UnreadableItemsKey), zap.Int("bytes", len(unreadable)))
		items = []model.Item{}

	case items == nil:
		seed := cfg.Seed
		if seed == nil {
			seed = SampleData
		}
		items = prepareSeed(seed(), c.now())
		if err := Save(ctx, c.storage, items); err != nil {
			return nil, fmt.Errorf("saving seeded collection: %w", err)
		}
		if err := MarkMigrated(ctx, c.storage); err != nil {
			return nil, err
		}
		c.log.Info("seeded collection", zap.Int("items", len(items)))

	default:
		var ran []string
		items, _, ran, err = Migrate(ctx, c.storage, items, NextID(items), c.now())
		if err != nil {
			return nil, fmt.Errorf("migrating collection: %w", err)
		}
		if len(ran) > 0 {
			c.log.Info("applied migrations", zap.Strings("migrations", ran))
		}
	}
	c.items = items
	c.nextID = NextID(items)

	c.unlocked, err = loadUnlocked(ctx, c.storage)
	if err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}

	return c, nil
}

// Owner returns the id of the user owning the collection.
func (c *Controller) Owner() int64 { return c.owner }

// Features returns the enabled features.
func (c *Controller) Features() Features { return c.features }

// Items returns a copy of the canonical list.
func (c *Controller) Items() []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

// View returns the items matching q.
func (c *Controller) View(q Query) []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Apply(c.items, q)
}

// Get returns the first item with the given id.
func (c *Controller) Get(id int64) (model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(id)
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	return c.items[i].Clone(), nil
}

// Add validates in, assigns an id, creation time and creator, runs the
// guard chain and puts the item at the front of the collection.
func (c *Controller) Add(ctx context.Context, actor Actor, in model.Item) (Result, error) {
	item := in.Clone()
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return Result{}, &ValidationError{Field: "name", Message: "is required"}
	}
	if !model.KnownCategory(item.Category) {
		return Result{}, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", item.Category)}
	}
	item.Rarity = min(max(item.Rarity, 0), model.MaxRarity)
	item.CreatedAt = model.Ptr(c.now().UnixMilli())
	item.CreatedBy = actor.UserID

	c.mu.Lock()
	defer c.mu.Unlock()

	op := Operation{Action: ActionAdd, Actor: actor, Item: &item, Count: len(c.items)}
	if err := runGuards(ctx, c.guards, op); err != nil {
		return Result{}, err
	}

	return c.insertLocked(ctx, item), nil
}

// Insert adds an already reviewed item on behalf of owner. Only the quota
// guard runs, against owner's plan. The id is reassigned; the creator is
// kept.
func (c *Controller) Insert(ctx context.Context, owner Actor, item model.Item) (Result, error) {
	item = item.Clone()
	if item.CreatedAt == nil {
		item.CreatedAt = model.Ptr(c.now().UnixMilli())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	op := Operation{Action: ActionAdd, Actor: owner, Item: &item, Count: len(c.items)}
	if err := runGuards(ctx, selectGuards(c.guards, QuotaGuardName), op); err != nil {
		return Result{}, err
	}
	return c.insertLocked(ctx, item), nil
}

func (c *Controller) insertLocked(ctx context.Context, item model.Item) Result {
	item.ID = c.nextID
	c.nextID++
	c.items = append([]model.Item{item}, c.items...)

	res := Result{Item: model.Ptr(item.Clone()), Count: len(c.items)}
	c.persistLocked(ctx, &res)
	c.notifier.Notify(ctx, c.owner, Event{Type: EventItemAdded, Item: res.Item})
	c.evaluateLocked(ctx, &res)
	return res
}

// Update applies p to the item with the given id.
func (c *Controller) Update(ctx context.Context, actor Actor, id int64, p Patch) (Result, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Result{}, &ValidationError{Field: "name", Message: "is required"}
	}
	if p.Category != nil && !model.KnownCategory(*p.Category) {
		return Result{}, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", *p.Category)}
	}
	if p.Rarity != nil && (*p.Rarity < 0 || *p.Rarity > model.MaxRarity) {
		return Result{}, &ValidationError{Field: "rarity", Message: fmt.Sprintf("must be between 0 and %d", model.MaxRarity)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return Result{}, ErrNotFound
	}
	current := c.items[i].Clone()
	if err := runGuards(ctx, c.guards, Operation{Action: ActionUpdate, Actor: actor, Item: &current, Count: len(c.items)}); err != nil {
		return Result{}, err
	}

	item := c.items[i].Clone()
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Platform != nil {
		item.Platform = *p.Platform
	}
	if p.Rarity != nil {
		item.Rarity = *p.Rarity
	}
	if p.Year != nil {
		item.Year = model.Ptr(*p.Year)
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Owned != nil {
		item.Owned = model.Ptr(*p.Owned)
	}
	if p.Sealed != nil {
		item.Sealed = model.Ptr(*p.Sealed)
	}
	if p.LotteryOrder != nil {
		item.LotteryOrder = model.Ptr(*p.LotteryOrder)
	}
	c.items[i] = item

	res := Result{Item: model.Ptr(item.Clone()), Count: len(c.items)}
	c.persistLocked(ctx, &res)
	c.notifier.Notify(ctx, c.owner, Event{Type: EventItemUpdated, Item: res.Item})
	c.evaluateLocked(ctx, &res)
	return res, nil
}

// SetOwned sets the owned flag of an item.
func (c *Controller) SetOwned(ctx context.Context, actor Actor, id int64, owned bool) (Result, error) {
	return c.Update(ctx, actor, id, Patch{Owned: &owned})
}

// SetSealed sets the sealed flag of an item.
func (c *Controller) SetSealed(ctx context.Context, actor Actor, id int64, sealed bool) (Result, error) {
	return c.Update(ctx, actor, id, Patch{Sealed: &sealed})
}

// SetImage replaces the photo of an item. An empty dataURI removes it.
func (c *Controller) SetImage(ctx context.Context, actor Actor, id int64, dataURI string) (Result, error) {
	return c.Update(ctx, actor, id, Patch{Image: &dataURI})
}

// Delete removes the first item with the given id. Without confirmation
// nothing happens and ErrConfirmationRequired is returned.
func (c *Controller) Delete(ctx context.Context, actor Actor, id int64, confirmed bool) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return Result{}, ErrNotFound
	}
	current := c.items[i].Clone()
	if err := runGuards(ctx, c.guards, Operation{Action: ActionDelete, Actor: actor, Item: &current, Count: len(c.items)}); err != nil {
		return Result{}, err
	}
	if !confirmed {
		return Result{}, ErrConfirmationRequired
	}

	c.items = append(c.items[:i:i], c.items[i+1:]...)

	res := Result{Item: &current, Count: len(c.items)}
	c.persistLocked(ctx, &res)
	c.notifier.Notify(ctx, c.owner, Event{Type: EventItemDeleted, ItemID: id})
	c.evaluateLocked(ctx, &res)
	return res, nil
}

// Import replaces the collection with the JSON array read from r.
func (c *Controller) Import(ctx context.Context, actor Actor, r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("reading import: %w", err)
	}
	return c.ImportText(ctx, actor, string(data))
}

// ImportText replaces the collection with the JSON array in text. Missing
// ids and creation times are filled in; nothing else is validated. On any
// error the collection is left untouched.
func (c *Controller) ImportText(ctx context.Context, actor Actor, text string) (Result, error) {
	items, err := ParseItems([]byte(text))
	if err != nil {
		return Result{}, err
	}
	nextID := backfill(items, c.now())

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := runGuards(ctx, c.guards, Operation{Action: ActionImport, Actor: actor, Count: len(items)}); err != nil {
		return Result{}, err
	}

	c.items = items
	c.nextID = nextID
	c.log.Info("imported collection", zap.Int("items", len(items)), zap.Int64("actor", actor.UserID))

	res := Result{Count: len(items)}
	c.persistLocked(ctx, &res)
	c.notifier.Notify(ctx, c.owner, Event{Type: EventCollectionReplaced, Count: len(items)})
	c.evaluateLocked(ctx, &res)
	return res, nil
}

// Export writes the collection as indented JSON.
func (c *Controller) Export(ctx context.Context, actor Actor, w io.Writer) error {
	c.mu.RLock()
	items := cloneItems(c.items)
	c.mu.RUnlock()

	if err := runGuards(ctx, c.guards, Operation{Action: ActionExport, Actor: actor, Count: len(items)}); err != nil {
		return err
	}
	return Export(w, items)
}

// Snapshot returns the export encoding of the collection without guards.
func (c *Controller) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(&buf, c.Items()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Reset replaces the collection with the sample catalog. Without
// confirmation nothing happens and ErrConfirmationRequired is returned.
func (c *Controller) Reset(ctx context.Context, actor Actor, confirmed bool) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := runGuards(ctx, c.guards, Operation{Action: ActionReset, Actor: actor, Count: len(c.items)}); err != nil {
		return Result{}, err
	}
	if !confirmed {
		return Result{}, ErrConfirmationRequired
	}

	c.items = prepareSeed(SampleData(), c.now())
	c.nextID = NextID(c.items)
	c.log.Info("reset collection", zap.Int64("actor", actor.UserID))

	res := Result{Count: len(c.items)}
	c.persistLocked(ctx, &res)
	c.notifier.Notify(ctx, c.owner, Event{Type: EventCollectionReplaced, Count: len(c.items)})
	c.evaluateLocked(ctx, &res)
	return res, nil
}

// Stats summarizes the collection.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Summarize(c.items)
}

// Dashboard returns the analytics view of the collection.
func (c *Controller) Dashboard() Dashboard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := BuildDashboard(c.items, c.now())
	if !c.features.Lottery {
		d.Lottery = nil
	}
	return d
}

// Lottery returns lottery completion, or ErrFeatureDisabled.
func (c *Controller) Lottery() ([]Progress, error) {
	if !c.features.Lottery {
		return nil, ErrFeatureDisabled
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LotteryProgress(c.items), nil
}

// Achievements returns every achievement with its state, or ErrFeatureDisabled.
func (c *Controller) Achievements() ([]AchievementStatus, error) {
	if !c.features.Achievements {
		return nil, ErrFeatureDisabled
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Statuses(c.unlocked), nil
}

func (c *Controller) indexOf(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked saves the collection. Failures become warnings.
func (c *Controller) persistLocked(ctx context.Context, res *Result) {
	if err := Save(ctx, c.storage, c.items); err != nil {
		c.log.Error("saving collection", zap.Error(err))
		res.Warnings = append(res.Warnings, "collection could not be saved")
	}
}

// evaluateLocked records achievements unlocked by the last mutation and
// announces each one once.
func (c *Controller) evaluateLocked(ctx context.Context, res *Result) {
	if !c.features.Achievements {
		return
	}
	newly := Evaluate(c.items, c.unlocked)
	if len(newly) == 0 {
		return
	}
	if err := saveUnlocked(ctx, c.storage, c.unlocked); err != nil {
		c.log.Error("saving achievements", zap.Error(err))
		res.Warnings = append(res.Warnings, "achievements could not be saved")
	}
	for i := range newly {
		c.log.Info("achievement unlocked", zap.String("achievement", newly[i].ID))
		c.notifier.Notify(ctx, c.owner, Event{Type: EventAchievementUnlocked, Achievement: &newly[i]})
	}
	res.Unlocked = newly
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
