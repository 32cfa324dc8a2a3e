package inventory

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/erazemk/ifrit/internal/model"
)

// Stats is the summary shown above the collection.
type Stats struct {
	Total      int     `json:"total"`
	Collected  int     `json:"collected"`
	WithPhoto  int     `json:"with_photo"`
	AvgRarity  float64 `json:"avg_rarity"`
	Categories int     `json:"categories"`
}

// Summarize computes Stats over items.
func Summarize(items []model.Item) Stats {
	s := Stats{Total: len(items)}
	categories := make(map[string]bool)
	rarity := 0
	for _, it := range items {
		if it.Collected() {
			s.Collected++
		}
		if it.Image != "" {
			s.WithPhoto++
		}
		rarity += it.Rarity
		categories[it.Category] = true
	}
	s.Categories = len(categories)
	if len(items) > 0 {
		s.AvgRarity = round1(float64(rarity) / float64(len(items)))
	}
	return s
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// CategoryCount is one row of a category ranking.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ItemRef is a short reference to an item.
type ItemRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Rarity   int    `json:"rarity"`
}

// Dashboard is the detailed analytics view of a collection.
type Dashboard struct {
	Overview      Stats           `json:"overview"`
	Platforms     int             `json:"platforms"`
	ByCategory    map[string]int  `json:"by_category"`
	ByPlatform    map[string]int  `json:"by_platform"`
	ByRarity      map[int]int     `json:"by_rarity"`
	ItemsByMonth  map[string]int  `json:"items_by_month"`
	TopCategories []CategoryCount `json:"top_categories"`
	Rarest        []ItemRef       `json:"rarest"`
	Lottery       []Progress      `json:"lottery,omitempty"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// dashboardMonths is how far back ItemsByMonth reaches.
const dashboardMonths = 6

// BuildDashboard aggregates distributions, recent additions per month,
// the top five categories and up to ten items of rarity 4 or more.
func BuildDashboard(items []model.Item, now time.Time) Dashboard {
	d := Dashboard{
		Overview:     Summarize(items),
		ByCategory:   make(map[string]int),
		ByPlatform:   make(map[string]int),
		ByRarity:     make(map[int]int),
		ItemsByMonth: make(map[string]int),
		Lottery:      LotteryProgress(items),
		GeneratedAt:  now.UTC(),
	}

	cutoff := now.AddDate(0, -dashboardMonths, 0).UnixMilli()
	for _, it := range items {
		d.ByCategory[it.Category]++
		if it.Platform != "" {
			d.ByPlatform[it.Platform]++
		}
		d.ByRarity[it.Rarity]++
		if it.CreatedAt != nil && *it.CreatedAt >= cutoff {
			month := time.UnixMilli(*it.CreatedAt).UTC().Format("2006-01")
			d.ItemsByMonth[month]++
		}
	}
	d.Platforms = len(d.ByPlatform)

	for c, n := range d.ByCategory {
		d.TopCategories = append(d.TopCategories, CategoryCount{Category: c, Count: n})
	}
	slices.SortFunc(d.TopCategories, func(a, b CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	if len(d.TopCategories) > 5 {
		d.TopCategories = d.TopCategories[:5]
	}

	for _, it := range items {
		if it.Rarity >= 4 {
			d.Rarest = append(d.Rarest, ItemRef{ID: it.ID, Name: it.Name, Category: it.Category, Rarity: it.Rarity})
		}
	}
	slices.SortStableFunc(d.Rarest, func(a, b ItemRef) int { return cmp.Compare(b.Rarity, a.Rarity) })
	if len(d.Rarest) > 10 {
		d.Rarest = d.Rarest[:10]
	}

	return d
}
