package ai

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
)

// recentWindow is the span counted as recent additions.
const recentWindow = 30 * 24 * time.Hour

// Trends summarizes how a collection grows. It is computed locally.
type Trends struct {
	TotalItems            int                      `json:"totalItems"`
	RecentAdditions       int                      `json:"recentAdditions"`
	CategoryDistribution  map[string]int           `json:"categoryDistribution"`
	PlatformDistribution  map[string]int           `json:"platformDistribution"`
	MostCollectedCategory *inventory.CategoryCount `json:"mostCollectedCategory,omitempty"`
	AverageRarity         float64                  `json:"averageRarity"`
	GrowthRate            float64                  `json:"growthRate"`
}

// AnalyzeTrends computes the distribution and growth of items.
func AnalyzeTrends(items []model.Item, now time.Time) Trends {
	t := Trends{
		TotalItems:           len(items),
		CategoryDistribution: make(map[string]int),
		PlatformDistribution: make(map[string]int),
	}
	if len(items) == 0 {
		return t
	}

	cutoff := now.Add(-recentWindow).UnixMilli()
	var raritySum int
	for _, it := range items {
		t.CategoryDistribution[it.Category]++
		if it.Platform != "" {
			t.PlatformDistribution[it.Platform]++
		}
		raritySum += it.Rarity
		if it.CreatedAt != nil && *it.CreatedAt > cutoff {
			t.RecentAdditions++
		}
	}

	// First category in collection order wins ties.
	for _, it := range items {
		n := t.CategoryDistribution[it.Category]
		if t.MostCollectedCategory == nil || n > t.MostCollectedCategory.Count {
			t.MostCollectedCategory = &inventory.CategoryCount{Category: it.Category, Count: n}
		}
	}

	t.AverageRarity = math.Round(float64(raritySum)/float64(len(items))*100) / 100
	t.GrowthRate = math.Round(float64(t.RecentAdditions)/float64(len(items))*1000) / 10
	return t
}

// Similar is a collection item whose name resembles a candidate name.
type Similar struct {
	Item       model.Item `json:"item"`
	Similarity float64    `json:"similarity"`
}

// SimilarityThreshold is the lowest score reported as a possible duplicate.
const SimilarityThreshold = 0.8

// FindSimilar returns items whose names look like name, best match first.
// Names are compared by the Dice coefficient of their character bigrams
// after lowercasing and dropping punctuation.
func FindSimilar(name string, items []model.Item) []Similar {
	target := bigrams(normalizeName(name))
	if len(target) == 0 {
		return nil
	}

	var out []Similar
	for _, it := range items {
		score := dice(target, bigrams(normalizeName(it.Name)))
		if score >= SimilarityThreshold {
			out = append(out, Similar{Item: it.Clone(), Similarity: math.Round(score*1000) / 1000})
		}
	}
	slices.SortStableFunc(out, func(a, b Similar) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return out
}

func normalizeName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case !space && b.Len() > 0:
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	if len(runes) < 2 {
		if len(runes) == 1 {
			return map[string]int{s: 1}
		}
		return nil
	}
	out := make(map[string]int, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}

func dice(a, b map[string]int) float64 {
	var total, shared int
	for k, n := range a {
		total += n
		shared += min(n, b[k])
	}
	for _, n := range b {
		total += n
	}
	if total == 0 {
		return 0
	}
	return 2 * float64(shared) / float64(total)
}
