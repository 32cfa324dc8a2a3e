package inventory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/ifrit/internal/model"
)

// SortField names the item field a view is ordered by.
type SortField string

// Sort fields.
const (
	SortNone    SortField = ""
	SortName    SortField = "name"
	SortYear    SortField = "year"
	SortRarity  SortField = "rarity"
	SortLottery SortField = "lottery"
	SortCreated SortField = "createdAt"
)

// unorderedLottery places items without a lottery position last.
const unorderedLottery = 9999

// Sort is a field plus direction.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is the order of a fresh view.
var DefaultSort = Sort{Field: SortName}

func (s Sort) String() string {
	if s.Field == SortNone {
		return ""
	}
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return string(s.Field) + "-" + dir
}

// ParseSort parses "field-dir" keys such as "name-asc" or "lottery-desc".
// An empty string yields DefaultSort.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return DefaultSort, nil
	}
	field, dir, ok := strings.Cut(s, "-")
	if !ok {
		dir = "asc"
	}

	var out Sort
	switch field {
	case "name":
		out.Field = SortName
	case "year":
		out.Field = SortYear
	case "rarity":
		out.Field = SortRarity
	case "lottery", "lotteryOrder":
		out.Field = SortLottery
	case "createdAt", "recent":
		out.Field = SortCreated
	default:
		return Sort{}, fmt.Errorf("unknown sort field %q", field)
	}

	switch dir {
	case "asc":
	case "desc":
		out.Desc = true
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return out, nil
}

// Query selects and orders a view of the collection.
type Query struct {
	Category string // CategoryAll or empty disables category filtering
	Text     string
	Platform string
	Sort     Sort
}

// Apply returns the items matching q in q's order. items is never modified.
// Sorting is stable, so equal keys keep collection order.
func Apply(items []model.Item, q Query) []model.Item {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]model.Item, 0, len(items))

	for _, it := range items {
		if q.Category != "" && q.Category != model.CategoryAll && it.Category != q.Category {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(it.Name), text) &&
			!strings.Contains(strings.ToLower(it.Platform), text) &&
			!strings.Contains(strings.ToLower(it.Notes), text) {
			continue
		}
		if q.Platform != "" && it.Platform != q.Platform {
			continue
		}
		out = append(out, it.Clone())
	}

	if q.Sort.Field == SortNone {
		return out
	}

	compare := comparator(q.Sort.Field)
	slices.SortStableFunc(out, func(a, b model.Item) int {
		c := compare(a, b)
		if q.Sort.Desc {
			return -c
		}
		return c
	})
	return out
}

func comparator(f SortField) func(a, b model.Item) int {
	switch f {
	case SortName:
		return func(a, b model.Item) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortYear:
		return func(a, b model.Item) int { return cmp.Compare(a.YearOrZero(), b.YearOrZero()) }
	case SortRarity:
		return func(a, b model.Item) int { return cmp.Compare(a.Rarity, b.Rarity) }
	case SortLottery:
		return func(a, b model.Item) int { return cmp.Compare(lotteryPos(a), lotteryPos(b)) }
	case SortCreated:
		return func(a, b model.Item) int { return cmp.Compare(createdAt(a), createdAt(b)) }
	}
	return func(model.Item, model.Item) int { return 0 }
}

func lotteryPos(it model.Item) int {
	if it.LotteryOrder == nil {
		return unorderedLottery
	}
	return *it.LotteryOrder
}

func createdAt(it model.Item) int64 {
	if it.CreatedAt == nil {
		return 0
	}
	return *it.CreatedAt
}

// Platforms lists the distinct non-empty platforms in first-appearance order.
func Platforms(items []model.Item) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Platform != "" && !seen[it.Platform] {
			seen[it.Platform] = true
			out = append(out, it.Platform)
		}
	}
	return out
}
