package inventory

import (
	"math"
	"regexp"
	"strings"

	"github.com/erazemk/ifrit/internal/model"
)

// Progress is the completion of one lottery category.
type Progress struct {
	Category  string `json:"category"`
	Title     string `json:"title"`
	Expected  int    `json:"expected"`
	Collected int    `json:"collected"`
	Percent   int    `json:"percent"`
}

// LotteryProgress aggregates completion for every lottery category present
// in items, in order of first appearance.
//
// When any item of a category declares a lottery position, the expected
// count is the highest position and collected counts distinct positions
// held. Otherwise both are plain item counts.
func LotteryProgress(items []model.Item) []Progress {
	type acc struct {
		count, held int
		maxOrder    int
		ordered     bool
		heldOrders  map[int]bool
	}

	var order []string
	byCategory := make(map[string]*acc)

	for _, it := range items {
		if !model.IsLotteryCategory(it.Category) {
			continue
		}
		a, ok := byCategory[it.Category]
		if !ok {
			a = &acc{heldOrders: make(map[int]bool)}
			byCategory[it.Category] = a
			order = append(order, it.Category)
		}
		a.count++
		collected := it.Collected()
		if collected {
			a.held++
		}
		if it.LotteryOrder != nil {
			a.ordered = true
			a.maxOrder = max(a.maxOrder, *it.LotteryOrder)
			if collected {
				a.heldOrders[*it.LotteryOrder] = true
			}
		}
	}

	out := make([]Progress, 0, len(order))
	for _, c := range order {
		a := byCategory[c]
		p := Progress{
			Category:  c,
			Title:     strings.TrimPrefix(c, model.LotteryPrefix),
			Expected:  a.count,
			Collected: a.held,
		}
		if a.ordered {
			p.Expected = a.maxOrder
			p.Collected = len(a.heldOrders)
		}
		p.Percent = percent(p.Collected, p.Expected)
		out = append(out, p)
	}
	return out
}

func percent(collected, expected int) int {
	if expected <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(collected) / float64(expected)))
	return min(max(p, 0), 100)
}

var (
	endPrizeRe   = regexp.MustCompile(`(?i)Pr[eê]mio\s+Raro|End\s*Prize`)
	prizeTierRe  = regexp.MustCompile(`(?i)^Pr[eê]m[ií]?o?s?\s+([A-G]):`)
	figurePrizeB = regexp.MustCompile(`(?i)^Pr[eê]mio\s+B:\s*Figure Collection\s+—\s*(.+)$`)
)

// PrizeLevel returns the prize tier label of a lottery item, such as
// "Prêmio A" or "End". Items outside lottery categories have none.
func PrizeLevel(it model.Item) string {
	if it.Name == "" || !model.IsLotteryCategory(it.Category) {
		return ""
	}
	if endPrizeRe.MatchString(it.Name) {
		return "End"
	}
	m := prizeTierRe.FindStringSubmatch(it.Name)
	if m == nil {
		return ""
	}
	return "Prêmio " + strings.ToUpper(m[1])
}

// PrizeDesign returns the design name of a Final Fantasy XVI "Prêmio B"
// figure, e.g. "Shiva".
func PrizeDesign(it model.Item) string {
	if it.Category != model.CategoryLotteryXVI {
		return ""
	}
	m := figurePrizeB.FindStringSubmatch(it.Name)
	if m == nil {
		return ""
	}
	return m[1]
}
