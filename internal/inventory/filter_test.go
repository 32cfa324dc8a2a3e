package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/ifrit/internal/model"
)

func names(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestApplyCategory(t *testing.T) {
	items := []model.Item{
		{ID: 1, Name: "A", Category: model.CategoryGames},
		{ID: 2, Name: "B", Category: model.CategoryBooks},
	}

	got := Apply(items, Query{Category: model.CategoryBooks})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	assert.Len(t, Apply(items, Query{Category: model.CategoryAll}), 2)
	assert.Len(t, Apply(items, Query{}), 2)

	sample := SampleData()
	for _, c := range model.Categories {
		for _, it := range Apply(sample, Query{Category: c}) {
			assert.Equal(t, c, it.Category)
		}
	}
}

func TestApplyTextAndPlatform(t *testing.T) {
	items := []model.Item{
		{Name: "Final Fantasy VII", Platform: "PS1"},
		{Name: "Moogle plush", Platform: "Merch", Notes: "Kupo!"},
		{Name: "Tetra Master", Platform: "Merch"},
	}

	assert.Equal(t, []string{"Moogle plush"}, names(Apply(items, Query{Text: "KUPO"})))
	assert.Equal(t, []string{"Final Fantasy VII"}, names(Apply(items, Query{Text: "ps1"})))
	assert.Equal(t, []string{"Moogle plush", "Tetra Master"}, names(Apply(items, Query{Platform: "Merch"})))
	assert.Empty(t, Apply(items, Query{Platform: "merch"}))
}

func TestApplySortName(t *testing.T) {
	items := []model.Item{{Name: "Zidane"}, {Name: "Aerith"}, {Name: "cloud"}}

	asc := Apply(items, Query{Sort: Sort{Field: SortName}})
	assert.Equal(t, []string{"Aerith", "cloud", "Zidane"}, names(asc))

	desc := Apply(items, Query{Sort: Sort{Field: SortName, Desc: true}})
	assert.Equal(t, []string{"Zidane", "cloud", "Aerith"}, names(desc))

	// The canonical list is untouched.
	assert.Equal(t, []string{"Zidane", "Aerith", "cloud"}, names(items))
}

func TestApplySortDefaultsAndStability(t *testing.T) {
	items := []model.Item{
		{Name: "no order"},
		{Name: "third", LotteryOrder: model.Ptr(3)},
		{Name: "first", LotteryOrder: model.Ptr(1)},
		{Name: "also no order"},
	}
	got := Apply(items, Query{Sort: Sort{Field: SortLottery}})
	assert.Equal(t, []string{"first", "third", "no order", "also no order"}, names(got))

	years := []model.Item{{Name: "a", Year: model.Ptr(2000)}, {Name: "b"}, {Name: "c", Year: model.Ptr(1997)}}
	assert.Equal(t, []string{"b", "c", "a"}, names(Apply(years, Query{Sort: Sort{Field: SortYear}})))

	// Equal keys keep collection order in both directions.
	same := []model.Item{{Name: "x", Rarity: 2}, {Name: "y", Rarity: 2}, {Name: "z", Rarity: 5}}
	assert.Equal(t, []string{"x", "y", "z"}, names(Apply(same, Query{Sort: Sort{Field: SortRarity}})))
	assert.Equal(t, []string{"z", "x", "y"}, names(Apply(same, Query{Sort: Sort{Field: SortRarity, Desc: true}})))
}

func TestApplyDeterministic(t *testing.T) {
	sample := SampleData()
	q := Query{Text: "final", Sort: Sort{Field: SortRarity, Desc: true}}
	assert.Equal(t, Apply(sample, q), Apply(sample, q))
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    Sort
		wantErr bool
	}{
		{"", DefaultSort, false},
		{"name-asc", Sort{Field: SortName}, false},
		{"year-desc", Sort{Field: SortYear, Desc: true}, false},
		{"lottery-asc", Sort{Field: SortLottery}, false},
		{"lotteryOrder-desc", Sort{Field: SortLottery, Desc: true}, false},
		{"recent-desc", Sort{Field: SortCreated, Desc: true}, false},
		{"rarity", Sort{Field: SortRarity}, false},
		{"price-asc", Sort{}, true},
		{"name-up", Sort{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	assert.Equal(t, "rarity-desc", Sort{Field: SortRarity, Desc: true}.String())
}

func TestPlatforms(t *testing.T) {
	items := []model.Item{{Platform: "PS1"}, {Platform: ""}, {Platform: "Merch"}, {Platform: "PS1"}}
	assert.Equal(t, []string{"PS1", "Merch"}, Platforms(items))
}
