package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role string
		perm Permission
		want bool
	}{
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermResetDatabase, true},
		{RoleEditor, PermEditItems, true},
		{RoleEditor, PermDeleteItems, false},
		{RoleEditor, PermDeleteOwnItems, true},
		{RoleEditor, PermImportData, true},
		{RoleContributor, PermCreateItems, true},
		{RoleContributor, PermEditItems, false},
		{RoleContributor, PermEditOwnItems, true},
		{RoleContributor, PermImportData, false},
		{RoleViewer, PermViewLottery, true},
		{RoleViewer, PermExportData, true},
		{RoleViewer, PermCreateItems, false},
		{"", PermViewItems, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Can(tt.role, tt.perm), "Can(%q, %q)", tt.role, tt.perm)
	}
}

func TestNeedsApproval(t *testing.T) {
	assert.True(t, NeedsApproval(RoleContributor))
	assert.False(t, NeedsApproval(RoleEditor))
	assert.False(t, NeedsApproval(RoleAdmin))
}

func TestItemCollected(t *testing.T) {
	assert.False(t, Item{}.Collected())
	assert.True(t, Item{Image: "data:image/jpeg;base64,AA=="}.Collected())
	assert.False(t, Item{Image: "data:image/jpeg;base64,AA==", Owned: Ptr(false)}.Collected())
	assert.True(t, Item{Owned: Ptr(true)}.Collected())
}

func TestItemClone(t *testing.T) {
	orig := Item{ID: 1, Name: "Cloud", Year: Ptr(1997), Owned: Ptr(true)}
	c := orig.Clone()
	*c.Year = 2000
	*c.Owned = false

	assert.Equal(t, 1997, *orig.Year)
	assert.True(t, *orig.Owned)
}

func TestCategories(t *testing.T) {
	assert.True(t, KnownCategory(CategoryGames))
	assert.False(t, KnownCategory(CategoryAll))
	assert.False(t, KnownCategory("Artbooks"))
	assert.True(t, IsLotteryCategory(CategoryLotteryIX))
	assert.False(t, IsLotteryCategory(CategoryMerch))
}

func TestItemUnmarshalLenient(t *testing.T) {
	var it Item
	err := json.Unmarshal([]byte(`{"id":"12","name":"Ifrit","category":"Merch","rarity":"5","year":1997.0,
		"owned":0,"sealed":"false","lotteryOrder":3,"createdAt":"2024-01-01T00:00:00Z","notes":42}`), &it)
	require.NoError(t, err)
	assert.Equal(t, int64(12), it.ID)
	assert.Equal(t, 5, it.Rarity)
	assert.Equal(t, 1997, *it.Year)
	assert.False(t, *it.Owned)
	assert.False(t, *it.Sealed)
	assert.Equal(t, 3, *it.LotteryOrder)
	assert.Equal(t, int64(1704067200000), *it.CreatedAt)
	assert.Equal(t, "42", it.Notes)

	var bare Item
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Shiva","createdAt":1700000000000,"year":""}`), &bare))
	assert.Nil(t, bare.Year)
	assert.Nil(t, bare.Owned)
	assert.Equal(t, int64(1700000000000), *bare.CreatedAt)

	assert.ErrorIs(t, json.Unmarshal([]byte(`"Bahamut"`), &bare), ErrNotObject)
}
