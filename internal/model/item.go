package model

import "strings"

// Item is one collectible. JSON field names match the collection format
// used by exports, imports and the API.
type Item struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Platform     string `json:"platform,omitempty"`
	Rarity       int    `json:"rarity"`
	Year         *int   `json:"year,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Image        string `json:"image,omitempty"`
	Owned        *bool  `json:"owned,omitempty"`
	Sealed       *bool  `json:"sealed,omitempty"`
	LotteryOrder *int   `json:"lotteryOrder,omitempty"`
	CreatedAt    *int64 `json:"createdAt,omitempty"`
	CreatedBy    int64  `json:"createdBy,omitempty"`
}

// CategoryAll is the category selection that disables category filtering.
const CategoryAll = "Todos"

// Known categories.
const (
	CategoryGames       = "Jogos"
	CategoryBooks       = "Livros"
	CategoryLotteryVII  = "Loteria Final Fantasy VII Remake"
	CategoryLotteryIX   = "Loteria Final Fantasy IX"
	CategoryLotteryXVI  = "Loteria Final Fantasy XVI"
	CategorySoundtracks = "Trilhas Sonoras"
	CategoryMerch       = "Merch"
	CategoryArtbooks    = "Artbook/Databook"
	CategoryCards       = "Cartas"
)

// LotteryPrefix marks a themed sub-collection with ordered prizes.
const LotteryPrefix = "Loteria "

// MaxRarity is the highest rarity an item can be created with.
const MaxRarity = 5

// Categories lists the known categories in display order (without CategoryAll).
var Categories = []string{
	CategoryGames,
	CategoryBooks,
	CategoryLotteryVII,
	CategoryLotteryIX,
	CategoryLotteryXVI,
	CategorySoundtracks,
	CategoryMerch,
	CategoryArtbooks,
	CategoryCards,
}

// KnownCategory reports whether c is one of the fixed categories.
func KnownCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// IsLotteryCategory reports whether c names a lottery sub-collection.
func IsLotteryCategory(c string) bool {
	return strings.HasPrefix(c, LotteryPrefix)
}

// Collected reports whether the item counts as physically held. An explicit
// owned flag wins; otherwise having a photo counts.
func (i Item) Collected() bool {
	if i.Owned != nil {
		return *i.Owned
	}
	return i.Image != ""
}

// YearOrZero returns the year, or 0 when unset.
func (i Item) YearOrZero() int {
	if i.Year == nil {
		return 0
	}
	return *i.Year
}

// Clone returns a copy that shares no pointers with i.
func (i Item) Clone() Item {
	c := i
	if i.Year != nil {
		v := *i.Year
		c.Year = &v
	}
	if i.Owned != nil {
		v := *i.Owned
		c.Owned = &v
	}
	if i.Sealed != nil {
		v := *i.Sealed
		c.Sealed = &v
	}
	if i.LotteryOrder != nil {
		v := *i.LotteryOrder
		c.LotteryOrder = &v
	}
	if i.CreatedAt != nil {
		v := *i.CreatedAt
		c.CreatedAt = &v
	}
	return c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
