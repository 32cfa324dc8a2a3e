package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/erazemk/ifrit/internal/model"
)

// Achievement is a named goal over the collection.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Check       func(items []model.Item) bool
}

// AchievementStatus is an achievement as shown to the user.
type AchievementStatus struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// Achievements is the fixed list of goals, in display order.
var Achievements = []Achievement{
	{"first-item", "Primeiro Cristal", "Own your first item", ownsAtLeast(1, nil)},
	{"collector-10", "Colecionador", "Own 10 items", ownsAtLeast(10, nil)},
	{"collector-50", "Guardião do Cristal", "Own 50 items", ownsAtLeast(50, nil)},
	{"rare-hunter", "Caçador de Raridades", "Own 10 items of rarity 5", ownsAtLeast(10, isMaxRarity)},
	{"ps1-complete", "Era de Ouro", "Own every PS1 game in the collection", ownsAll(isPS1Game)},
	{"lottery-complete", "Sorte Grande", "Complete a lottery", anyLotteryComplete},
	{"photographer", "Fotógrafo", "Photograph 10 items", photographed(10)},
	{"archivist", "Arquivista", "Own 5 books or artbooks", ownsAtLeast(5, isBook)},
}

func isMaxRarity(it model.Item) bool { return it.Rarity == model.MaxRarity }

func isPS1Game(it model.Item) bool {
	return it.Category == model.CategoryGames && it.Platform == "PS1"
}

func isBook(it model.Item) bool {
	return it.Category == model.CategoryBooks || it.Category == model.CategoryArtbooks
}

func ownsAtLeast(n int, match func(model.Item) bool) func([]model.Item) bool {
	return func(items []model.Item) bool { return countCollected(items, match) >= n }
}

// ownsAll is false when nothing matches.
func ownsAll(match func(model.Item) bool) func([]model.Item) bool {
	return func(items []model.Item) bool {
		found := false
		for _, it := range items {
			if !match(it) {
				continue
			}
			if !it.Collected() {
				return false
			}
			found = true
		}
		return found
	}
}

func anyLotteryComplete(items []model.Item) bool {
	for _, p := range LotteryProgress(items) {
		if p.Expected > 0 && p.Percent == 100 {
			return true
		}
	}
	return false
}

func photographed(n int) func([]model.Item) bool {
	return func(items []model.Item) bool {
		count := 0
		for _, it := range items {
			if it.Image != "" {
				count++
			}
		}
		return count >= n
	}
}

func countCollected(items []model.Item, match func(model.Item) bool) int {
	n := 0
	for _, it := range items {
		if it.Collected() && (match == nil || match(it)) {
			n++
		}
	}
	return n
}

// Evaluate checks every locked achievement against items, marks the ones
// that now hold as unlocked and returns them. Unlocked achievements are
// never checked again.
func Evaluate(items []model.Item, unlocked map[string]bool) []AchievementStatus {
	var newly []AchievementStatus
	for _, a := range Achievements {
		if unlocked[a.ID] {
			continue
		}
		if a.Check(items) {
			unlocked[a.ID] = true
			newly = append(newly, a.status(true))
		}
	}
	return newly
}

// Statuses returns every achievement with its unlocked flag.
func Statuses(unlocked map[string]bool) []AchievementStatus {
	out := make([]AchievementStatus, 0, len(Achievements))
	for _, a := range Achievements {
		out = append(out, a.status(unlocked[a.ID]))
	}
	return out
}

func (a Achievement) status(unlocked bool) AchievementStatus {
	return AchievementStatus{ID: a.ID, Title: a.Title, Description: a.Description, Unlocked: unlocked}
}

func loadUnlocked(ctx context.Context, s Storage) (map[string]bool, error) {
	unlocked := make(map[string]bool)
	raw, ok, err := s.Get(ctx, AchievementsKey)
	if err != nil || !ok {
		return unlocked, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return unlocked, nil
	}
	for _, id := range ids {
		unlocked[id] = true
	}
	return unlocked, nil
}

func saveUnlocked(ctx context.Context, s Storage, unlocked map[string]bool) error {
	ids := make([]string, 0, len(unlocked))
	for id := range unlocked {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding achievements: %w", err)
	}
	return s.Set(ctx, AchievementsKey, string(data))
}
