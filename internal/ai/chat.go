package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
)

// Chat actions the assistant can request.
const (
	ActionAddItem    = "add_item"
	ActionSearch     = "search"
	ActionDeleteItem = "delete_item"
)

// searchLimit caps the items returned by a search action.
const searchLimit = 20

// Collection is the part of a collection controller the assistant drives.
type Collection interface {
	Items() []model.Item
	View(q inventory.Query) []model.Item
	Add(ctx context.Context, actor inventory.Actor, item model.Item) (inventory.Result, error)
	Delete(ctx context.Context, actor inventory.Actor, id int64, confirmed bool) (inventory.Result, error)
}

// Action is a structured request found in an assistant answer.
type Action struct {
	Action  string        `json:"action"`
	Item    *model.Item   `json:"item,omitempty"`
	Query   string        `json:"query,omitempty"`
	Filters ActionFilters `json:"filters,omitempty"`
	ItemID  int64         `json:"itemId,omitempty"`
}

// ActionFilters narrows a search action.
type ActionFilters struct {
	Category string `json:"category,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// ActionResult reports what executing an action did.
type ActionResult struct {
	Success              bool                          `json:"success"`
	Message              string                        `json:"message,omitempty"`
	Item                 *model.Item                   `json:"item,omitempty"`
	Items                []model.Item                  `json:"items,omitempty"`
	Count                int                           `json:"count,omitempty"`
	Pending              *model.PendingItem            `json:"pending,omitempty"`
	ConfirmationRequired bool                          `json:"confirmationRequired,omitempty"`
	Unlocked             []inventory.AchievementStatus `json:"unlocked,omitempty"`
}

// ChatReply is the answer to one chat message.
type ChatReply struct {
	Message        string        `json:"message"`
	Action         *Action       `json:"action,omitempty"`
	ActionResult   *ActionResult `json:"actionResult,omitempty"`
	ConversationID int64         `json:"conversationId"`
}

// Chat sends message to the assistant with the user's recent history and
// executes the structured action in the answer, if any. Deleting needs
// confirmed, like every other delete.
func (s *Service) Chat(ctx context.Context, actor inventory.Actor, coll Collection, message string, confirmed bool) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &inventory.ValidationError{Field: "message", Message: "is required"}
	}
	if s.completer == nil {
		return nil, ErrDisabled
	}

	history, err := s.history.Load(ctx, actor.UserID)
	if err != nil {
		s.log.Warn("loading chat history", zap.Error(err))
		history = nil
	}
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	userMsg := Message{Role: RoleUser, Content: message}

	out, err := s.complete(ctx, "chat", Request{
		System:      chatSystemPrompt(actor, coll.Items()),
		Messages:    append(history, userMsg),
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}
	if err := s.history.Append(ctx, actor.UserID, userMsg, Message{Role: RoleAssistant, Content: out}); err != nil {
		s.log.Warn("saving chat history", zap.Error(err))
	}

	reply := &ChatReply{Message: out, ConversationID: actor.UserID}
	if action := parseAction(out); action != nil {
		reply.Action = action
		reply.ActionResult = ExecuteAction(ctx, coll, actor, *action, confirmed)
	}
	return reply, nil
}

// ClearHistory forgets the conversation of userID.
func (s *Service) ClearHistory(ctx context.Context, userID int64) error {
	return s.history.Clear(ctx, userID)
}

func parseAction(answer string) *Action {
	raw, ok := ExtractJSON(answer)
	if !ok {
		return nil
	}
	var a Action
	if err := json.Unmarshal([]byte(raw), &a); err != nil || a.Action == "" {
		return nil
	}
	return &a
}

// ExecuteAction runs a on coll on behalf of actor. Failures are reported in
// the result, never as an error, so the chat answer is still delivered.
func ExecuteAction(ctx context.Context, coll Collection, actor inventory.Actor, a Action, confirmed bool) *ActionResult {
	switch a.Action {
	case ActionAddItem:
		if a.Item == nil {
			return &ActionResult{Message: "no item in action"}
		}
		res, err := coll.Add(ctx, actor, *a.Item)
		var pending *inventory.PendingApprovalError
		switch {
		case errors.As(err, &pending):
			return &ActionResult{
				Success: true,
				Message: fmt.Sprintf("Item %q was submitted for approval.", a.Item.Name),
				Pending: pending.Pending,
			}
		case err != nil:
			return &ActionResult{Message: err.Error()}
		}
		return &ActionResult{
			Success:  true,
			Message:  fmt.Sprintf("Item %q added.", res.Item.Name),
			Item:     res.Item,
			Unlocked: res.Unlocked,
		}

	case ActionSearch:
		items := coll.View(inventory.Query{
			Category: a.Filters.Category,
			Platform: a.Filters.Platform,
			Text:     a.Query,
		})
		count := len(items)
		if len(items) > searchLimit {
			items = items[:searchLimit]
		}
		return &ActionResult{Success: true, Items: items, Count: count}

	case ActionDeleteItem:
		if !confirmed {
			return &ActionResult{
				Message:              fmt.Sprintf("Deleting item %d needs confirmation.", a.ItemID),
				ConfirmationRequired: true,
			}
		}
		if _, err := coll.Delete(ctx, actor, a.ItemID, true); err != nil {
			return &ActionResult{Message: err.Error()}
		}
		return &ActionResult{Success: true, Message: "Item removed."}
	}
	return &ActionResult{Message: fmt.Sprintf("unknown action %q", a.Action)}
}

func chatSystemPrompt(actor inventory.Actor, items []model.Item) string {
	latest := make([]string, 0, 5)
	for _, it := range items[:min(5, len(items))] {
		latest = append(latest, it.Name)
	}

	return fmt.Sprintf(`You are the Ifrit Assistant, an AI assistant that helps Final Fantasy collectors manage their inventory.

You can add items from natural language, search items, give recommendations,
answer questions about the collection and suggest organization.

Collection context:
User: %s
Total items: %d
Categories: %s
Latest items: %s
Valid categories for new items: %s

Be friendly, concise and helpful. When the user asks to add an item, answer with JSON:
{"action": "add_item", "item": {"name": "", "category": "", "platform": "", "rarity": 0, "notes": ""}}

For searches, answer with:
{"action": "search", "query": "search term", "filters": {"category": "", "platform": ""}}

To remove an item by id, answer with:
{"action": "delete_item", "itemId": 0}

For normal conversation answer in plain text without JSON.`,
		actor.Username, len(items), strings.Join(inventory.Summarize(items).Categories, ", "),
		strings.Join(latest, ", "), strings.Join(model.Categories, ", "))
}

// Suggestions returns example prompts for the chat input.
func Suggestions(items []model.Item) []string {
	if len(items) == 0 {
		return []string{
			"Add Final Fantasy VII Remake for PS5",
			"Start my collection",
			"Which games are best to start with?",
		}
	}
	return []string{
		"Show my rarest items",
		"How much is my collection worth?",
		"What should I buy next?",
		"Organise my collection by rarity",
	}
}
