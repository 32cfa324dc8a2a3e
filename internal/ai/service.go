package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/ifrit/internal/imaging"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/metrics"
	"github.com/erazemk/ifrit/internal/model"
)

// Service runs the AI features against a Completer.
type Service struct {
	completer Completer
	history   HistoryStore
	log       *zap.Logger
	now       func() time.Time
}

// NewService returns a service. A nil completer disables every feature
// that needs a model; local features keep working.
func NewService(c Completer, history HistoryStore, log *zap.Logger) *Service {
	if history == nil {
		history = NewMemoryHistory()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{completer: c, history: history, log: log, now: time.Now}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool { return s.completer != nil }

func (s *Service) complete(ctx context.Context, feature string, req Request) (string, error) {
	if s.completer == nil {
		return "", ErrDisabled
	}
	start := time.Now()
	out, err := s.completer.Complete(ctx, req)
	metrics.ObserveAI(feature, s.completer.Name(), err, time.Since(start))
	if err != nil {
		s.log.Warn("AI request failed", zap.String("feature", feature), zap.Error(err))
		return "", err
	}
	return out, nil
}

// Recommendation is one suggested purchase.
type Recommendation struct {
	Name           string `json:"name"`
	Reason         string `json:"reason,omitempty"`
	Priority       string `json:"priority,omitempty"`
	EstimatedValue string `json:"estimatedValue,omitempty"`
	Category       string `json:"category,omitempty"`
}

// Recommendations is the answer of Recommend.
type Recommendations struct {
	Recommendations []Recommendation `json:"recommendations"`
	Insights        string           `json:"insights,omitempty"`
	MissingGems     []string         `json:"missingGems,omitempty"`
	Reasoning       string           `json:"reasoning,omitempty"`
}

var starterRecommendations = Recommendations{
	Recommendations: []Recommendation{
		{Name: "Final Fantasy VII", Reason: "A timeless classic to start the collection", Category: model.CategoryGames},
		{Name: "Final Fantasy X", Reason: "A great entry point to the series", Category: model.CategoryGames},
		{Name: "Final Fantasy XIV Online", Reason: "The MMO side of the series", Category: model.CategoryGames},
	},
	Reasoning: "Empty collection: suggestions for beginners",
}

// Recommend suggests five items to add to the collection. An empty
// collection gets fixed starter suggestions without calling the model.
func (s *Service) Recommend(ctx context.Context, items []model.Item) (*Recommendations, error) {
	if len(items) == 0 {
		r := starterRecommendations
		return &r, nil
	}

	stats := inventory.Summarize(items)
	names := make([]string, 0, 10)
	for _, it := range items[:min(10, len(items))] {
		names = append(names, it.Name)
	}
	more := ""
	if len(items) > 10 {
		more = "..."
	}

	prompt := fmt.Sprintf(`Analyse this Final Fantasy collection and suggest 5 items to add.

Current collection:
- Total items: %d
- Categories: %s
- Platforms: %s
- Average rarity: %.1f/5
- Items: %s%s

Consider gaps in the main series, complementary items (spin-offs, merchandise),
special or rare editions, collector value and market trends.

Answer in JSON:
{
  "recommendations": [
    {"name": "item name", "reason": "why", "priority": "high/medium/low", "estimatedValue": "$X - Y", "category": "category"}
  ],
  "insights": "overall analysis of the collection",
  "missingGems": ["rare items that are missing"]
}`, len(items), strings.Join(stats.Categories, ", "), strings.Join(inventory.Platforms(items), ", "),
		stats.AvgRarity, strings.Join(names, ", "), more)

	out, err := s.complete(ctx, "recommendations", Request{
		System:      "You are an expert in Final Fantasy collecting.",
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}
	var r Recommendations
	if err := DecodeJSON(out, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ValueQuery describes the item to price.
type ValueQuery struct {
	Name     string `json:"itemName"`
	Rarity   int    `json:"rarity"`
	Year     *int   `json:"year,omitempty"`
	Platform string `json:"platform"`
}

// ValueRange is a price estimate.
type ValueRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// ValuePrediction is the answer of PredictValue.
type ValuePrediction struct {
	EstimatedValue      ValueRange `json:"estimatedValue"`
	Trend               string     `json:"trend"`
	Reasoning           string     `json:"reasoning"`
	InvestmentPotential string     `json:"investmentPotential"`
}

// PredictValue estimates the current market value of an item.
func (s *Service) PredictValue(ctx context.Context, q ValueQuery) (*ValuePrediction, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, &inventory.ValidationError{Field: "itemName", Message: "is required"}
	}
	year := "unknown"
	if q.Year != nil {
		year = fmt.Sprint(*q.Year)
	}

	prompt := fmt.Sprintf(`As a Final Fantasy collectibles market expert, estimate the current market value of this item:

Item: %s
Rarity: %d/5
Year: %s
Platform: %s

Consider marketplace prices, rarity and demand, good condition and appreciation trends.

Answer in JSON:
{
  "estimatedValue": {"min": 0, "max": 0, "average": 0},
  "trend": "rising/stable/falling",
  "reasoning": "short explanation",
  "investmentPotential": "high/medium/low"
}`, q.Name, q.Rarity, year, q.Platform)

	out, err := s.complete(ctx, "predict-value", Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: 0.5,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, err
	}
	var p ValuePrediction
	if err := DecodeJSON(out, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Organization is the answer of Organize.
type Organization struct {
	RecommendedStrategy string   `json:"recommendedStrategy"`
	SecondarySort       string   `json:"secondarySort"`
	Reasoning           string   `json:"reasoning"`
	SpecialSections     []string `json:"specialSections,omitempty"`
}

// Organize suggests how to arrange the collection.
func (s *Service) Organize(ctx context.Context, items []model.Item) (*Organization, error) {
	prompt := fmt.Sprintf(`Analyse this collection of %d Final Fantasy items and suggest the best way to organise it.

Current categories: %s

Options: series chronology (I to XVI), platform, rarity, market value, type (games, merchandise, books).

Answer in JSON:
{
  "recommendedStrategy": "main strategy",
  "secondarySort": "secondary criterion",
  "reasoning": "why this fits",
  "specialSections": ["suggested special sections"]
}`, len(items), strings.Join(inventory.Summarize(items).Categories, ", "))

	out, err := s.complete(ctx, "organize", Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: 0.6,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, err
	}
	var o Organization
	if err := DecodeJSON(out, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Insights bundles recommendations, trends and organization.
type Insights struct {
	Recommendations *Recommendations `json:"recommendations"`
	Trends          Trends           `json:"trends"`
	Organization    *Organization    `json:"organization"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// Insights runs the model backed analyses concurrently.
func (s *Service) Insights(ctx context.Context, items []model.Item) (*Insights, error) {
	if s.completer == nil {
		return nil, ErrDisabled
	}
	out := &Insights{Trends: AnalyzeTrends(items, s.now())}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.Recommend(gctx, items)
		out.Recommendations = r
		return err
	})
	g.Go(func() error {
		o, err := s.Organize(gctx, items)
		out.Organization = o
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.GeneratedAt = s.now().UTC()
	return out, nil
}

// ImageAnalysis is what the model recognised in a photo.
type ImageAnalysis struct {
	Name       string   `json:"name"`
	Platform   string   `json:"platform,omitempty"`
	Category   string   `json:"category,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	Rarity     int      `json:"rarity"`
	Tags       []string `json:"tags,omitempty"`
	Confidence float64  `json:"confidence"`
}

// AnalyzeImage identifies the collectible in a photo. The photo is
// downscaled and re-encoded before it is sent.
func (s *Service) AnalyzeImage(ctx context.Context, r io.Reader) (*ImageAnalysis, error) {
	if s.completer == nil {
		return nil, ErrDisabled
	}
	img, err := imaging.Process(r)
	if err != nil {
		return nil, &inventory.ValidationError{Field: "image", Message: err.Error()}
	}

	prompt := fmt.Sprintf(`Analyse this picture and identify the Final Fantasy item:
name, platform (PS1, PS2, PS3, PS4, PS5, Switch, PC, Xbox, ...), category (one of: %s),
release year if visible, edition or condition details, estimated rarity (0-5) and relevant tags.

Answer ONLY with valid JSON:
{"name": "", "platform": "", "category": "", "year": 0, "notes": "", "rarity": 0, "tags": [], "confidence": 0.0}`,
		strings.Join(model.Categories, ", "))

	out, err := s.complete(ctx, "analyze-image", Request{
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Image:     &Image{MIME: img.MIME, Data: img.Data},
		MaxTokens: 500,
	})
	if err != nil {
		return nil, err
	}
	var a ImageAnalysis
	if err := DecodeJSON(out, &a); err != nil {
		return nil, err
	}
	a.Rarity = min(max(a.Rarity, 0), model.MaxRarity)
	if a.Year != nil && *a.Year == 0 {
		a.Year = nil
	}
	return &a, nil
}

// IsProviderError reports whether err came from the model provider rather
// than from bad input.
func IsProviderError(err error) bool {
	var ve *inventory.ValidationError
	return err != nil && !errors.Is(err, ErrDisabled) && !errors.As(err, &ve)
}
