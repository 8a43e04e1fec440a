package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"playground-ai/internal/state"
)

const (
	TypeDaily       = "daily"
	TypeMorning     = "morning"
	TypeAchievement = "achievement"
	TypeOther       = "other"

	DefaultCategory    = "general"
	DefaultAttribution = "Personal Playground"

	dailyQuoteKey     = "dailyQuote"
	dailyQuoteDateKey = "dailyQuoteDate"

	// Layout of the calendar date the daily quote is cached under, e.g.
	// "Mon Jan 02 2006". It is taken in server local time.
	dailyDateLayout = "Mon Jan 02 2006"
)

type Quote struct {
	Quote       string    `json:"quote"`
	Attribution string    `json:"attribution"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
	Fallback    bool      `json:"fallback,omitempty"`
}

type Generator interface {
	GenerateQuote(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// ParseQuote splits generated text of the form `"<quote>" - <attribution>`.
func ParseQuote(text string) (string, string) {
	parts := strings.Split(strings.TrimSpace(text), " - ")

	quote := strings.TrimPrefix(parts[0], `"`)
	quote = strings.TrimSuffix(quote, `"`)

	attribution := DefaultAttribution
	if len(parts) > 1 && parts[1] != "" {
		attribution = parts[1]
	}
	return quote, attribution
}

type Snapshot struct {
	Current *Quote `json:"current"`
	Loading bool   `json:"loading"`
}

// Service fetches motivational quotes for one user and caches the quote of
// the day.
type Service struct {
	gen     Generator
	state   state.Store
	catalog *catalog
	logger  *slog.Logger
	now     func() time.Time
	pick    func(n int) int

	mu      sync.Mutex
	current *Quote
	// Number of fetches in flight. Overlapping fetches are allowed.
	inFlight int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(gen Generator, st state.Store, opts ...Option) *Service {
	s := &Service{
		gen:     gen,
		state:   st,
		catalog: defaultCatalog,
		logger:  slog.Default(),
		now:     time.Now,
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "quotes")
	return s
}

// Fetch generates a quote. It never fails: when the generator fails a
// canned quote marked as fallback is returned instead.
func (s *Service) Fetch(ctx context.Context, quoteType, category string) Quote {
	if quoteType == "" {
		quoteType = TypeDaily
	}
	if category == "" {
		category = DefaultCategory
	}

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	quote := s.generate(ctx, quoteType, category)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	s.current = &quote
	if quote.Type == TypeDaily && !quote.Fallback {
		s.cacheDailyLocked(quote)
	}
	return quote
}

func (s *Service) generate(ctx context.Context, quoteType, category string) Quote {
	text, err := s.gen.GenerateQuote(ctx, s.catalog.SystemPrompt, s.catalog.Prompt(quoteType, category))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("no quote generated")
	}
	if err != nil {
		s.logger.Error("error generating quote, using fallback", "type", quoteType, "category", category, "error", err)
		return s.fallback(quoteType)
	}

	quote, attribution := ParseQuote(text)
	return Quote{
		Quote:       quote,
		Attribution: attribution,
		Type:        quoteType,
		Category:    category,
		Timestamp:   s.now(),
	}
}

func (s *Service) fallback(quoteType string) Quote {
	candidates := s.catalog.fallbacksFor(quoteType)
	f := candidates[s.pick(len(candidates))]
	return Quote{
		Quote:       f.Quote,
		Attribution: DefaultAttribution,
		Type:        f.Type,
		Category:    DefaultCategory,
		Timestamp:   s.now(),
		Fallback:    true,
	}
}

func (s *Service) today() string {
	return s.now().Format(dailyDateLayout)
}

func (s *Service) cacheDailyLocked(quote Quote) {
	data, err := json.Marshal(quote)
	if err != nil {
		s.logger.Error("error encoding daily quote", "error", err)
		return
	}
	if err := s.state.Save(dailyQuoteKey, data); err != nil {
		s.logger.Error("error caching daily quote", "error", err)
		return
	}
	if err := s.state.Save(dailyQuoteDateKey, []byte(s.today())); err != nil {
		s.logger.Error("error caching daily quote date", "error", err)
	}
}

func (s *Service) cachedDaily() (Quote, bool) {
	date, err := s.state.Load(dailyQuoteDateKey)
	if err != nil || string(date) != s.today() {
		return Quote{}, false
	}

	data, err := s.state.Load(dailyQuoteKey)
	if err != nil {
		return Quote{}, false
	}

	var quote Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		s.logger.Error("error decoding cached daily quote", "error", err)
		return Quote{}, false
	}
	return quote, true
}

// Daily returns today's cached quote, fetching a new one when the cache is
// empty or from another day.
func (s *Service) Daily(ctx context.Context) Quote {
	if quote, ok := s.cachedDaily(); ok {
		s.mu.Lock()
		s.current = &quote
		s.mu.Unlock()
		return quote
	}
	return s.Fetch(ctx, TypeDaily, DefaultCategory)
}

func (s *Service) ByCategory(ctx context.Context, category string) Quote {
	return s.Fetch(ctx, TypeDaily, category)
}

func (s *Service) Morning(ctx context.Context) Quote {
	return s.Fetch(ctx, TypeMorning, DefaultCategory)
}

func (s *Service) Achievement(ctx context.Context) Quote {
	return s.Fetch(ctx, TypeAchievement, DefaultCategory)
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Loading: s.inFlight > 0}
	if s.current != nil {
		current := *s.current
		snap.Current = &current
	}
	return snap
}
