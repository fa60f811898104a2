package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/filter"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/gate"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/history"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/router"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/telemetry"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/upstream"
)

// Sub-commands reachable behind the gate trigger token.
const (
	musicCommand = "wyy"
	newsCommand  = "xw"
)

// Completer is the upstream completion call the orchestrator depends on.
type Completer interface {
	ChatCompletion(ctx context.Context, payload types.CompletionPayload) upstream.Result
}

// MusicRenderer renders the music-search answer.
type MusicRenderer interface {
	PlayerHTML(ctx context.Context, keywords string) string
}

// NewsRenderer renders the news-feed answer.
type NewsRenderer interface {
	LatestHTML(ctx context.Context) string
}

// Service composes parsing, gating, context assembly, the upstream call and
// post-filtering into the end-to-end message flow.
type Service struct {
	cfg      func() *config.Config
	registry *router.Registry
	gate     func() *gate.Gate
	store    *history.Store
	upstream Completer
	filters  *filter.Chain
	music    MusicRenderer
	news     NewsRenderer
	metrics  *telemetry.Metrics
	now      func() time.Time
}

func NewService(
	cfg func() *config.Config,
	registry *router.Registry,
	gateFn func() *gate.Gate,
	store *history.Store,
	completer Completer,
	filters *filter.Chain,
	music MusicRenderer,
	news NewsRenderer,
	metrics *telemetry.Metrics,
) *Service {
	return &Service{
		cfg:      cfg,
		registry: registry,
		gate:     gateFn,
		store:    store,
		upstream: completer,
		filters:  filters,
		music:    music,
		news:     news,
		metrics:  metrics,
		now:      time.Now,
	}
}

// HandleMessage runs one chat request end to end and always returns a
// complete envelope: denial and upstream failures are folded into the
// answer text, never surfaced as faults.
func (s *Service) HandleMessage(ctx context.Context, userID, conversationID string, req types.ChatRequest) types.ChatResponse {
	started := s.now()
	cfg := s.cfg()

	query := strings.TrimSpace(req.Query)
	model := req.Model
	if model == "" {
		model = s.registry.DefaultModel()
	}

	// Conversation key falls back to the user id when no explicit id is
	// given; the envelope uses its own fallback (see NewEnvelope).
	key := conversationID
	if key == "" {
		key = userID
	}

	s.store.Append(key, types.Message{Role: types.RoleUser, Content: query})
	recent := s.store.Recent(key, cfg.Chat.ContextWindow)

	answer, outQuery, outModel, kind := s.answer(ctx, userID, query, model, recent, req.ThinkingBudget)

	s.store.Append(key, types.Message{Role: types.RoleAssistant, Content: answer})

	duration := s.now().Sub(started)
	slog.Info("chat message handled",
		"user_id", userID,
		"conversation_key", key,
		"kind", kind,
		"model", outModel,
		"duration_ms", duration.Milliseconds(),
	)
	if s.metrics != nil {
		s.metrics.RecordRequest(kind, outModel, float64(duration.Milliseconds()))
	}

	return NewEnvelope(cfg.Chat, outModel, userID, outQuery, answer, conversationID, false)
}

// answer resolves the answer text for a query, returning the (possibly
// rewritten) query and model and the request kind for telemetry.
func (s *Service) answer(ctx context.Context, userID, query, model string, recent []types.Message, budget *int) (answer, outQuery, outModel, kind string) {
	cfg := s.cfg()

	if router.IsListCommand(query) {
		return s.registry.ListTable(), query, model, "list"
	}

	// The gate runs before any other special-token handling so that
	// sub-commands behind the trigger token cannot sidestep the windows.
	if d := s.gate().Check(ctx, userID, query, s.now()); d.Denied {
		return d.Answer, query, model, "denied"
	}

	tokens := strings.Fields(query)
	if len(tokens) > 1 && strings.HasPrefix(tokens[0], "test") {
		switch tokens[1] {
		case musicCommand:
			if len(tokens) > 2 {
				return s.music.PlayerHTML(ctx, tokens[2]), query, model, "music"
			}
		case newsCommand:
			return s.news.LatestHTML(ctx), query, model, "news"
		}
	}

	parsed := s.registry.ParsePrefix(query)
	if parsed.Model != "" {
		model = parsed.Model
		query = parsed.Query
	}

	// An unset budget is derived from the thinking keyword; an explicit
	// budget (including 0) from the request always wins.
	if budget == nil && parsed.Thinking {
		b := cfg.Chat.DefaultThinkingBudget
		budget = &b
	}

	messages := BuildMessages(cfg.Chat.SystemPrompt, query, recent)
	payload := BuildPayload(model, messages, budget)

	callStarted := s.now()
	res := s.upstream.ChatCompletion(ctx, payload)
	if s.metrics != nil {
		s.metrics.RecordUpstreamLatency(model, float64(s.now().Sub(callStarted).Milliseconds()))
	}
	if !res.OK {
		return res.Content, query, model, "upstream_error"
	}

	filtered, results := s.filters.Run(res.Content)
	for _, r := range results {
		if r.Action == filter.ActionReplace {
			slog.Warn("answer replaced by filter", "filter", r.FilterName, "user_id", userID)
			if s.metrics != nil {
				s.metrics.RecordFilterAction(r.FilterName, string(r.Action))
			}
		}
	}
	return filtered, query, model, "ok"
}
