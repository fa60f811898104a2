package chat

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/filter"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/gate"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/history"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/router"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/upstream"
)

type fakeCompleter struct {
	calls    int
	payloads []types.CompletionPayload
	result   upstream.Result
}

func (f *fakeCompleter) ChatCompletion(_ context.Context, p types.CompletionPayload) upstream.Result {
	f.calls++
	f.payloads = append(f.payloads, p)
	return f.result
}

type fakeMusic struct {
	calls    int
	keywords string
}

func (f *fakeMusic) PlayerHTML(_ context.Context, keywords string) string {
	f.calls++
	f.keywords = keywords
	return "music-html"
}

type fakeNews struct{ calls int }

func (f *fakeNews) LatestHTML(_ context.Context) string {
	f.calls++
	return "news-html"
}

type testEnv struct {
	svc      *Service
	store    *history.Store
	upstream *fakeCompleter
	music    *fakeMusic
	news     *fakeNews
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Chat.SystemPrompt = "system prompt"

	g, err := gate.New(config.GateConfig{
		Enabled: true,
		Windows: []config.GateWindow{{Start: "12:50", End: "13:30"}},
	}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatal(err)
	}

	registry := router.NewRegistry("deepseek-ai/DeepSeek-V3", []router.Alias{
		{Key: "ds", Model: "deepseek-ai/DeepSeek-V3"},
		{Key: "gg", Model: "gemini-2.0-flash"},
		{Key: "lo", Model: "Tongyi-Zhiwen/QwenLong-L1-32B", DeepThinking: true},
	})

	env := &testEnv{
		store:    history.NewStore(),
		upstream: &fakeCompleter{result: upstream.Result{OK: true, Content: "upstream answer"}},
		music:    &fakeMusic{},
		news:     &fakeNews{},
	}
	env.svc = NewService(
		func() *config.Config { return cfg },
		registry,
		func() *gate.Gate { return g },
		env.store,
		env.upstream,
		filter.NewChain(filter.NewIframeFilter()),
		env.music,
		env.news,
		nil,
	)
	// Fixed clock outside every forbidden window.
	env.svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 22, 0, 0, 0, time.Local)
	}
	return env
}

func (e *testEnv) atClock(hhmm string) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	e.svc.now = func() time.Time {
		return time.Date(2025, 6, 2, t.Hour(), t.Minute(), 0, 0, time.Local)
	}
}

func TestHandleMessage_NormalFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.svc.HandleMessage(context.Background(), "u1", "conv-1", types.ChatRequest{
		Query: "gg explain x",
	})

	if env.upstream.calls != 1 {
		t.Fatalf("upstream calls = %d", env.upstream.calls)
	}
	p := env.upstream.payloads[0]
	if p.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", p.Model)
	}
	if len(p.Messages) != 2 {
		t.Fatalf("messages = %+v", p.Messages)
	}
	if p.Messages[0].Role != types.RoleSystem || p.Messages[0].Content != "system prompt" {
		t.Errorf("first message = %+v", p.Messages[0])
	}
	if p.Messages[1].Role != types.RoleUser || p.Messages[1].Content != "explain x" {
		t.Errorf("last message = %+v", p.Messages[1])
	}
	if p.ThinkingBudget != nil {
		t.Error("budget should be unset")
	}

	if !strings.HasPrefix(resp.Answer, "upstream answer") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.Model != "gemini-2.0-flash" {
		t.Errorf("envelope model = %q", resp.Model)
	}
	if resp.Query != "explain x" {
		t.Errorf("envelope query = %q (should be the rewritten query)", resp.Query)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("conversation id = %q", resp.ConversationID)
	}

	// History: user message plus filtered assistant answer (without suffix).
	recent := env.store.Recent("conv-1", 10)
	if len(recent) != 2 {
		t.Fatalf("history = %+v", recent)
	}
	if recent[1].Role != types.RoleAssistant || recent[1].Content != "upstream answer" {
		t.Errorf("assistant entry = %+v", recent[1])
	}
}

func TestHandleMessage_DefaultModelWhenNoAlias(t *testing.T) {
	env := newTestEnv(t)

	resp := env.svc.HandleMessage(context.Background(), "u1", "", types.ChatRequest{
		Query: "explain x",
	})

	if env.upstream.payloads[0].Model != "deepseek-ai/DeepSeek-V3" {
		t.Errorf("model = %q", env.upstream.payloads[0].Model)
	}
	if resp.Query != "explain x" {
		t.Errorf("query = %q", resp.Query)
	}

	// Without an explicit conversation id history is keyed by user id.
	if got := env.store.Len("u1"); got != 2 {
		t.Errorf("history under user key = %d entries, want 2", got)
	}
}

func TestHandleMessage_ListShortCircuit(t *testing.T) {
	env := newTestEnv(t)

	resp := env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "List"})

	if env.upstream.calls != 0 {
		t.Error("list must not reach upstream")
	}
	if !strings.Contains(resp.Answer, "当前支持的模型映射表如下") {
		t.Errorf("answer = %q", resp.Answer)
	}
	// The assistant entry is still recorded.
	if got := env.store.Len("c1"); got != 2 {
		t.Errorf("history length = %d", got)
	}
}

func TestHandleMessage_GateDenial(t *testing.T) {
	env := newTestEnv(t)
	env.atClock("13:10")

	resp := env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "test anything"})

	if env.upstream.calls != 0 {
		t.Error("denied request must not reach upstream")
	}
	if !strings.HasPrefix(resp.Answer, "禁止访问 13:10") {
		t.Errorf("answer = %q", resp.Answer)
	}

	recent := env.store.Recent("c1", 10)
	if len(recent) != 2 || recent[0].Content != "test anything" {
		t.Errorf("history = %+v (user message must still be recorded)", recent)
	}
}

func TestHandleMessage_GateRunsBeforeSubCommands(t *testing.T) {
	env := newTestEnv(t)
	env.atClock("13:10")

	env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "test wyy 天后"})

	if env.music.calls != 0 {
		t.Error("music sub-command must not run inside a forbidden window")
	}
}

func TestHandleMessage_MusicCommand(t *testing.T) {
	env := newTestEnv(t)

	resp := env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "test wyy 天后"})

	if env.music.calls != 1 || env.music.keywords != "天后" {
		t.Errorf("music calls = %d keywords = %q", env.music.calls, env.music.keywords)
	}
	if env.upstream.calls != 0 {
		t.Error("music command must not reach upstream")
	}
	if !strings.HasPrefix(resp.Answer, "music-html") {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestHandleMessage_MusicCommandWithoutKeywordsFallsThrough(t *testing.T) {
	env := newTestEnv(t)

	env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "test wyy"})

	if env.music.calls != 0 {
		t.Error("music renderer should not run without keywords")
	}
	if env.upstream.calls != 1 {
		t.Error("query should fall through to the upstream call")
	}
}

func TestHandleMessage_NewsCommand(t *testing.T) {
	env := newTestEnv(t)

	resp := env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "test xw"})

	if env.news.calls != 1 {
		t.Errorf("news calls = %d", env.news.calls)
	}
	if env.upstream.calls != 0 {
		t.Error("news command must not reach upstream")
	}
	if !strings.HasPrefix(resp.Answer, "news-html") {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestHandleMessage_ThinkingBudgetDerived(t *testing.T) {
	env := newTestEnv(t)

	env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "lo thinking solve y"})

	p := env.upstream.payloads[0]
	if p.Model != "Tongyi-Zhiwen/QwenLong-L1-32B" {
		t.Errorf("model = %q", p.Model)
	}
	if p.ThinkingBudget == nil || *p.ThinkingBudget != 8192 {
		t.Errorf("budget = %v, want derived default 8192", p.ThinkingBudget)
	}
	if p.Messages[len(p.Messages)-1].Content != "solve y" {
		t.Errorf("query = %q", p.Messages[len(p.Messages)-1].Content)
	}
}

func TestHandleMessage_ExplicitZeroBudgetWins(t *testing.T) {
	env := newTestEnv(t)
	zero := 0

	env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{
		Query:          "lo thinking solve y",
		ThinkingBudget: &zero,
	})

	p := env.upstream.payloads[0]
	if p.ThinkingBudget == nil || *p.ThinkingBudget != 0 {
		t.Errorf("budget = %v, want explicit 0", p.ThinkingBudget)
	}
}

func TestHandleMessage_UpstreamFailureBecomesAnswer(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.result = upstream.Result{OK: false, Content: "[错误] boom\n\n后端返回: detail"}

	resp := env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "hello"})

	if !strings.HasPrefix(resp.Answer, "[错误] boom") {
		t.Errorf("answer = %q", resp.Answer)
	}

	recent := env.store.Recent("c1", 10)
	if len(recent) != 2 || !strings.HasPrefix(recent[1].Content, "[错误]") {
		t.Errorf("history = %+v", recent)
	}
}

func TestHandleMessage_IframeAnswerReplaced(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.result = upstream.Result{OK: true, Content: "<iframe src=x>"}

	resp := env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "hello"})

	if !strings.HasPrefix(resp.Answer, filter.IframeSubstitute) {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestHandleMessage_BypassTokenSkipsGate(t *testing.T) {
	env := newTestEnv(t)
	env.atClock("13:10")

	// Rebuild the gate with a bypass hash for the token "test-magic".
	g, err := gate.New(config.GateConfig{
		Enabled:   true,
		Windows:   []config.GateWindow{{Start: "12:50", End: "13:30"}},
		BypassMD5: "5734342d0d5754bba02ead2ef3fc61c0",
	}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatal(err)
	}
	env.svc.gate = func() *gate.Gate { return g }

	env.svc.HandleMessage(context.Background(), "u1", "c1", types.ChatRequest{Query: "test-magic explain"})

	if env.upstream.calls != 1 {
		t.Error("bypass token should reach upstream inside the window")
	}
}
