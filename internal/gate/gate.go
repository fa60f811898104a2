package gate

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/gate/policy"
)

// trigger marks the queries the gate inspects: only queries whose first
// whitespace token starts with this literal are subject to the time windows.
const trigger = "test"

// Window is a same-day [start,end] time-of-day range, inclusive on both ends.
// Windows crossing midnight are rejected by ParseWindow.
type Window struct {
	start int // minutes since midnight
	end   int
}

func (w Window) contains(minute int) bool {
	return minute >= w.start && minute <= w.end
}

// ParseWindow parses an HH:MM pair into a Window.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseHHMM(start)
	if err != nil {
		return Window{}, fmt.Errorf("parse window start %q: %w", start, err)
	}
	e, err := parseHHMM(end)
	if err != nil {
		return Window{}, fmt.Errorf("parse window end %q: %w", end, err)
	}
	if s > e {
		return Window{}, fmt.Errorf("window %s-%s crosses midnight", start, end)
	}
	return Window{start: s, end: e}, nil
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Decision is the outcome of the gate check.
type Decision struct {
	Denied bool
	Answer string // denial text shown to the user when Denied
}

// Gate is the maintenance-window guard. It gates by query shape, not
// identity: a query whose first token starts with "test" is denied inside
// any forbidden window unless the token matches the bypass hash.
type Gate struct {
	enabled   bool
	windows   []Window
	bypassMD5 string
	policy    *policy.Evaluator
	logger    *slog.Logger
}

// New builds a gate from config, validating every window.
func New(cfg config.GateConfig, logger *slog.Logger) (*Gate, error) {
	windows := make([]Window, 0, len(cfg.Windows))
	for _, w := range cfg.Windows {
		win, err := ParseWindow(w.Start, w.End)
		if err != nil {
			return nil, err
		}
		windows = append(windows, win)
	}

	g := &Gate{
		enabled:   cfg.Enabled,
		windows:   windows,
		bypassMD5: strings.ToLower(cfg.BypassMD5),
		logger:    logger,
	}

	if cfg.Policy.Enabled {
		eval := policy.NewEvaluator(func() config.PolicyConfig { return cfg.Policy })
		if err := eval.Load(); err != nil {
			return nil, fmt.Errorf("load gate policy: %w", err)
		}
		g.policy = eval
	}

	return g, nil
}

// Check decides whether the query may proceed at the given wall-clock time.
// It runs before any other special-token handling so sub-commands keyed by a
// token following "test" cannot sidestep the windows.
func (g *Gate) Check(ctx context.Context, userID, query string, now time.Time) Decision {
	if !g.enabled {
		return Decision{}
	}

	tokens := strings.Fields(query)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], trigger) {
		return Decision{}
	}

	if g.isBypass(tokens[0]) {
		return Decision{}
	}

	hhmm := now.Format("15:04")
	minute := now.Hour()*60 + now.Minute()
	for _, w := range g.windows {
		if w.contains(minute) {
			return Decision{Denied: true, Answer: "禁止访问 " + hhmm}
		}
	}

	if g.policy != nil {
		allowed, reason, err := g.policy.Evaluate(ctx, policy.Input{
			User:  policy.User{ID: userID},
			Query: policy.Query{FirstToken: tokens[0]},
			Time:  policy.Time{HHMM: hhmm, Hour: now.Hour(), Day: now.Weekday().String()},
		})
		if err != nil {
			g.logger.Error("gate policy evaluation failed", "error", err)
			return Decision{}
		}
		if !allowed {
			if reason == "" {
				reason = "禁止访问 " + hhmm
			}
			return Decision{Denied: true, Answer: reason}
		}
	}

	return Decision{}
}

// isBypass compares the MD5 of the token against the stored hash.
func (g *Gate) isBypass(token string) bool {
	if g.bypassMD5 == "" {
		return false
	}
	sum := md5.Sum([]byte(token))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(g.bypassMD5)) == 1
}
