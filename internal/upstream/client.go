package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
)

// fallbackContent is returned when the upstream body parses but carries no
// usable completion text.
const fallbackContent = "failed to get datas"

// Client talks to the single upstream chat-completion API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxConcurrent,
				MaxIdleConnsPerHost: cfg.MaxConcurrent,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// Result is the tagged outcome of a completion call. Failures are not
// errors to the caller: Content carries the human-readable diagnostic and
// the orchestrator folds it into the answer.
type Result struct {
	OK        bool
	Content   string
	ErrDetail string
}

// ChatCompletion performs one completion call. There is no retry: a failure
// is converted into diagnostic text and returned.
func (c *Client) ChatCompletion(ctx context.Context, payload types.CompletionPayload) Result {
	data, err := json.Marshal(payload)
	if err != nil {
		return failure(fmt.Errorf("marshal payload: %w", err), "")
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return failure(fmt.Errorf("create request: %w", err), "")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return failure(err, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Errorf("read response: %w", err), "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(fmt.Errorf("上游返回状态 %d", resp.StatusCode), string(body))
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failure(fmt.Errorf("解析上游响应失败: %w", err), string(body))
	}

	content := fallbackContent
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
		content = parsed.Choices[0].Message.Content
	}
	return Result{OK: true, Content: content}
}

// failure formats the diagnostic text exactly as callers display it,
// folding any upstream body into the message.
func failure(err error, body string) Result {
	detail := ""
	if body != "" {
		detail = "\n\n后端返回: " + body
	}
	return Result{
		OK:        false,
		Content:   fmt.Sprintf("[错误] %v%s", err, detail),
		ErrDetail: detail,
	}
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
