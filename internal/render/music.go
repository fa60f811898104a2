package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// MusicPlayer renders a netease music search hit as an embeddable HTML
// player with cleaned lyrics. Every failure is rendered as a literal string:
// the orchestrator treats renderer output as an opaque answer.
type MusicPlayer struct {
	searchURL string
	musicURL  string
	lyricURL  string
	client    *http.Client
}

func NewMusicPlayer() *MusicPlayer {
	return &MusicPlayer{
		searchURL: "https://163api.qijieya.cn/search",
		musicURL:  "https://api.bugpk.com/api/163_music",
		lyricURL:  "https://163api.qijieya.cn/lyric",
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

var (
	lyricTimestampPattern = regexp.MustCompile(`\[\d{2}:\d{2}\.\d{2,3}\]`)
	lyricMetaPattern      = regexp.MustCompile(`\[.*?:\s*.*?\]\s*\n?`)
)

// PlayerHTML searches for the keywords and renders the best match.
func (p *MusicPlayer) PlayerHTML(ctx context.Context, keywords string) string {
	song, err := p.search(ctx, keywords)
	if err != nil {
		return renderFetchError(err)
	}
	if song == nil {
		return "未找到相关歌曲。"
	}

	musicURL, err := p.playURL(ctx, song.ID)
	if err != nil {
		return renderFetchError(err)
	}
	if musicURL == "" {
		return "未能获取歌曲播放链接。"
	}

	lyricHTML, err := p.lyricHTML(ctx, song.ID)
	if err != nil {
		return renderFetchError(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>歌曲: %s</p>\n<p>歌手: %s</p>\n", song.Name, song.Artist)
	fmt.Fprintf(&b, "<audio controls src=%q></audio>\n", musicURL)
	b.WriteString(lyricHTML)
	return b.String()
}

type song struct {
	ID     int64
	Name   string
	Artist string
}

func (p *MusicPlayer) search(ctx context.Context, keywords string) (*song, error) {
	var parsed struct {
		Result struct {
			Songs []struct {
				ID      int64  `json:"id"`
				Name    string `json:"name"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
			} `json:"songs"`
		} `json:"result"`
	}
	params := url.Values{"keywords": {keywords}, "limit": {"1"}}
	if err := p.getJSON(ctx, p.searchURL, params, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Result.Songs) == 0 {
		return nil, nil
	}
	s := parsed.Result.Songs[0]
	artist := ""
	if len(s.Artists) > 0 {
		artist = s.Artists[0].Name
	}
	return &song{ID: s.ID, Name: s.Name, Artist: artist}, nil
}

func (p *MusicPlayer) playURL(ctx context.Context, id int64) (string, error) {
	var parsed struct {
		URL    string `json:"url"`
		Status int    `json:"status"`
	}
	params := url.Values{
		"ids":   {fmt.Sprintf("%d", id)},
		"level": {"exhigh"},
		"type":  {"json"},
	}
	if err := p.getJSON(ctx, p.musicURL, params, &parsed); err != nil {
		return "", err
	}
	return parsed.URL, nil
}

func (p *MusicPlayer) lyricHTML(ctx context.Context, id int64) (string, error) {
	var parsed struct {
		Lrc struct {
			Lyric string `json:"lyric"`
		} `json:"lrc"`
	}
	params := url.Values{"id": {fmt.Sprintf("%d", id)}}
	if err := p.getJSON(ctx, p.lyricURL, params, &parsed); err != nil {
		return "", err
	}
	if parsed.Lrc.Lyric == "" {
		return "", nil
	}

	cleaned := lyricTimestampPattern.ReplaceAllString(parsed.Lrc.Lyric, "")
	cleaned = lyricMetaPattern.ReplaceAllString(cleaned, "")

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", nil
	}
	return `<div style="font-size: smaller; line-height: 1.15;"><p>` + strings.Join(lines, "<br>") + `</p></div>`, nil
}

// fetchError carries an HTTP failure with enough detail to render it.
type fetchError struct {
	status int
	body   string
	err    error
}

func (e *fetchError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("status %d", e.status)
}

func renderFetchError(err error) string {
	if fe, ok := err.(*fetchError); ok {
		if fe.err == nil {
			return fmt.Sprintf("API请求失败, 状态码: %d. 详细信息: %s", fe.status, fe.body)
		}
		return fmt.Sprintf("请求发送失败: %v", fe.err)
	}
	if _, ok := err.(*json.SyntaxError); ok {
		return "解析响应数据失败, 可能不是有效的 JSON。"
	}
	return fmt.Sprintf("发生未知错误: %v", err)
}

func (p *MusicPlayer) getJSON(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &fetchError{err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return &fetchError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &fetchError{err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &fetchError{status: resp.StatusCode, body: string(body)}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return err
	}
	return nil
}
