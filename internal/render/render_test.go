package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMusicPlayer_PlayerHTML(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("limit") != "1" {
				t.Errorf("limit = %s", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(`{"result":{"songs":[{"id":42,"name":"天后","artists":[{"name":"陈势安"}]}]}}`))
		case "/music":
			w.Write([]byte(`{"url":"https://cdn.example/42.mp3","status":200}`))
		case "/lyric":
			w.Write([]byte(`{"lrc":{"lyric":"[00:01.00]第一句\n[00:05.00]第二句\n[ar: someone]\n"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer api.Close()

	p := NewMusicPlayer()
	p.searchURL = api.URL + "/search"
	p.musicURL = api.URL + "/music"
	p.lyricURL = api.URL + "/lyric"

	got := p.PlayerHTML(context.Background(), "天后")

	if !strings.Contains(got, "<p>歌曲: 天后</p>") {
		t.Errorf("missing song name: %q", got)
	}
	if !strings.Contains(got, "<p>歌手: 陈势安</p>") {
		t.Errorf("missing artist: %q", got)
	}
	if !strings.Contains(got, `src="https://cdn.example/42.mp3"`) {
		t.Errorf("missing audio source: %q", got)
	}
	if !strings.Contains(got, "第一句<br>第二句") {
		t.Errorf("lyrics should be joined with <br> and timestamps stripped: %q", got)
	}
	if strings.Contains(got, "[00:01.00]") {
		t.Error("lyric timestamps leaked into output")
	}
}

func TestMusicPlayer_NoResults(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"songs":[]}}`))
	}))
	defer api.Close()

	p := NewMusicPlayer()
	p.searchURL = api.URL

	if got := p.PlayerHTML(context.Background(), "nonexistent"); got != "未找到相关歌曲。" {
		t.Errorf("got %q", got)
	}
}

func TestMusicPlayer_MissingPlayURL(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.Write([]byte(`{"result":{"songs":[{"id":1,"name":"x","artists":[{"name":"y"}]}]}}`))
		case "/music":
			w.Write([]byte(`{"status":404}`))
		}
	}))
	defer api.Close()

	p := NewMusicPlayer()
	p.searchURL = api.URL + "/search"
	p.musicURL = api.URL + "/music"

	if got := p.PlayerHTML(context.Background(), "x"); got != "未能获取歌曲播放链接。" {
		t.Errorf("got %q", got)
	}
}

func TestMusicPlayer_UpstreamStatusError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer api.Close()

	p := NewMusicPlayer()
	p.searchURL = api.URL

	got := p.PlayerHTML(context.Background(), "x")
	if !strings.Contains(got, "状态码: 418") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "short and stout") {
		t.Errorf("error body missing: %q", got)
	}
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<item>
  <title>新品发布</title>
  <link>https://example.com/1</link>
  <pubDate>Mon, 2 Jun 2025 08:00:00 GMT</pubDate>
  <description>&lt;p&gt;正文   内容&lt;/p&gt;</description>
</item>
<item>
  <title>第二条</title>
  <link>https://example.com/2</link>
  <pubDate></pubDate>
  <description></description>
</item>
</channel></rss>`

func TestNewsReader_LatestHTML(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer api.Close()

	n := NewNewsReader()
	n.feedURL = api.URL

	got := n.LatestHTML(context.Background())

	if !strings.Contains(got, "1. 新品发布") {
		t.Errorf("missing first item: %q", got)
	}
	if !strings.Contains(got, "2. 第二条") {
		t.Errorf("missing second item: %q", got)
	}
	if !strings.Contains(got, "2 Jun 2025 08:00:00") {
		t.Errorf("pubDate should be simplified: %q", got)
	}
	if !strings.Contains(got, "正文 内容") {
		t.Errorf("description should be tag-stripped and whitespace-collapsed: %q", got)
	}
	if !strings.Contains(got, "未知时间") {
		t.Errorf("empty pubDate should render placeholder: %q", got)
	}
}

func TestNewsReader_LimitsItems(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss><channel>`)
	for i := 0; i < 15; i++ {
		b.WriteString(`<item><title>t</title><link>l</link></item>`)
	}
	b.WriteString(`</channel></rss>`)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer api.Close()

	n := NewNewsReader()
	n.feedURL = api.URL

	got := n.LatestHTML(context.Background())
	if strings.Contains(got, "11. ") {
		t.Error("output should be capped at 10 items")
	}
	if !strings.Contains(got, "10. ") {
		t.Error("expected 10 items")
	}
}

func TestNewsReader_EmptyFeed(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss><channel></channel></rss>`))
	}))
	defer api.Close()

	n := NewNewsReader()
	n.feedURL = api.URL

	if got := n.LatestHTML(context.Background()); got != "未找到新闻内容。" {
		t.Errorf("got %q", got)
	}
}

func TestNewsReader_BadXML(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not xml <"))
	}))
	defer api.Close()

	n := NewNewsReader()
	n.feedURL = api.URL

	if got := n.LatestHTML(context.Background()); !strings.Contains(got, "RSS解析失败") {
		t.Errorf("got %q", got)
	}
}
