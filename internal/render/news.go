package render

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// NewsReader renders the ithome RSS feed as an HTML digest.
type NewsReader struct {
	feedURL string
	limit   int
	client  *http.Client
}

func NewNewsReader() *NewsReader {
	return &NewsReader{
		feedURL: "https://www.ithome.com/rss",
		limit:   10,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	rssDatePattern    = regexp.MustCompile(`\d{1,2} \w{3} \d{4} \d{2}:\d{2}:\d{2}`)
)

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// LatestHTML fetches the feed and renders the newest items. Failures render
// as literal strings, same contract as the music player.
func (r *NewsReader) LatestHTML(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return fmt.Sprintf("请求发送失败: %v", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Sprintf("请求发送失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("请求发送失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("获取RSS失败, 状态码: %d. 详细信息: %s", resp.StatusCode, string(body))
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return fmt.Sprintf("RSS解析失败: %v", err)
	}
	if len(feed.Items) == 0 {
		return "未找到新闻内容。"
	}

	items := feed.Items
	if len(items) > r.limit {
		items = items[:r.limit]
	}

	var b strings.Builder
	b.WriteString(`<div style="font-size: smaller; line-height: 1.2;">` + "\n")
	for i, item := range items {
		title := item.Title
		if title == "" {
			title = "无标题"
		}
		link := item.Link
		if link == "" {
			link = "#"
		}
		pubDate := item.PubDate
		if pubDate == "" {
			pubDate = "未知时间"
		} else if m := rssDatePattern.FindString(pubDate); m != "" {
			pubDate = m
		}

		desc := item.Description
		if desc != "" {
			desc = htmlTagPattern.ReplaceAllString(desc, "")
			desc = strings.TrimSpace(whitespacePattern.ReplaceAllString(desc, " "))
			desc = html.EscapeString(desc)
		}

		fmt.Fprintf(&b, `<div style="margin-bottom: 12px; padding: 8px; border-left: 2px solid #007acc;">`)
		fmt.Fprintf(&b, `<div style="font-weight: bold; margin-bottom: 4px;"><a href=%q target="_blank" style="color: #007acc; text-decoration: none;">%d. %s</a></div>`,
			link, i+1, html.EscapeString(title))
		fmt.Fprintf(&b, `<div style="color: #666; font-size: 0.9em; margin-bottom: 4px;">%s</div>`, pubDate)
		if desc != "" {
			fmt.Fprintf(&b, `<div style="color: #888; font-size: 0.85em;">%s</div>`, desc)
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>")
	return b.String()
}
