// Package linkpreview は投稿に添付されたリンクのプレビュー情報を取得する。
package linkpreview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/spotomo/internal/security"
)

// Preview はリンク先ページから抽出したプレビュー情報。
type Preview struct {
	URL         string
	Title       string
	Description string
}

// Fetcher はリンクプレビュー取得のインターフェース。
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Preview, error)
}

// Client はSSRF防止付きHTTPクライアントでプレビューを取得する。
type Client struct {
	guard      security.SSRFGuardService
	httpClient *http.Client
	maxSize    int64
}

// NewClient はClientを生成する。
// 外部サイトへのリクエストはSSRFガードが生成する安全なクライアント経由で行う。
func NewClient(guard security.SSRFGuardService, timeout time.Duration, maxSize int64) *Client {
	return &Client{
		guard:      guard,
		httpClient: guard.NewSafeClient(timeout, maxSize),
		maxSize:    maxSize,
	}
}

// Fetch はリンク先のHTMLからタイトルと説明を抽出する。
// og:title / og:description を優先し、なければ <title> と
// meta[name=description] にフォールバックする。
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	if err := c.guard.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("unsafe link URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return nil, fmt.Errorf("not an HTML page: %s", contentType)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, c.maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	preview := &Preview{URL: rawURL}
	extract(doc, preview)

	preview.Title = strings.TrimSpace(preview.Title)
	preview.Description = strings.TrimSpace(preview.Description)

	return preview, nil
}

// extract はHTMLツリーを走査してタイトルと説明を集める。
// OGPのメタタグがあればフォールバック値を上書きする。
func extract(n *html.Node, preview *Preview) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if preview.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				preview.Title = n.FirstChild.Data
			}

		case "meta":
			var property, name, content string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "property":
					property = strings.ToLower(attr.Val)
				case "name":
					name = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			switch {
			case property == "og:title" && content != "":
				preview.Title = content
			case property == "og:description" && content != "":
				preview.Description = content
			case name == "description" && content != "" && preview.Description == "":
				preview.Description = content
			}

		case "body":
			// メタ情報はheadで完結するため本文の走査は不要
			return
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		extract(child, preview)
	}
}
