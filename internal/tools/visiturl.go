package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
	"github.com/terminal-alpha-beta/hivebot/internal/textutil"
)

const (
	visitURLTimeout      = 30 * time.Second
	visitURLMaxRedirects = 10
	visitURLUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxWebPageActualLength     = 10 * 1024
	maxWebPageSimplifiedLength = 300
	maxActualLinks             = 10
	maxSimplifiedLinks         = 3
)

var blockElements = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "div": true,
}

// extractedLink preserves discovery order while VisitUrl deduplicates by href.
type extractedLink struct {
	text string
	href string
}

// VisitUrl fetches url, requires an HTML response, and extracts its main
// content via readability plus block-level text and deduplicated links,
// exactly as fetch_page/fetch_url_content do.
func VisitUrl(ctx context.Context, client *http.Client, rawURL string) (conversation.ToolResultData, error) {
	if client == nil {
		client = &http.Client{
			Timeout: visitURLTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > visitURLMaxRedirects {
					return fmt.Errorf("stopped after %d redirects", visitURLMaxRedirects)
				}
				return nil
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return conversation.ToolResultData{}, err
	}
	req.Header.Set("User-Agent", visitURLUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return conversation.ToolResultData{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return conversation.ToolResultData{}, fmt.Errorf("HTTP error %s", resp.Status)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		return conversation.ToolResultData{}, fmt.Errorf("URL is not HTML")
	}

	finalURL := resp.Request.URL
	article, err := readability.FromReader(resp.Body, finalURL)
	if err != nil {
		return conversation.ToolResultData{}, fmt.Errorf("readability extraction failed: %w", err)
	}

	text, links := extractBlocksAndLinks(article.Content, article.Title)

	return formatVisitURLResult(rawURL, text, links), nil
}

func extractBlocksAndLinks(contentHTML, title string) (string, []extractedLink) {
	root, err := html.Parse(strings.NewReader(contentHTML))
	if err != nil {
		return title, nil
	}

	var parts []string
	if strings.TrimSpace(title) != "" {
		parts = append(parts, title)
	}

	var links []extractedLink
	seen := map[string]bool{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if blockElements[n.Data] {
				text := collapseWhitespace(collectText(n))
				if text != "" {
					parts = append(parts, text)
				}
			}
			if n.Data == "a" {
				href := attr(n, "href")
				text := strings.TrimSpace(collectText(n))
				if href != "" && text != "" && !seen[href] {
					seen[href] = true
					links = append(links, extractedLink{text: text, href: href})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(parts) == 0 {
		text := collapseWhitespace(collectText(root))
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), links
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func formatVisitURLResult(rawURL, content string, links []extractedLink) conversation.ToolResultData {
	header := fmt.Sprintf("VISIT URL TOOL RESULT %s: \n", rawURL)

	actual := header + textutil.Truncate(content, maxWebPageActualLength)
	simplified := header + textutil.Truncate(content, maxWebPageSimplifiedLength)

	if len(links) > 0 {
		actual += "\nLinks:\n"
		simplified += "\nLinks:\n"
		for i, l := range links {
			if i >= maxActualLinks {
				break
			}
			line := fmt.Sprintf("- %s %s\n", l.text, l.href)
			actual += line
			if i < maxSimplifiedLinks {
				simplified += line
			}
		}
	}

	return conversation.ToolResultData{Actual: actual, Simplified: simplified}
}
