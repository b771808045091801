package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// CSRFSource supplies the anti-forgery token sent as X-CSRF-Token.
// An empty token means none is known and the header is omitted.
type CSRFSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticCSRF is a fixed token.
type StaticCSRF string

// Token returns the token itself.
func (s StaticCSRF) Token(context.Context) (string, error) {
	return string(s), nil
}

// MetaTagCSRF reads the token from the <meta name="csrf-token" content="...">
// tag of an HTML page, the way a browser page exposes it to scripts.
// The token is fetched on first use and kept until Reset. A page without a
// token (no session yet) is read again on the next request.
type MetaTagCSRF struct {
	pageURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
	ok    bool
}

// NewMetaTagCSRF creates a source reading pageURL with httpClient
// (http.DefaultClient when nil).
func NewMetaTagCSRF(pageURL string, httpClient *http.Client) *MetaTagCSRF {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MetaTagCSRF{pageURL: pageURL, httpClient: httpClient}
}

// Token returns the cached token, fetching the page the first time.
func (m *MetaTagCSRF) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ok {
		return m.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create csrf page request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("csrf page returned %d", resp.StatusCode)
	}

	token, err := ParseCSRFMeta(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	m.token, m.ok = token, token != ""
	return token, nil
}

// Reset forgets the cached token so the next call re-reads the page.
func (m *MetaTagCSRF) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.ok = "", false
}

// ParseCSRFMeta returns the content of the first <meta name="csrf-token"> in r,
// or "" when there is none.
func ParseCSRFMeta(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse csrf page: %w", err)
	}

	var find func(n *html.Node) (string, bool)
	find = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.EqualFold(name, "csrf-token") {
				return content, true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v, ok := find(c); ok {
				return v, true
			}
		}
		return "", false
	}

	token, _ := find(doc)
	return token, nil
}
