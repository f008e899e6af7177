package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/canoncourt/canoncourt/internal/model"
	"github.com/canoncourt/canoncourt/internal/util"
)

// Loader reads novels from local files or fetches them by URL, respecting
// robots.txt on remote sources
type Loader struct {
	cfg        model.CorpusConfig
	httpClient *http.Client
	robots     *util.RobotsChecker
}

// NewLoader creates a loader with the given corpus configuration
func NewLoader(cfg model.CorpusConfig) *Loader {
	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &Loader{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots: util.NewRobotsChecker(cfg.UserAgent, 10*time.Second),
	}
}

// Load reads a novel from a file path or http(s) URL and chunks it into
// passages. The book identifier defaults to the file stem when empty.
func (l *Loader) Load(ctx context.Context, source, book string) (*Novel, error) {
	var text string
	var err error

	if isURL(source) {
		text, err = l.fetch(ctx, source)
	} else {
		text, err = l.readFile(source)
	}
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(source), ".html") ||
		strings.HasSuffix(strings.ToLower(source), ".htm") ||
		looksLikeHTML(text) {
		text, err = StripHTML(text)
		if err != nil {
			return nil, fmt.Errorf("strip HTML: %w", err)
		}
	}

	if book == "" {
		book = bookName(source)
	}

	return &Novel{
		Book:     book,
		Text:     text,
		Passages: Chunk(text, book, l.cfg.ChunkWords, l.cfg.OverlapWords, l.cfg.MinTailWords),
	}, nil
}

func (l *Loader) readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read novel: %w", err)
	}
	return string(data), nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (string, error) {
	allowed, crawlDelay, err := l.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return "", fmt.Errorf("robots.txt disallows fetching %s", rawURL)
	}
	if crawlDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(crawlDelay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain,text/html;q=0.9,*/*;q=0.8")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch novel: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status fetching novel: %d %s", resp.StatusCode, resp.Status)
	}

	maxBytes := l.cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 20_000_000
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// bookName derives a book identifier from a path or URL
func bookName(source string) string {
	base := source
	if isURL(source) {
		if parsed, err := url.Parse(source); err == nil {
			base = parsed.Path
		}
	}

	base = filepath.Base(base)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "/" || base == "." {
		return "novel"
	}
	return base
}
