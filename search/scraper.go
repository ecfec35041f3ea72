package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
)

const (
	maxPageBytes = 2 << 20

	defaultUserAgent = "ragline/1.0 (+https://github.com/ragline/ragline)"
)

// nonScrapeableExtensions lists URL suffixes that never yield useful page
// text (documents, archives, media, binaries).
var nonScrapeableExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".zip", ".rar", ".tar", ".gz",
	".7z", ".mp3", ".mp4", ".avi", ".mov", ".wav", ".jpg", ".jpeg", ".png", ".gif", ".bmp",
	".svg", ".exe", ".dmg", ".app", ".deb", ".rpm",
}

// Scrapeable reports whether a URL is worth fetching for HTML text.
func Scrapeable(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range nonScrapeableExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	if strings.Contains(lower, "/download/") &&
		(strings.Contains(lower, ".doc") || strings.Contains(lower, ".pdf") ||
			strings.Contains(lower, ".xls") || strings.Contains(lower, ".ppt")) {
		return false
	}
	return true
}

// Scraper fetches web pages and extracts their visible text. Safe for
// concurrent use.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithScraperHTTPClient replaces the underlying HTTP client.
func WithScraperHTTPClient(httpClient *http.Client) ScraperOption {
	return func(s *Scraper) {
		s.httpClient = httpClient
	}
}

// NewScraper constructs a scraper. Build one at service startup and share
// it; per-request construction throws away connection reuse.
func NewScraper(opts ...ScraperOption) *Scraper {
	s := &Scraper{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrapeText fetches a page and returns its visible text with markup,
// scripts, and styles stripped and whitespace collapsed.
func (s *Scraper) ScrapeText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Trace(err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.Annotatef(err, "fetch %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("fetch %s returned status %d", rawURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "text/plain") {
		return "", errors.NotSupportedf("content type %q of %s", ct, rawURL)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", errors.Annotatef(err, "read %s", rawURL)
	}

	text := stripHTML(string(raw))
	log.Debugf("scraped %s: %d bytes -> %d chars of text", rawURL, len(raw), len(text))
	return text, nil
}

// stripHTML removes tags plus script/style bodies and collapses
// whitespace. It is a coarse extractor: good enough to feed page text to a
// language model, not a DOM parser.
func stripHTML(page string) string {
	var (
		sb      strings.Builder
		inTag   bool
		skipTag string
	)

	for i := 0; i < len(page); i++ {
		if inTag {
			if page[i] == '>' {
				inTag = false
			}
			continue
		}
		if page[i] == '<' {
			inTag = true
			switch {
			case skipTag == "" && hasFoldPrefix(page[i:], "<script"):
				skipTag = "</script>"
			case skipTag == "" && hasFoldPrefix(page[i:], "<style"):
				skipTag = "</style>"
			case skipTag != "" && hasFoldPrefix(page[i:], skipTag):
				skipTag = ""
			}
			continue
		}
		if skipTag != "" {
			continue
		}
		sb.WriteByte(page[i])
	}

	text := sb.String()
	for entity, replacement := range map[string]string{
		"&nbsp;": " ", "&amp;": "&", "&lt;": "<", "&gt;": ">", "&quot;": `"`, "&#39;": "'",
	} {
		text = strings.ReplaceAll(text, entity, replacement)
	}

	return collapseWhitespace(text)
}

// hasFoldPrefix reports whether s starts with prefix, case-insensitively.
// Matching byte slices of s directly keeps offsets valid for pages whose
// byte length would change under strings.ToLower.
func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func collapseWhitespace(s string) string {
	var (
		sb    strings.Builder
		space bool
	)
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
