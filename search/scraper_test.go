package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeable(t *testing.T) {
	assert.True(t, Scrapeable("https://example.com/article"))
	assert.True(t, Scrapeable("https://example.com/post.html"))

	assert.False(t, Scrapeable("https://example.com/report.PDF"))
	assert.False(t, Scrapeable("https://example.com/archive.tar.gz"))
	assert.False(t, Scrapeable("https://example.com/image.png"))
	assert.False(t, Scrapeable("https://example.com/download/report.pdf?v=2"))
}

func TestScrapeTextStripsMarkup(t *testing.T) {
	page := `<html><head>
		<title>Title</title>
		<style>body { color: red; }</style>
		<script>var hidden = "nope";</script>
	</head><body>
		<h1>Heading</h1>
		<p>First &amp; second   paragraph.</p>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := NewScraper()
	text, err := s.ScrapeText(context.Background(), srv.URL)
	assert.Nil(t, err)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "First & second paragraph.")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "<")
}

func TestStripHTMLLengthChangingRunes(t *testing.T) {
	// U+212A KELVIN SIGN is 3 bytes but lowercases to a 1-byte "k";
	// tag matching must stay on the original byte offsets
	page := strings.Repeat("K", 100) + "<b>hi</b>"

	text := stripHTML(page)
	assert.Contains(t, text, "hi")
}

func TestStripHTMLUppercaseScriptAndStyle(t *testing.T) {
	page := `<STYLE>body { color: red; }</STYLE><SCRIPT>var hidden = 1;</Script><p>visible</p>`

	text := stripHTML(page)
	assert.Equal(t, "visible", text)
}

func TestScrapeTextRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	s := NewScraper()
	_, err := s.ScrapeText(context.Background(), srv.URL)
	assert.NotNil(t, err)
}

func TestScrapeTextNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScraper()
	_, err := s.ScrapeText(context.Background(), srv.URL)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("  a\n\t b \n c  "))
	assert.Equal(t, "", collapseWhitespace(" \n\t "))
}
