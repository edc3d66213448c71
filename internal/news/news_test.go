package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpilot/pkg/httputil"
	"github.com/wonny/stockpilot/pkg/logger"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Yahoo! Finance: XYZ News</title>
  <item>
    <title>Block beats estimates as Cash App grows</title>
    <link>https://finance.example.com/news/block-beats</link>
    <description><![CDATA[<p>Shares <b>jumped</b> after hours.</p>]]></description>
    <guid isPermaLink="false">block-beats-1</guid>
    <pubDate>Wed, 14 Oct 2026 21:05:00 +0000</pubDate>
  </item>
  <item>
    <title>Analysts cut Block price target</title>
    <link>https://finance.example.com/news/block-cut</link>
    <description>Concerns over lending.</description>
    <guid>block-cut-2</guid>
    <pubDate>Thu, 15 Oct 2026 09:30:00 +0000</pubDate>
  </item>
  <item>
    <title>Block beats estimates as Cash App grows</title>
    <link>https://finance.example.com/news/dup</link>
    <pubDate>Tue, 13 Oct 2026 09:30:00 +0000</pubDate>
  </item>
</channel>
</rss>`

func TestParseRSS(t *testing.T) {
	articles, err := parseRSS([]byte(sampleFeed), "rss")
	require.NoError(t, err)
	require.Len(t, articles, 3)

	a := articles[0]
	assert.Equal(t, "Block beats estimates as Cash App grows", a.Headline)
	assert.Equal(t, "https://finance.example.com/news/block-beats", a.URL)
	assert.Equal(t, "Shares jumped after hours.", a.Summary)
	assert.Equal(t, time.Date(2026, 10, 14, 21, 5, 0, 0, time.UTC), a.PublishedAt)
	assert.Equal(t, "rss", a.Source)
}

func TestRSSSource_Fetch(t *testing.T) {
	var gotSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("s")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	src := NewRSSSource(httputil.New(logger.Nop(), time.Second), srv.URL+"/rss?s=%s", logger.Nop())

	articles, err := src.Fetch(context.Background(), "xyz", 5)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", gotSymbol)

	require.Len(t, articles, 2, "duplicate headline dropped")
	assert.Equal(t, "Analysts cut Block price target", articles[0].Headline, "newest first")

	limited, err := src.Fetch(context.Background(), "xyz", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRSSSource_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewRSSSource(httputil.New(logger.Nop(), time.Second).DisableRetry(), srv.URL+"?s=%s", logger.Nop())
	_, err := src.Fetch(context.Background(), "XYZ", 5)

	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

type rewriteTransport struct {
	base  string
	inner http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target, _ := url.Parse(t.base)
	req = req.Clone(req.Context())
	req.URL.Scheme = target.Scheme
	req.URL.Host = target.Host
	return t.inner.RoundTrip(req)
}

func TestFinnhubSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XYZ", r.URL.Query().Get("symbol"))
		assert.NotEmpty(t, r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"category":"company","datetime":1760500000,"headline":"Older story","id":1,"source":"Reuters","summary":"a","url":"https://x/1"},
			{"category":"company","datetime":1760600000,"headline":"Newer story","id":2,"source":"Bloomberg","summary":"b","url":"https://x/2"},
			{"category":"company","datetime":1760550000,"headline":"  ","id":3}
		]`)
	}))
	defer srv.Close()

	hc := &http.Client{Transport: &rewriteTransport{base: srv.URL, inner: http.DefaultTransport}}
	src := NewFinnhubSource("key", 7, func(cfg *finnhub.Configuration) { cfg.HTTPClient = hc })

	articles, err := src.Fetch(context.Background(), "xyz", 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Newer story", articles[0].Headline)
	assert.Equal(t, "Bloomberg", articles[0].Publisher)
	assert.Equal(t, "finnhub", articles[0].Source)
}

type stubSource struct {
	name     string
	articles []Article
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, symbol string, limit int) ([]Article, error) {
	s.calls++
	return s.articles, s.err
}

func TestFallback(t *testing.T) {
	boom := errors.New("boom")

	t.Run("first non-empty wins", func(t *testing.T) {
		a := &stubSource{name: "a", err: boom}
		b := &stubSource{name: "b"}
		c := &stubSource{name: "c", articles: []Article{{Headline: "hi"}}}
		d := &stubSource{name: "d", articles: []Article{{Headline: "unused"}}}

		f := NewFallback(logger.Nop(), a, b, c, d)
		got, err := f.Fetch(context.Background(), "XYZ", 5)
		require.NoError(t, err)
		assert.Equal(t, "hi", got[0].Headline)
		assert.Equal(t, 0, d.calls)
		assert.Equal(t, "a>b>c>d", f.Name())
	})

	t.Run("all failed", func(t *testing.T) {
		f := NewFallback(logger.Nop(), &stubSource{name: "a", err: boom}, &stubSource{name: "b", err: boom})
		_, err := f.Fetch(context.Background(), "XYZ", 5)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty is not an error", func(t *testing.T) {
		f := NewFallback(logger.Nop(), &stubSource{name: "a", err: boom}, &stubSource{name: "b"})
		got, err := f.Fetch(context.Background(), "XYZ", 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
