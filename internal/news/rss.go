package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/stockpilot/pkg/httputil"
	"github.com/wonny/stockpilot/pkg/logger"
)

// RSSSource reads a headline RSS feed (Yahoo Finance by default)
type RSSSource struct {
	httpClient  *httputil.Client
	urlTemplate string // %s = symbol
	logger      *logger.Logger
}

// NewRSSSource creates an RSS source; urlTemplate must contain one %s
func NewRSSSource(httpClient *httputil.Client, urlTemplate string, log *logger.Logger) *RSSSource {
	return &RSSSource{
		httpClient:  httpClient,
		urlTemplate: urlTemplate,
		logger:      log.Component("rss"),
	}
}

// Name returns the source name
func (s *RSSSource) Name() string {
	return "rss"
}

// Fetch downloads and parses the feed for symbol
func (s *RSSSource) Fetch(ctx context.Context, symbol string, limit int) ([]Article, error) {
	feedURL := fmt.Sprintf(s.urlTemplate, url.QueryEscape(strings.ToUpper(symbol)))

	body, err := s.httpClient.GetBody(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", symbol, err)
	}

	articles, err := parseRSS(body, s.Name())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(articles),
	}).Debug("Fetched rss headlines")

	return newestFirst(articles, limit), nil
}

var pubDateLayouts = []string{time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700", time.RFC3339}

// parseRSS extracts <item> entries. goquery parses as HTML, so CDATA markers
// are stripped first and <link> (a void element in HTML) is read from the
// text that follows it.
func parseRSS(body []byte, source string) ([]Article, error) {
	body = bytes.ReplaceAll(body, []byte("<![CDATA["), nil)
	body = bytes.ReplaceAll(body, []byte("]]>"), nil)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	var articles []Article
	doc.Find("item").Each(func(i int, item *goquery.Selection) {
		a := Article{
			Headline: strings.TrimSpace(item.Find("title").First().Text()),
			Summary:  strings.TrimSpace(item.Find("description").First().Text()),
			URL:      itemLink(item),
			Source:   source,
		}

		raw := strings.TrimSpace(item.Find("pubdate").First().Text())
		for _, layout := range pubDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				a.PublishedAt = t.UTC()
				break
			}
		}

		articles = append(articles, a)
	})

	return articles, nil
}

func itemLink(item *goquery.Selection) string {
	var link string
	afterLink := false

	item.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		switch goquery.NodeName(c) {
		case "link":
			if t := strings.TrimSpace(c.Text()); t != "" {
				link = t
				return false
			}
			afterLink = true
		case "#text":
			if t := strings.TrimSpace(c.Text()); afterLink && t != "" {
				link = t
				return false
			}
		default:
			afterLink = false
		}
		return true
	})

	if link == "" {
		link = strings.TrimSpace(item.Find("guid").First().Text())
	}
	return link
}
