package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
)

// maxDocumentText caps how much of an item's text is carried through
// the pipeline, matching the original monitor's clipping.
const maxDocumentText = 400

// RSSFetcher fetches RSS/Atom feeds. It is safe for concurrent use by
// multiple source cycles; a shared limiter keeps the monitor polite
// toward feed hosts even when many sources tick at once.
type RSSFetcher struct {
	parser  *gofeed.Parser
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// NewRSSFetcher creates a feed fetcher with the given per-fetch timeout.
func NewRSSFetcher(timeout time.Duration, logger *slog.Logger) *RSSFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "ofac-social-monitor/1.0"

	return &RSSFetcher{
		parser: parser,
		// One fetch per second sustained, tolerating bursts when several
		// source timers align.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch downloads and parses the source's feed, returning one document
// per item carrying the keyword-relevance verdict. Any network or
// parse failure is reported as a FetchError.
func (f *RSSFetcher) Fetch(ctx context.Context, src config.Source) ([]domain.RawDocument, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, errors.FetchFailed(fmt.Sprintf("fetch feed %s", src.ID), err)
	}

	keywords := src.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	docs := make([]domain.RawDocument, 0, len(feed.Items))
	for _, item := range feed.Items {
		text := collapseWhitespace(item.Title + " " + item.Description)
		if text == "" {
			continue
		}
		text = clipText(text, maxDocumentText)

		var published time.Time
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		}

		docs = append(docs, domain.RawDocument{
			ItemID:      ItemID("rss", src.ID, item.Link, text),
			SourceID:    src.ID,
			Text:        text,
			URL:         item.Link,
			PublishedAt: published,
			Relevant:    MatchesKeywords(text, keywords),
		})
	}

	f.logger.Debug("feed fetched", "source", src.ID, "items", len(docs))
	return docs, nil
}
