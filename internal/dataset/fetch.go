package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Fetcher downloads corpus files over HTTP. Feeds are fetched once at
// startup or on an operator-driven refresh, never on the inference path.
type Fetcher struct {
	rest *resty.Client
}

// NewFetcher builds a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second) // default fallback
	}
	r.SetRetryCount(2)
	r.SetRetryWaitTime(500 * time.Millisecond)
	return &Fetcher{rest: r}
}

// FetchDomainList downloads a one-domain-per-line feed.
func (f *Fetcher) FetchDomainList(ctx context.Context, url string) ([]string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	domains, err := readDomainList(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	log.Info().Str("url", url).Int("count", len(domains)).Msg("fetched domain feed")
	return domains, nil
}

// FetchRankedList downloads a Tranco-style "rank,domain" CSV feed.
func (f *Fetcher) FetchRankedList(ctx context.Context, url string, topN int) ([]string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	domains, err := readRankedList(strings.NewReader(body), topN)
	if err != nil {
		return nil, fmt.Errorf("parse ranked feed %s: %w", url, err)
	}

	log.Info().Str("url", url).Int("count", len(domains)).Msg("fetched ranked feed")
	return domains, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	resp, err := f.rest.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s: status %s", url, resp.Status())
	}
	return resp.String(), nil
}
