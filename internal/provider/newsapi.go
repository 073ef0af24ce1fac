package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"macro-calendar/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	newsAPIBaseURL     = "https://newsapi.org/v2/everything"
	newsAPIMaxRetries  = 2
	newsAPIRemovedText = "[Removed]"
)

// ErrMissingAPIKey is returned before any request is made when no key is set.
var ErrMissingAPIKey = errors.New("news api key is not configured")

type NewsAPIOptions struct {
	APIKey        string
	BaseURL       string
	PageSize      int
	RatePerMinute int
}

// NewsAPIProvider searches the NewsAPI /v2/everything endpoint.
type NewsAPIProvider struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	tracer     trace.Tracer
	limiter    *RateLimiter
	newBackOff func() backoff.BackOff
}

func NewNewsAPIProvider(tracer trace.Tracer, opts NewsAPIOptions) *NewsAPIProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = newsAPIBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 30
	}
	return &NewsAPIProvider{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		pageSize: opts.PageSize,
		tracer:   tracer,
		limiter:  PerMinute(opts.RatePerMinute),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 4 * time.Second
			return b
		},
	}
}

// Configured reports whether an API key is available.
func (p *NewsAPIProvider) Configured() bool {
	return p.apiKey != ""
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// SearchArticles returns English articles matching query published on or
// after from, newest first. Transport errors, 429 and 5xx are retried.
func (p *NewsAPIProvider) SearchArticles(ctx context.Context, query string, from time.Time) ([]domain.Article, error) {
	ctx, span := p.tracer.Start(ctx, "newsapi.search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if !p.Configured() {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(p.pageSize))
	params.Set("from", from.Format("2006-01-02"))
	endpoint := p.baseURL + "?" + params.Encode()

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), newsAPIMaxRetries), ctx)
	body, err := backoff.RetryWithData(func() ([]byte, error) {
		return p.doRequest(ctx, endpoint)
	}, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("newsapi search %q: %w", query, err)
	}

	var raw newsAPIResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse newsapi response: %w", err)
	}
	if raw.Status == "error" {
		return nil, fmt.Errorf("newsapi error %s: %s", raw.Code, raw.Message)
	}

	articles := make([]domain.Article, 0, len(raw.Articles))
	for _, row := range raw.Articles {
		title := cleanText(row.Title)
		if title == "" || title == newsAPIRemovedText {
			continue
		}
		publishedAt, _ := time.Parse(time.RFC3339, row.PublishedAt)
		articles = append(articles, domain.Article{
			Title:       title,
			Description: cleanText(row.Description),
			URL:         row.URL,
			PublishedAt: publishedAt,
			SourceName:  row.Source.Name,
		})
	}
	span.SetAttributes(attribute.Int("articles", len(articles)))
	return articles, nil
}

func (p *NewsAPIProvider) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("newsapi API error %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}
	return body, nil
}
