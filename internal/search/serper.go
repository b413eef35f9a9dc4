package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidAPIKey = errors.New("invalid search API key")
	ErrUnavailable   = errors.New("search service unavailable")
)

// Tool è l'interfaccia per i tool di ricerca web usati dal researcher
type Tool interface {
	Search(ctx context.Context, query string) ([]Result, error)
	Name() string
}

// Result rappresenta un singolo risultato di ricerca
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerperClient è un client per l'API di ricerca Serper
type SerperClient struct {
	httpClient *resty.Client
	maxResults int
}

// serperRequest è il body della richiesta di ricerca
type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

// serperResponse è la risposta dell'API Serper
type serperResponse struct {
	Organic []Result `json:"organic"`
}

// NewSerperClient crea un nuovo client di ricerca
func NewSerperClient(baseURL, apiKey string, maxResults int) *SerperClient {
	if maxResults <= 0 {
		maxResults = 5
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == 429
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-KEY", apiKey)

	return &SerperClient{
		httpClient: httpClient,
		maxResults: maxResults,
	}
}

// Name restituisce il nome del tool
func (c *SerperClient) Name() string {
	return "serper"
}

// Search esegue una ricerca web e restituisce i risultati organici
func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	var searchResp serperResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(serperRequest{Q: query, Num: c.maxResults}).
		SetResult(&searchResp).
		Post("/search")

	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	if resp.IsError() {
		switch resp.StatusCode() {
		case 401, 403:
			return nil, ErrInvalidAPIKey
		default:
			return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode())
		}
	}

	results := searchResp.Organic
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}

	log.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Web search completed")

	return results, nil
}

// FormatResults rende i risultati come blocco di contesto per il prompt
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Web search results:\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", r.Title, r.Link, r.Snippet))
	}
	return sb.String()
}
