package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	xhttp "FinDash/pkg/http"
)

// DefaultBaseURL is the public Finnhub REST endpoint.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// tokenHeader carries the API key. Finnhub also accepts it as the token
// query parameter; the header keeps it out of URLs, access logs and
// transport errors.
const tokenHeader = "X-Finnhub-Token"

// Quote is the Finnhub /quote payload.
type Quote struct {
	Current   float64 `json:"c"`
	PrevClose float64 `json:"pc"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	Change    float64 `json:"d"`
	ChangePct float64 `json:"dp"`
	Timestamp int64   `json:"t"`
}

// Client is a minimal Finnhub REST client for quotes.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// New creates a Finnhub quote client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts := []xhttp.ClientOption{}
	if timeout > 0 {
		opts = append(opts, xhttp.WithTimeout(timeout))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(opts...),
	}
}

// Quote fetches the current quote for symbol. No retry is attempted.
func (c *Client) Quote(ctx context.Context, symbol, token string) (*Quote, error) {
	var q Quote
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.baseURL + "/quote",
		Query:   url.Values{"symbol": {symbol}},
		Headers: map[string]string{tokenHeader: token},
	}, &q)
	if err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	return &q, nil
}
