package monitoring

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/bluele/gcache"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
)

// fetchMemoSize bounds the per-client memo of recent responses.
const fetchMemoSize = 100

// Response is one raw stop monitoring payload with its decoded document.
type Response struct {
	Body     []byte
	Document map[string]any
}

// Client fetches stop monitoring data from the PRIM API. Each instance owns a
// bounded LRU memo keyed by stop id, so duplicate selections within one run
// hit the network once; scoping the memo to the instance keeps long-lived
// servers from serving stale cross-run data.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	memo       gcache.Cache
}

// NewClient creates a client from API configuration.
func NewClient(cfg config.APIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.Key,
		memo:       gcache.New(fetchMemoSize).LRU().Build(),
	}
}

// RequestURL builds the stop monitoring URL for a stop point id.
func (c *Client) RequestURL(stopID string) string {
	return c.endpoint + "?MonitoringRef=STIF:StopPoint:Q:" + stopID + ":"
}

// Fetch retrieves one stop's monitoring data. A memo hit bypasses the
// network. Errors are typed and never logged here; the orchestrator's task
// boundary is the single place per-stop failures surface.
func (c *Client) Fetch(ctx context.Context, stopID string) (*Response, error) {
	if v, err := c.memo.Get(stopID); err == nil {
		return v.(*Response), nil
	}

	url := c.RequestURL(stopID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &MalformedResponseError{URL: url, Err: err}
	}

	r := &Response{Body: body, Document: doc}
	_ = c.memo.Set(stopID, r)
	return r, nil
}
