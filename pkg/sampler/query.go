package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Query fetches one resource field's mean value per host over window.
type Query interface {
	Fetch(ctx context.Context, hosts []string, window time.Duration) (map[string]float64, error)
}

type metricResponse struct {
	Values map[string]float64 `json:"values"`
}

// httpQuery queries a single metric from the metrics store's HTTP API,
// clamping results to max when max is positive.
type httpQuery struct {
	metric  string
	baseURL string
	max     float64
	client  *http.Client
	logger  zerolog.Logger
}

func newHTTPQuery(metric, baseURL string, max float64, client *http.Client, logger zerolog.Logger) *httpQuery {
	return &httpQuery{
		metric:  metric,
		baseURL: baseURL,
		max:     max,
		client:  client,
		logger:  logger,
	}
}

func (q *httpQuery) Fetch(ctx context.Context, hosts []string, window time.Duration) (map[string]float64, error) {
	values := make(map[string]float64, len(hosts))
	if len(hosts) == 0 {
		return values, nil
	}

	u := fmt.Sprintf("%s/query?metric=%s&hosts=%s&window_seconds=%s",
		q.baseURL,
		url.QueryEscape(q.metric),
		url.QueryEscape(strings.Join(hosts, ",")),
		strconv.Itoa(int(window.Seconds())),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("sampler: build request for %s: %w", q.metric, err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sampler: query %s: %w", q.metric, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sampler: query %s returned status %d", q.metric, resp.StatusCode)
	}

	var parsed metricResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("sampler: decode %s response: %w", q.metric, err)
	}

	for host, v := range parsed.Values {
		if q.max > 0 && v > q.max {
			q.logger.Warn().
				Str("metric", q.metric).
				Str("host", host).
				Float64("value", v).
				Float64("max", q.max).
				Msg("clamping sample to configured maximum")
			v = q.max
		}
		values[host] = v
	}
	return values, nil
}
