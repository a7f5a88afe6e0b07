package kma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/config"
	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"golang.org/x/time/rate"
)

const (
	villageForecastPath = "/VilageFcstInfoService_2.0/getVilageFcst"
	nowcastPath         = "/VilageFcstInfoService_2.0/getUltraSrtNcst"
	midLandPath         = "/MidFcstInfoService/getMidLandFcst"
	midTemperaturePath  = "/MidFcstInfoService/getMidTa"

	villagePageSize = 1000
	nowcastPageSize = 10
	maxPages        = 5
)

// Result codes of the data portal envelope.
const (
	resultOK     = "00"
	resultNoData = "03"
)

// Client implements domain.ForecastAPI against the KMA open API on the
// public data portal.
type Client struct {
	serviceKey     string
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	gridTimeout    time.Duration
	outlookTimeout time.Duration
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// NewClient creates a KMA client. Requests share one rate limiter so a
// burst of concurrent forecasts stays inside the portal's quota.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	burst := int(cfg.KMARateLimit)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		serviceKey:     cfg.KMAServiceKey,
		httpClient:     &http.Client{},
		baseURL:        cfg.KMABaseURL,
		limiter:        rate.NewLimiter(rate.Limit(cfg.KMARateLimit), burst),
		gridTimeout:    cfg.KMATimeout,
		outlookTimeout: cfg.KMAOutlookTimeout,
		metrics:        metrics,
		logger:         logger,
	}
}

// VillageForecast returns every short-range item published in slot for cell.
func (c *Client) VillageForecast(ctx context.Context, cell domain.GridCell, slot domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	params := gridParams(cell, slot)
	var items []domain.RawForecastItem
	for page := 1; page <= maxPages; page++ {
		params.Set("pageNo", strconv.Itoa(page))
		params.Set("numOfRows", strconv.Itoa(villagePageSize))

		var body gridBody
		found, err := c.get(ctx, domain.SourceShortRange, villageForecastPath, params, c.gridTimeout, &body)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		for _, it := range body.Items.Item {
			items = append(items, domain.RawForecastItem{
				Date:     it.FcstDate,
				Time:     it.FcstTime,
				Category: domain.Category(it.Category),
				Value:    it.FcstValue,
			})
		}
		if page*villagePageSize >= body.TotalCount || len(body.Items.Item) == 0 {
			break
		}
	}
	c.observeOutcome(domain.SourceShortRange, len(items) > 0)
	return items, nil
}

// UltraShortNowcast returns the observation items for cell at slot.
func (c *Client) UltraShortNowcast(ctx context.Context, cell domain.GridCell, slot domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	params := gridParams(cell, slot)
	params.Set("pageNo", "1")
	params.Set("numOfRows", strconv.Itoa(nowcastPageSize))

	var body gridBody
	found, err := c.get(ctx, domain.SourceNowcast, nowcastPath, params, c.gridTimeout, &body)
	if err != nil {
		return nil, err
	}
	if !found {
		c.observeOutcome(domain.SourceNowcast, false)
		return nil, nil
	}

	items := make([]domain.RawForecastItem, 0, len(body.Items.Item))
	for _, it := range body.Items.Item {
		items = append(items, domain.RawForecastItem{
			Date:     it.BaseDate,
			Time:     it.BaseTime,
			Category: domain.Category(it.Category),
			Value:    it.ObsrValue,
		})
	}
	c.observeOutcome(domain.SourceNowcast, len(items) > 0)
	return items, nil
}

// MidLandForecast returns the land outlook for a region at slot.
func (c *Client) MidLandForecast(ctx context.Context, regionID string, slot domain.BroadcastSlot) (domain.OutlookLand, error) {
	fields, err := c.outlookItem(ctx, domain.SourceOutlookLand, midLandPath, regionID, slot)
	if err != nil {
		return domain.OutlookLand{}, err
	}
	out := decodeLand(fields)
	out.RegionID = regionID
	out.Slot = slot
	c.observeOutcome(domain.SourceOutlookLand, len(out.Days) > 0)
	return out, nil
}

// MidTemperature returns the temperature outlook for a region at slot.
func (c *Client) MidTemperature(ctx context.Context, regionID string, slot domain.BroadcastSlot) (domain.OutlookTemperature, error) {
	fields, err := c.outlookItem(ctx, domain.SourceOutlookTemperature, midTemperaturePath, regionID, slot)
	if err != nil {
		return domain.OutlookTemperature{}, err
	}
	out := decodeTemperature(fields)
	out.RegionID = regionID
	out.Slot = slot
	c.observeOutcome(domain.SourceOutlookTemperature, len(out.Ranges) > 0)
	return out, nil
}

func (c *Client) outlookItem(ctx context.Context, source domain.Source, path, regionID string, slot domain.BroadcastSlot) (map[string]json.RawMessage, error) {
	params := url.Values{
		"pageNo":    {"1"},
		"numOfRows": {"10"},
		"dataType":  {"JSON"},
		"regId":     {regionID},
		"tmFc":      {slot.TmFc()},
	}

	var body outlookBody
	found, err := c.get(ctx, source, path, params, c.outlookTimeout, &body)
	if err != nil {
		return nil, err
	}
	if !found || len(body.Items.Item) == 0 {
		return nil, nil
	}
	return body.Items.Item[0], nil
}

// get performs one rate-limited request and decodes response.body into out.
// found is false for a well-formed NO_DATA response.
func (c *Client) get(ctx context.Context, source domain.Source, path string, params url.Values, timeout time.Duration, out any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, c.fail(source, domain.KindTransient, fmt.Errorf("rate limit wait canceled: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := url.Values{"serviceKey": {c.serviceKey}}
	for k, v := range params {
		q[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return false, c.fail(source, domain.KindMalformed, fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	if err != nil {
		return false, c.fail(source, domain.KindTransient, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, c.fail(source, domain.KindTransient, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return false, c.fail(source, domain.KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	if env.Response == nil || env.Response.Header == nil {
		return false, c.fail(source, domain.KindMalformed, errors.New("missing response header"))
	}

	switch code := env.Response.Header.ResultCode; code {
	case resultOK:
	case resultNoData:
		return false, nil
	default:
		return false, c.fail(source, domain.KindTransient, fmt.Errorf("result %s: %s", code, env.Response.Header.ResultMsg))
	}

	if len(env.Response.Body) == 0 || string(env.Response.Body) == "null" {
		return false, c.fail(source, domain.KindMalformed, errors.New("missing response body"))
	}
	if err := json.Unmarshal(env.Response.Body, out); err != nil {
		return false, c.fail(source, domain.KindMalformed, fmt.Errorf("decode body: %w", err))
	}
	return true, nil
}

func (c *Client) fail(source domain.Source, kind domain.ErrorKind, err error) error {
	c.metrics.FetchRequests.WithLabelValues(string(source), "error").Inc()
	c.logger.Debug("kma request failed", "source", source, "kind", kind, "error", err)
	return domain.NewSourceError(source, kind, err)
}

func (c *Client) observeOutcome(source domain.Source, hasData bool) {
	outcome := "success"
	if !hasData {
		outcome = "empty"
	}
	c.metrics.FetchRequests.WithLabelValues(string(source), outcome).Inc()
}

func gridParams(cell domain.GridCell, slot domain.BroadcastSlot) url.Values {
	return url.Values{
		"dataType":  {"JSON"},
		"base_date": {slot.BaseDate()},
		"base_time": {slot.BaseTime()},
		"nx":        {strconv.Itoa(cell.NX)},
		"ny":        {strconv.Itoa(cell.NY)},
	}
}
