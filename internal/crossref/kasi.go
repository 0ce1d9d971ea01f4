// Package crossref looks up authoritative lunar calendar records for solar
// dates: the KASI 음양력 정보 web service, a SQLite cache in front of it, and
// the glue that presents both as a saju.CrossReferencer.
package crossref

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/metrics"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

// KASISourceName labels records fetched from KASI.
const KASISourceName = "한국천문연구원 음양력정보(LrsrCldInfoService)"

const (
	lunCalInfoOperation = "getLunCalInfo"
	maxResponseSize     = 1 << 20
	userAgent           = "manseryeok-api/1.0"
)

var (
	// ErrNoServiceKey means no data.go.kr service key is configured. No
	// request is attempted.
	ErrNoServiceKey = errors.New("kasi: service key not configured")

	// ErrUpstream is a non-success result code or HTTP status from KASI.
	ErrUpstream = errors.New("kasi: upstream error")

	// ErrNoData means KASI answered successfully but returned no item.
	ErrNoData = errors.New("kasi: no data for date")
)

// Result is one fetched record together with the payload it came from.
type Result struct {
	Reference saju.CrossReference
	Raw       []byte
}

// Source fetches a record for a solar date.
type Source interface {
	Fetch(ctx context.Context, solar calendar.Date) (*Result, error)
}

// KASIConfig configures a KASIClient.
type KASIConfig struct {
	BaseURL    string
	ServiceKey string
	RatePerSec int
	// Timeout bounds one HTTP exchange; the caller's context may be shorter.
	Timeout time.Duration
}

// KASIClient calls getLunCalInfo behind a rate limiter and a circuit breaker.
type KASIClient struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewKASIClient creates a client. m and logger may be nil.
func NewKASIClient(cfg KASIConfig, m *metrics.Metrics, logger *slog.Logger) *KASIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RatePerSec < 1 {
		cfg.RatePerSec = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &KASIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: strings.TrimSpace(cfg.ServiceKey),
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		metrics:    m,
		logger:     logger.With(slog.String("component", "kasi")),
	}
	c.breaker = gobreaker.NewCircuitBreaker(c.breakerSettings())
	m.SetBreakerState("kasi", int(gobreaker.StateClosed))
	return c
}

func (c *KASIClient) breakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "kasi",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.2
		},
		// A date KASI has no record for, or a caller that gave up, says
		// nothing about the service's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			c.metrics.SetBreakerState(name, int(to))
		},
	}
}

// LookupLunar implements saju.CrossReferencer without caching.
func (c *KASIClient) LookupLunar(ctx context.Context, solar calendar.Date) (*saju.CrossReference, error) {
	res, err := c.Fetch(ctx, solar)
	if err != nil {
		return nil, err
	}
	return &res.Reference, nil
}

// Fetch retrieves the KASI record for a solar date.
func (c *KASIClient) Fetch(ctx context.Context, solar calendar.Date) (*Result, error) {
	if c.serviceKey == "" {
		return nil, ErrNoServiceKey
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.fetch(ctx, solar)
	})

	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
	}
	c.metrics.ObserveLookup("remote", result, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("kasi lookup %s: %w", solar, err)
	}
	return out.(*Result), nil
}

func (c *KASIClient) fetch(ctx context.Context, solar calendar.Date) (*Result, error) {
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey)
	params.Set("solYear", fmt.Sprintf("%04d", solar.Year))
	params.Set("solMonth", fmt.Sprintf("%02d", solar.Month))
	params.Set("solDay", fmt.Sprintf("%02d", solar.Day))
	params.Set("numOfRows", "1")
	params.Set("pageNo", "1")
	params.Set("_type", "json")

	target := c.baseURL + "/" + lunCalInfoOperation + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "requesting lunar calendar info", slog.String("solar_date", solar.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "kasi returned error status", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	ref, err := parseLunCalInfo(body)
	if err != nil {
		return nil, err
	}
	return &Result{Reference: *ref, Raw: body}, nil
}

// =============================================================================
// Response decoding
// =============================================================================

type lunCalInfoResponse struct {
	Response struct {
		Header struct {
			ResultCode flexString `json:"resultCode"`
			ResultMsg  string     `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      json.RawMessage `json:"items"`
			TotalCount flexString      `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type lunCalInfoItem struct {
	LunYear      flexString `json:"lunYear"`
	LunMonth     flexString `json:"lunMonth"`
	LunDay       flexString `json:"lunDay"`
	LunLeapmonth string     `json:"lunLeapmonth"`
	LunSecha     string     `json:"lunSecha"`
	LunWolgeon   string     `json:"lunWolgeon"`
	LunIljin     string     `json:"lunIljin"`
	SolJd        flexString `json:"solJd"`
	SolWeek      string     `json:"solWeek"`
	SolLeapyear  string     `json:"solLeapyear"`
	LunNday      flexString `json:"lunNday"`
}

// flexString accepts both JSON strings and numbers; data.go.kr services
// are not consistent about which they send.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(f)))
}

func parseLunCalInfo(body []byte) (*saju.CrossReference, error) {
	var resp lunCalInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	code := string(resp.Response.Header.ResultCode)
	if code != "00" && code != "0" {
		return nil, fmt.Errorf("%w: result code %q: %s", ErrUpstream, code, resp.Response.Header.ResultMsg)
	}

	item, err := firstItem(resp.Response.Body.Items)
	if err != nil {
		return nil, err
	}

	year, yErr := item.LunYear.int()
	month, mErr := item.LunMonth.int()
	day, dErr := item.LunDay.int()
	if err := errors.Join(yErr, mErr, dErr); err != nil {
		return nil, fmt.Errorf("%w: malformed lunar date: %v", ErrUpstream, err)
	}

	ref := &saju.CrossReference{
		LunarYear:  year,
		LunarMonth: month,
		LunarDay:   day,
		LeapMonth:  strings.TrimSpace(item.LunLeapmonth) == "윤",
		YearGanji:  item.LunSecha,
		MonthGanji: item.LunWolgeon,
		DayGanji:   item.LunIljin,
		SourceName: KASISourceName,
	}
	if jd, err := item.SolJd.int(); err == nil {
		ref.JulianDay = jd
	}
	return ref, nil
}

// firstItem digs the record out of body.items, which may be an empty
// string, an object wrapping "item", or the item (or list) itself.
func firstItem(raw json.RawMessage) (*lunCalInfoItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil, ErrNoData
	}

	if raw[0] == '{' {
		var wrapper struct {
			Item json.RawMessage `json:"item"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Item) > 0 {
			raw = bytes.TrimSpace(wrapper.Item)
		}
	}

	var items []lunCalInfoItem
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: decode items: %v", ErrUpstream, err)
		}
	} else {
		var item lunCalInfoItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("%w: decode item: %v", ErrUpstream, err)
		}
		items = append(items, item)
	}

	if len(items) == 0 || items[0].LunYear == "" {
		return nil, ErrNoData
	}
	return &items[0], nil
}
