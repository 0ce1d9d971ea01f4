package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/metrics"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

const maxBodyBytes = 64 << 10

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	engine  *saju.Engine
	db      *database.DB
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance. db and m may be nil.
func NewHandlers(engine *saju.Engine, db *database.DB, m *metrics.Metrics, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		engine:  engine,
		db:      db,
		metrics: m,
		logger:  logger,
	}
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status     string               `json:"status"`
	Convention saju.Convention      `json:"convention"`
	Cache      *database.CacheStats `json:"cache,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts := h.engine.Options()

	resp := HealthResponse{
		Status: "healthy",
		Convention: saju.Convention{
			Zi:              opts.Zi,
			YearBoundary:    opts.YearBoundary,
			ElementCounting: opts.Counting,
		},
	}

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
			return
		}

		stats, err := h.db.GetCacheStats(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "cache stats unavailable", slog.Any("error", err))
		} else {
			resp.Cache = stats
		}
	}

	WriteSuccess(w, resp)
}

// CalculateSaju handles POST /api/v1/saju
func (h *Handlers) CalculateSaju(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in saju.CalendarInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	start := time.Now()
	chart, err := h.engine.Calculate(ctx, in)
	if err != nil {
		code, ok := saju.CodeOf(err)
		if !ok {
			h.metrics.ObserveCalculation("internal", time.Since(start))
			h.logger.ErrorContext(ctx, "chart calculation failed", slog.Any("error", err))
			WriteInternalError(w, "Failed to calculate chart")
			return
		}
		h.metrics.ObserveCalculation(string(code), time.Since(start))
		WriteError(w, http.StatusBadRequest, err.Error(), string(code))
		return
	}
	h.metrics.ObserveCalculation("ok", time.Since(start))

	WriteSuccess(w, chart)
}

// DateConversion is the payload of the lunar conversion endpoints.
type DateConversion struct {
	Solar     string             `json:"solar"`
	Weekday   string             `json:"weekday"`
	Lunar     calendar.LunarDate `json:"lunar"`
	LunarText string             `json:"lunarText"`
	DayPillar saju.Pillar        `json:"dayPillar"`
}

func newDateConversion(solar calendar.Date, lunar calendar.LunarDate) DateConversion {
	return DateConversion{
		Solar:     solar.String(),
		Weekday:   solar.Weekday().String(),
		Lunar:     lunar,
		LunarText: lunar.String(),
		DayPillar: saju.DayPillarOf(solar),
	}
}

// LunarToSolar handles GET /api/v1/lunar/to-solar?date=YYYY-MM-DD&leap=true
func (h *Handlers) LunarToSolar(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		WriteBadRequest(w, "date parameter is required")
		return
	}

	leap := false
	if s := r.URL.Query().Get("leap"); s != "" {
		var err error
		if leap, err = strconv.ParseBool(s); err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid leap flag: %s", s))
			return
		}
	}

	lunar, err := calendar.ParseLunarDate(dateStr, leap)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	solar, err := calendar.LunarToSolar(lunar)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	WriteSuccess(w, newDateConversion(solar, lunar))
}

// SolarToLunar handles GET /api/v1/lunar/from-solar?date=YYYY-MM-DD
func (h *Handlers) SolarToLunar(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		WriteBadRequest(w, "date parameter is required")
		return
	}

	solar, err := calendar.ParseDate(dateStr)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	lunar, err := calendar.SolarToLunar(solar)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	WriteSuccess(w, newDateConversion(solar, lunar))
}

// SolarTermsResponse is the payload of the solar terms endpoint.
type SolarTermsResponse struct {
	Year       int                  `json:"year"`
	YearPillar saju.Pillar          `json:"yearPillar"`
	Terms      []calendar.SolarTerm `json:"terms"`
}

// SolarTerms handles GET /api/v1/solar-terms/{year}?all=true
//
// By default only the 12 terms that open a pillar month are listed.
func (h *Handlers) SolarTerms(w http.ResponseWriter, r *http.Request) {
	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}

	all := false
	if s := r.URL.Query().Get("all"); s != "" {
		if all, err = strconv.ParseBool(s); err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid all flag: %s", s))
			return
		}
	}

	var terms []calendar.SolarTerm
	if all {
		terms, err = calendar.SolarTerms(year)
	} else {
		terms, err = calendar.MajorSolarTerms(year)
	}
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	WriteSuccess(w, SolarTermsResponse{
		Year:       year,
		YearPillar: saju.YearPillarOf(year),
		Terms:      terms,
	})
}

// writeCalendarError reports a calendar failure under the engine's codes.
func writeCalendarError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, err.Error(), string(saju.Classify(err).Code))
}
