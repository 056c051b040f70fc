package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"stockpulse/internal/analytics"
	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/exporter"
	"stockpulse/internal/middleware"
	"stockpulse/internal/services"
	"stockpulse/pkg/contracts/domain"
)

// HeaderDataSource tells clients whether prices are live or synthetic
const HeaderDataSource = "X-Data-Source"

// MaxSymbolLimit bounds the limit query parameter
const MaxSymbolLimit = 50

type tickerCtxKey struct{}

// StockHandler serves the proxy and analytics routes
type StockHandler struct {
	service      StockServiceInterface
	analytics    config.AnalyticsConfig
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service StockServiceInterface, cfg config.AnalyticsConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *StockHandler {
	return &StockHandler{
		service:      service,
		analytics:    cfg,
		validator:    middleware.NewValidator(logger),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "stock_handler")),
	}
}

// StockRoutes returns the proxy routes mounted at /api/stocks
func (h *StockHandler) StockRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStocks)
	r.With(h.TickerCtx).Get("/{ticker}", h.GetStock)
	return r
}

// AnalyticsRoutes returns the analytics routes mounted at /api/analytics
func (h *StockHandler) AnalyticsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/correlations", h.GetCorrelationReport)
	r.Get("/correlations/export", h.ExportCorrelationReport)
	r.With(h.TickerCtx).Get("/stocks/{ticker}", h.GetStockAnalysis)
	r.Get("/intervals", h.GetIntervals)
	return r
}

// TickerCtx validates the {ticker} URL parameter and stores it upper-cased
func (h *StockHandler) TickerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticker")))
		if err := h.validator.ValidateVar("ticker", ticker, "required,ticker"); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), tickerCtxKey{}, ticker)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tickerFrom(r *http.Request) string {
	ticker, _ := r.Context().Value(tickerCtxKey{}).(string)
	return ticker
}

// GetStocks handles GET /api/stocks
func (h *StockHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	dir, source, err := h.service.Directory(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	setSource(w, source)
	render.JSON(w, r, dir)
}

// GetStock handles GET /api/stocks/{ticker}. With minutes it proxies the
// history, without it the current price.
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ticker := tickerFrom(r)

	if !r.URL.Query().Has("minutes") {
		point, source, err := h.service.Current(r.Context(), ticker)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		setSource(w, source)
		render.JSON(w, r, analytics.Reading(point))
		return
	}

	minutes, ok := h.query.ValidateInt(w, r, "minutes", 1, h.analytics.MaxMinutes, h.analytics.DefaultMinutes)
	if !ok {
		return
	}

	// the answered shape passes through: a series, or a single reading
	data, source, err := h.service.History(r.Context(), ticker, minutes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setSource(w, source)
	render.JSON(w, r, data)
}

// GetCorrelationSeries handles GET /api/correlations: the raw series of
// the top symbols the dashboard correlates
func (h *StockHandler) GetCorrelationSeries(w http.ResponseWriter, r *http.Request) {
	minutes, ok := h.query.ValidateInt(w, r, "minutes", 1, h.analytics.MaxMinutes, h.analytics.DefaultMinutes)
	if !ok {
		return
	}

	data, err := h.service.CorrelationData(r.Context(), services.CorrelationRequest{Minutes: minutes})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	series := make(map[string]domain.PriceSeries, len(data.Symbols))
	for _, s := range data.Symbols {
		if ps := data.Series[s]; ps != nil {
			series[s] = ps
		} else {
			series[s] = domain.PriceSeries{}
		}
	}

	setSource(w, data.Source)
	render.JSON(w, r, series)
}

// GetCorrelationReport handles GET /api/analytics/correlations
func (h *StockHandler) GetCorrelationReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.correlationRequest(w, r)
	if !ok {
		return
	}

	report, err := h.service.Correlations(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "correlation report built",
		slog.Int("symbols", len(report.Symbols)),
		slog.Int("minutes", report.Minutes),
		slog.String("source", string(report.Source)),
	)

	setSource(w, report.Source)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// ExportCorrelationReport handles GET /api/analytics/correlations/export
func (h *StockHandler) ExportCorrelationReport(w http.ResponseWriter, r *http.Request) {
	name, ok := h.query.ValidateEnum(w, r, "format", exporter.Formats, string(exporter.FormatXLSX))
	if !ok {
		return
	}
	format, err := exporter.ParseFormat(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	req, ok := h.correlationRequest(w, r)
	if !ok {
		return
	}

	report, err := h.service.Correlations(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, report, format); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrExportFailed.WithDetails(string(format)))
		return
	}

	setSource(w, report.Source)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(report)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetStockAnalysis handles GET /api/analytics/stocks/{ticker}
func (h *StockHandler) GetStockAnalysis(w http.ResponseWriter, r *http.Request) {
	minutes, ok := h.query.ValidateInt(w, r, "minutes", 1, h.analytics.MaxMinutes, h.analytics.AnalysisMinutes)
	if !ok {
		return
	}

	analysis, err := h.service.Analyze(r.Context(), tickerFrom(r), minutes)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	setSource(w, analysis.Source)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   analysis,
	})
}

// GetIntervals handles GET /api/analytics/intervals
func (h *StockHandler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"intervals":      h.service.Intervals(),
			"defaultMinutes": h.analytics.DefaultMinutes,
			"maxMinutes":     h.analytics.MaxMinutes,
		},
	})
}

// correlationQuery is the validated query of the correlation routes
type correlationQuery struct {
	Symbols string `json:"symbols" validate:"symbols"`
}

func (h *StockHandler) correlationRequest(w http.ResponseWriter, r *http.Request) (services.CorrelationRequest, bool) {
	minutes, ok := h.query.ValidateInt(w, r, "minutes", 1, h.analytics.MaxMinutes, h.analytics.DefaultMinutes)
	if !ok {
		return services.CorrelationRequest{}, false
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, MaxSymbolLimit, 0)
	if !ok {
		return services.CorrelationRequest{}, false
	}

	q := correlationQuery{Symbols: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbols")))}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return services.CorrelationRequest{}, false
	}

	req := services.CorrelationRequest{Minutes: minutes, Limit: limit}
	if q.Symbols != "" {
		for _, s := range strings.Split(q.Symbols, ",") {
			req.Symbols = append(req.Symbols, strings.TrimSpace(s))
		}
	}
	return req, true
}

// fail maps service errors onto API errors and renders them
func (h *StockHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errorHandler.HandleError(w, r, mapServiceError(err))
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, services.ErrInvalidTicker):
		return apierrors.ErrValidation("ticker", err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.ErrInvalidParameter.WithMessage(err.Error())
	case errors.Is(err, services.ErrTickerNotFound):
		return apierrors.ErrTickerNotFound.WithMessage(err.Error())
	case errors.Is(err, services.ErrAnomalousPrice):
		return apierrors.ErrAnomalousInput.WithMessage(err.Error())
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return apierrors.ErrUpstreamUnavailable.WithMessage(err.Error())
	default:
		return err
	}
}

func setSource(w http.ResponseWriter, source domain.DataSource) {
	if source != "" {
		w.Header().Set(HeaderDataSource, string(source))
	}
}
