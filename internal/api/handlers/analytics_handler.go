package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/convoinsight/backend/internal/analytics"
	"github.com/convoinsight/backend/internal/metrics"
	"github.com/convoinsight/backend/pkg/circuitbreaker"
	"github.com/convoinsight/backend/pkg/logger"
)

type AnalyticsHandler struct {
	service    *analytics.Service
	windowDays int
	peakHours  int
}

func NewAnalyticsHandler(service *analytics.Service, windowDays, peakHours int) *AnalyticsHandler {
	if windowDays <= 0 {
		windowDays = 30
	}
	if peakHours <= 0 {
		peakHours = 3
	}
	return &AnalyticsHandler{service: service, windowDays: windowDays, peakHours: peakHours}
}

// respond shapes the three caller-visible outcomes: invalid parameters (4xx),
// a broken read layer (5xx), and data (200 even when zero-shaped).
func respond(c *fiber.Ctx, metric string, result interface{}, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrInvalidDateRange):
			metrics.AnalyticsRequests.WithLabelValues(metric, "client_error").Inc()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, analytics.ErrUpstreamUnavailable), errors.Is(err, circuitbreaker.ErrCircuitOpen):
			metrics.AnalyticsRequests.WithLabelValues(metric, "unavailable").Inc()
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "record store unavailable"})
		default:
			logger.Error("Metric computation failed", zap.String("metric", metric), zap.Error(err))
			metrics.AnalyticsRequests.WithLabelValues(metric, "error").Inc()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute metric"})
		}
	}

	metrics.AnalyticsRequests.WithLabelValues(metric, "ok").Inc()
	return c.JSON(result)
}

func (h *AnalyticsHandler) window(c *fiber.Ctx) (analytics.Window, error) {
	return analytics.ResolveWindow(c.Query("start_date"), c.Query("end_date"), time.Now(), h.windowDays)
}

func (h *AnalyticsHandler) Latency(c *fiber.Ctx) error {
	const metric = "latency"
	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	timer := metrics.ComputeDuration.WithLabelValues(metric)
	start := time.Now()
	result, err := h.service.Latency(c.Context(), w)
	timer.Observe(time.Since(start).Seconds())

	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) ToolUsage(c *fiber.Ctx) error {
	const metric = "tool_usage"
	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	result, err := h.service.ToolUsage(c.Context(), w)
	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) CollectionsHealth(c *fiber.Ctx) error {
	const metric = "collections_health"
	result, err := h.service.CollectionsHealth(c.Context())
	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) Activity(c *fiber.Ctx) error {
	const metric = "activity"

	days, _ := strconv.Atoi(c.Query("days", strconv.Itoa(h.windowDays)))
	topN, _ := strconv.Atoi(c.Query("top", strconv.Itoa(h.peakHours)))

	end := time.Now().UTC()
	w := analytics.Window{Start: end.AddDate(0, 0, -days), End: end}
	if c.Query("start_date") != "" || c.Query("end_date") != "" {
		var err error
		w, err = h.window(c)
		if err != nil {
			return respond(c, metric, nil, err)
		}
	}

	result, err := h.service.Activity(c.Context(), w, topN)
	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) NoAnswerRate(c *fiber.Ctx) error {
	const metric = "no_answer_rate"
	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	result, err := h.service.NoAnswerRate(c.Context(), w)
	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) CitationStats(c *fiber.Ctx) error {
	const metric = "citation_stats"
	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	result, err := h.service.CitationStats(c.Context(), w)
	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) AnswerLength(c *fiber.Ctx) error {
	const metric = "answer_length"
	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	result, err := h.service.AnswerLength(c.Context(), w)
	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) Sentiment(c *fiber.Ctx) error {
	const metric = "sentiment"
	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	timer := metrics.ComputeDuration.WithLabelValues(metric)
	start := time.Now()
	result, err := h.service.Sentiment(c.Context(), w)
	timer.Observe(time.Since(start).Seconds())

	return respond(c, metric, result, err)
}

func (h *AnalyticsHandler) UserMetrics(c *fiber.Ctx) error {
	const metric = "user_metrics"

	userID := c.Query("user_id")
	if userID == "" {
		metrics.AnalyticsRequests.WithLabelValues(metric, "client_error").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	w, err := h.window(c)
	if err != nil {
		return respond(c, metric, nil, err)
	}

	result, err := h.service.UserMetrics(c.Context(), userID, w)
	return respond(c, metric, result, err)
}
