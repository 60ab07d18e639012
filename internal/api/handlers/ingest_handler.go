package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convoinsight/backend/internal/analytics"
	"github.com/convoinsight/backend/internal/metrics"
	"github.com/convoinsight/backend/internal/storage/models"
	"github.com/convoinsight/backend/pkg/logger"
)

// IngestStore is the write boundary used by the upstream collaborators
// (answering pipeline, rating submission). The analytics engine itself only
// ever reads.
type IngestStore interface {
	InsertSession(ctx context.Context, s *models.ChatSession) error
	InsertMessage(ctx context.Context, m *models.ChatMessage) error
	InsertEvent(ctx context.Context, e *models.ChatEvent) error
	InsertRating(ctx context.Context, r *models.MessageRating) error
}

type IngestHandler struct {
	store IngestStore
	cache analytics.ResultCache
}

func NewIngestHandler(store IngestStore, cache analytics.ResultCache) *IngestHandler {
	return &IngestHandler{store: store, cache: cache}
}

// invalidate drops cached results after a write; any new record can shift any
// window.
func (h *IngestHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate result cache", zap.Error(err))
	}
}

func (h *IngestHandler) CreateSession(c *fiber.Ctx) error {
	var req struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
		Title  string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        req.ID,
		UserID:    req.UserID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.InsertSession(c.Context(), session); err != nil {
		logger.Error("Failed to store session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store session"})
	}

	metrics.IngestedRecords.WithLabelValues("session").Inc()
	h.invalidate(c.Context())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": session.ID})
}

func (h *IngestHandler) CreateMessage(c *fiber.Ctx) error {
	var req struct {
		ID        string          `json:"id"`
		SessionID string          `json:"session_id"`
		Role      string          `json:"role"`
		Content   json.RawMessage `json:"content"`
		Ordinal   int             `json:"ordinal"`
		Timestamp *time.Time      `json:"timestamp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}
	if req.Role != "user" && req.Role != "assistant" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "role must be user or assistant"})
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	createdAt := time.Now().UTC()
	if req.Timestamp != nil {
		createdAt = req.Timestamp.UTC()
	}

	message := &models.ChatMessage{
		ID:        req.ID,
		SessionID: req.SessionID,
		Role:      req.Role,
		Content:   string(req.Content),
		Ordinal:   req.Ordinal,
		CreatedAt: createdAt,
	}

	if err := h.store.InsertMessage(c.Context(), message); err != nil {
		logger.Error("Failed to store message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store message"})
	}

	metrics.IngestedRecords.WithLabelValues("message").Inc()
	h.invalidate(c.Context())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": message.ID})
}

func (h *IngestHandler) CreateEvent(c *fiber.Ctx) error {
	var req struct {
		ID               string          `json:"id"`
		SessionID        string          `json:"session_id"`
		MessageID        string          `json:"message_id"`
		EventType        string          `json:"event_type"`
		Status           string          `json:"status"`
		Payload          json.RawMessage `json:"payload"`
		ProcessingTimeMS *int            `json:"processing_time_ms"`
		Timestamp        *time.Time      `json:"timestamp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}
	if req.EventType == "" || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_type and status are required"})
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	createdAt := time.Now().UTC()
	if req.Timestamp != nil {
		createdAt = req.Timestamp.UTC()
	}

	event := &models.ChatEvent{
		ID:               req.ID,
		SessionID:        req.SessionID,
		MessageID:        req.MessageID,
		EventType:        models.EventType(req.EventType),
		Status:           models.EventStatus(req.Status),
		Payload:          string(req.Payload),
		ProcessingTimeMS: req.ProcessingTimeMS,
		CreatedAt:        createdAt,
	}

	if err := h.store.InsertEvent(c.Context(), event); err != nil {
		logger.Error("Failed to store event", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store event"})
	}

	metrics.IngestedRecords.WithLabelValues("event").Inc()
	h.invalidate(c.Context())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": event.ID})
}

func (h *IngestHandler) CreateRating(c *fiber.Ctx) error {
	var req struct {
		MessageID string `json:"message_id"`
		SessionID string `json:"session_id"`
		Rating    int    `json:"rating"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.MessageID == "" || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message_id and session_id are required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rating must be between 1 and 5"})
	}

	rating := &models.MessageRating{
		MessageID: req.MessageID,
		SessionID: req.SessionID,
		Rating:    req.Rating,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.InsertRating(c.Context(), rating); err != nil {
		logger.Error("Failed to store rating", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store rating"})
	}

	metrics.IngestedRecords.WithLabelValues("rating").Inc()
	h.invalidate(c.Context())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok"})
}
