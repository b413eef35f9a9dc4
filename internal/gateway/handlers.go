package gateway

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/biodoia/contentforge/pkg/cache"
	"github.com/biodoia/contentforge/pkg/middleware"
	"github.com/biodoia/contentforge/pkg/models"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TopicRequest è il body di POST /api/generate-content
type TopicRequest struct {
	Topic string `json:"topic"`
}

// handleGenerateContent esegue la pipeline per un topic e salva il risultato.
// Il salvataggio è best-effort: un errore dello store non fa fallire la
// richiesta, l'esito viene riportato in save_status.
func (g *Gateway) handleGenerateContent(c fiber.Ctx) error {
	var req TopicRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "invalid request body",
		})
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "topic is required",
		})
	}

	// Cache hit: la pipeline non viene eseguita
	if g.cache != nil {
		if entry, err := g.cache.Get(c.Context(), topic); err == nil {
			log.Info().Str("topic", topic).Msg("Serving generation from cache")
			return c.JSON(fiber.Map{
				"status":      "success",
				"topic":       topic,
				"content":     entry.Content,
				"keywords":    entry.Keywords,
				"model":       entry.Model,
				"provider":    entry.Provider,
				"save_status": models.SaveStatusCached,
			})
		}
	}

	result, err := g.runner.Run(c.Context(), topic)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("topic", topic).
			Msg("Content generation failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "content generation failed: " + err.Error(),
		})
	}

	keywords := result.Keywords()

	gen := &models.Generation{
		Topic:            topic,
		Content:          result.Content,
		Model:            result.Model,
		Provider:         result.Provider,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
		DurationMs:       result.Duration.Milliseconds(),
	}
	if len(keywords) > 0 {
		if data, err := json.Marshal(keywords); err == nil {
			gen.Keywords = data
		}
	}

	saveStatus := models.SaveStatusSaved
	if err := g.store.CreateGeneration(gen); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to save generation")
		saveStatus = models.SaveStatusFailed
	}

	if g.cache != nil {
		entry := &cache.Entry{
			Topic:    topic,
			Content:  result.Content,
			Keywords: keywords,
			Model:    result.Model,
			Provider: result.Provider,
		}
		if err := g.cache.Set(c.Context(), topic, entry); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("Failed to cache generation")
		}
	}

	response := fiber.Map{
		"status":      "success",
		"topic":       topic,
		"content":     result.Content,
		"keywords":    keywords,
		"model":       result.Model,
		"provider":    result.Provider,
		"save_status": saveStatus,
		"duration_ms": result.Duration.Milliseconds(),
		"usage": fiber.Map{
			"prompt_tokens":     result.Usage.PromptTokens,
			"completion_tokens": result.Usage.CompletionTokens,
			"total_tokens":      result.Usage.TotalTokens,
		},
	}
	if saveStatus == models.SaveStatusSaved {
		response["id"] = gen.ID
	}

	return c.JSON(response)
}

// handleListContent lista le generazioni salvate, più recenti per prime
func (g *Gateway) handleListContent(c fiber.Ctx) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "limit must be a positive integer",
			})
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	generations, err := g.store.ListGenerations(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list generations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "failed to list content",
		})
	}

	items := make([]fiber.Map, 0, len(generations))
	for i := range generations {
		items = append(items, serializeGeneration(&generations[i]))
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"count":   len(items),
		"content": items,
	})
}

// handleGetContent recupera una singola generazione per id
func (g *Gateway) handleGetContent(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "invalid content id",
		})
	}

	gen, err := g.store.GetGenerationByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "content not found",
			})
		}
		log.Error().Err(err).Str("id", id.String()).Msg("Failed to fetch generation")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "failed to fetch content",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"content": serializeGeneration(gen),
	})
}

// handleDeleteContent elimina una generazione per id
func (g *Gateway) handleDeleteContent(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "invalid content id",
		})
	}

	if err := g.store.DeleteGeneration(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "content not found",
			})
		}
		log.Error().Err(err).Str("id", id.String()).Msg("Failed to delete generation")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "failed to delete content",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "content deleted",
		"id":      id,
	})
}

// handlePipelineInfo descrive gli agenti configurati e il loro ordine
func (g *Gateway) handlePipelineInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "success",
		"provider": g.config.LLM.Provider,
		"model":    g.config.LLM.Model,
		"stages":   g.runner.Describe(),
	})
}

// serializeGeneration converte una Generation nella sua forma di risposta
func serializeGeneration(gen *models.Generation) fiber.Map {
	var keywords []string
	if len(gen.Keywords) > 0 {
		// Keywords corrotte vengono omesse, non bloccano la risposta
		_ = json.Unmarshal(gen.Keywords, &keywords)
	}

	return fiber.Map{
		"id":           gen.ID,
		"topic":        gen.Topic,
		"content":      gen.Content,
		"keywords":     keywords,
		"model":        gen.Model,
		"provider":     gen.Provider,
		"total_tokens": gen.TotalTokens,
		"duration_ms":  gen.DurationMs,
		"created_at":   gen.CreatedAt.Format(time.RFC3339),
	}
}
