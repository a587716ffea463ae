package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"novacall/internal/engine"
	"novacall/internal/gateway"
	"novacall/internal/store"
	"novacall/internal/task"
	"novacall/internal/transcript"
	"novacall/pkg/logger"
	"novacall/pkg/utils"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Gateway     *gateway.Gateway
	Transcripts *transcript.Repository

	// Probe dependencies for GET /test; optional.
	DB    *sql.DB
	Docs  *store.Postgres
	Redis *redis.Client
}

// schemaNames is the static entity list exposed for external CRUD tooling.
// user and product are example entities kept for builder compatibility.
var schemaNames = []string{"user", "product", task.Collection, transcript.Collection}

// --- Call tasks ---

type createCallTaskRequest struct {
	TargetPhone        string   `json:"target_phone"`
	Intent             string   `json:"intent"`
	Script             string   `json:"script"`
	TalkingPoints      []string `json:"talking_points"`
	FallbackConditions []string `json:"fallback_conditions"`
	VoiceModelID       string   `json:"voice_model_id"`
	ConsentRequired    bool     `json:"consent_required"`
}

// CreateCallTask persists a task and schedules its asynchronous run.
func (h Handlers) CreateCallTask(c *gin.Context) {
	var req createCallTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Gateway.Submit(c.Request.Context(), task.NewCallTask{
		TargetPhone:        req.TargetPhone,
		Intent:             req.Intent,
		Script:             req.Script,
		TalkingPoints:      req.TalkingPoints,
		FallbackConditions: req.FallbackConditions,
		VoiceModelID:       req.VoiceModelID,
		ConsentRequired:    req.ConsentRequired,
	})
	if err != nil {
		switch {
		case errors.Is(err, task.ErrValidation):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, engine.ErrQueueFull), errors.Is(err, engine.ErrStopped):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "call queue is full, retry later"})
		default:
			logger.FromGin(c).Error("call task submit failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "submit failed"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Transcripts ---

type appendTranscriptRequest struct {
	CallID  string `json:"call_id"`
	Role    string `json:"role"`
	Text    string `json:"text"`
	Outcome string `json:"outcome"`
}

// AppendTranscript appends one entry directly, bypassing the engine. Used for
// manual or external logging.
func (h Handlers) AppendTranscript(c *gin.Context) {
	var req appendTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	_, err := h.Transcripts.Append(c.Request.Context(), transcript.Entry{
		CallID:  req.CallID,
		Role:    transcript.Role(req.Role),
		Text:    req.Text,
		Outcome: req.Outcome,
	})
	if err != nil {
		if errors.Is(err, transcript.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.FromGin(c).Error("transcript append failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "append failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListTranscripts returns the call's entries in insertion order.
func (h Handlers) ListTranscripts(c *gin.Context) {
	callID := c.Param("call_id")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.Transcripts.ListByCall(c.Request.Context(), callID, limit)
	if err != nil {
		logger.FromGin(c).Error("transcript list failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if items == nil {
		items = []transcript.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// --- Tooling endpoints ---

// Schema returns the static list of entity names the store recognizes.
func (h Handlers) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schemas": schemaNames})
}

// StoreProbe reports backing-store connectivity; not part of the core contract.
func (h Handlers) StoreProbe(c *gin.Context) {
	resp := gin.H{
		"backend":     "ok",
		"database":    "unavailable",
		"redis":       "disabled",
		"collections": []string{},
	}

	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err != nil {
			resp["database"] = "error: " + err.Error()
		} else {
			resp["database"] = "ok"
			if h.Docs != nil {
				if names, err := h.Docs.Collections(c.Request.Context(), 10); err == nil && names != nil {
					resp["collections"] = names
				}
			}
		}
	}

	if h.Redis != nil {
		if err := h.Redis.Ping(c.Request.Context()).Err(); err != nil {
			resp["redis"] = "error: " + err.Error()
		} else {
			resp["redis"] = "ok"
		}
	}

	c.JSON(http.StatusOK, resp)
}
