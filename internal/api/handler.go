// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"news_summarizer/internal/domain"
)

type Runner interface {
	Run(ctx context.Context) (*domain.RunResult, error)
}

type ItemInserter interface {
	Insert(ctx context.Context, item *domain.Item) (string, error)
}

type Handler struct {
	runner Runner
	items  ItemInserter
	logger *slog.Logger
}

func NewHandler(runner Runner, items ItemInserter, logger *slog.Logger) *Handler {
	return &Handler{
		runner: runner,
		items:  items,
		logger: logger.With("component", "api"),
	}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/runs", h.Run)
		v1.POST("/items", h.CreateItem)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run: POST /v1/runs
// Runs one pass synchronously. The pass is not cut short if the client goes away.
func (h *Handler) Run(c *gin.Context) {
	result, err := h.runner.Run(context.WithoutCancel(c.Request.Context()))
	if err != nil && result == nil {
		h.logger.Error("run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Warn("run finished early", "run_id", result.RunID, "error", err)
	}
	c.JSON(http.StatusOK, result)
}

type createItemRequest struct {
	Title   string `json:"title" binding:"required"`
	Link    string `json:"link"`
	Source  string `json:"source" binding:"required"`
	Content string `json:"content"`
}

// CreateItem: POST /v1/items
// Body: {"title", "link", "source", "content"}
func (h *Handler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	item := &domain.Item{
		Title:   req.Title,
		Link:    req.Link,
		Source:  req.Source,
		Content: req.Content,
	}

	id, err := h.items.Insert(c.Request.Context(), item)
	if err != nil {
		h.logger.Error("insert item failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insert failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}
