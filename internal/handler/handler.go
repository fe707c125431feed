package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortlink/internal/model"
	"shortlink/internal/service"
)

// pageSize caps how many links a single listing returns.
const pageSize = 100

// ShortLinkHandler exposes the short-link service over HTTP.
type ShortLinkHandler struct {
	svc *service.Service
	log *zap.SugaredLogger
}

// NewShortLinkHandler creates a handler backed by svc.
func NewShortLinkHandler(svc *service.Service, log *zap.SugaredLogger) *ShortLinkHandler {
	return &ShortLinkHandler{svc: svc, log: log}
}

// HealthCheck reports liveness.
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// CreateShortLinkRequest is the body of POST /api/shorten.
type CreateShortLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateShortLinkResponse is returned on successful creation.
type CreateShortLinkResponse struct {
	ID          uint64 `json:"id"`
	ShortCode   string `json:"short_code"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
}

// CreateShortLink registers a new mapping and returns its code.
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	link, err := h.svc.Create(c.Request.Context(), req.URL)
	if err != nil {
		if service.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorw("create short link failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create short link"})
		return
	}

	c.JSON(http.StatusCreated, CreateShortLinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    "http://" + c.Request.Host + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
	})
}

// RedirectToOriginal resolves a code and issues a 302 to the target URL.
// Responses are marked uncacheable so every visit reaches the counter.
func (h *ShortLinkHandler) RedirectToOriginal(c *gin.Context) {
	code := c.Param("code")

	target, hit, err := h.svc.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "short link not found"})
			return
		}
		h.log.Errorw("resolve failed", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve short link"})
		return
	}

	h.log.Debugw("redirect", "code", code, "cache_hit", hit)
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, target)
}

// URLListResponse is the body of GET /api/urls.
type URLListResponse struct {
	URLs  []model.ShortLink `json:"urls"`
	Total int               `json:"total"`
}

// GetAllLinks lists the most recent mappings, newest first.
func (h *ShortLinkHandler) GetAllLinks(c *gin.Context) {
	links, err := h.svc.List(c.Request.Context(), pageSize, 0)
	if err != nil {
		h.log.Errorw("list short links failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list short links"})
		return
	}
	c.JSON(http.StatusOK, URLListResponse{URLs: links, Total: len(links)})
}

// GetStats returns aggregate counters.
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.log.Errorw("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLink returns the full record for a code without redirecting.
func (h *ShortLinkHandler) GetLink(c *gin.Context) {
	code := c.Param("code")

	link, err := h.svc.Info(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "short link not found"})
			return
		}
		h.log.Errorw("link lookup failed", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up short link"})
		return
	}
	c.JSON(http.StatusOK, link)
}

// DeleteLink removes a mapping and its cached copy.
func (h *ShortLinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")

	removed, err := h.svc.Delete(c.Request.Context(), code)
	if err != nil {
		h.log.Errorw("delete failed", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete short link"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "short link not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
