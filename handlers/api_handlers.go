package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"student-api-server-go/middleware"
	"student-api-server-go/models"
)

const (
	classParam      = "class"
	jsonContentType = "application/json; charset=utf-8"
	cacheHeader     = "X-Cache"
)

// ResponseCache stores serialized student responses. *db.RedisCache
// implements it.
type ResponseCache interface {
	Key(classes []string, filtered bool) string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// APIHandler serves the student table. Table is never modified after
// construction; Cache is optional.
type APIHandler struct {
	Table *models.Table
	Cache ResponseCache
}

// NewAPIHandler creates a new APIHandler. cache may be nil.
func NewAPIHandler(table *models.Table, cache ResponseCache) *APIHandler {
	studentsLoaded.Set(float64(table.Len()))
	return &APIHandler{
		Table: table,
		Cache: cache,
	}
}

// GetStudents handles GET /api?class=<v1>&class=<v2>...
//
// Without a class parameter every student is returned in load order. With
// one or more values only students whose class equals one of them exactly
// are returned, still in load order. An empty value is a real filter and
// matches students with a blank class.
func (h *APIHandler) GetStudents(c *gin.Context) {
	classes, filtered := c.GetQueryArray(classParam)

	if h.Cache == nil {
		h.respond(c, classes, filtered)
		return
	}

	ctx := c.Request.Context()
	key := h.Cache.Key(classes, filtered)
	body, ok, err := h.Cache.Get(ctx, key)
	if err != nil {
		cacheLookups.WithLabelValues("error").Inc()
		slog.Warn("response cache lookup failed", "key", key, "error", err,
			"requestID", middleware.GetRequestID(c))
	}
	if ok {
		cacheLookups.WithLabelValues("hit").Inc()
		c.Header(cacheHeader, "HIT")
		c.Data(http.StatusOK, jsonContentType, body)
		return
	}
	if err == nil {
		cacheLookups.WithLabelValues("miss").Inc()
	}

	body, rendered := h.respond(c, classes, filtered)
	if !rendered {
		return
	}
	if err := h.Cache.Set(ctx, key, body); err != nil {
		slog.Warn("failed to store response in cache", "key", key, "error", err,
			"requestID", middleware.GetRequestID(c))
	}
}

// respond filters the table and writes the body. It reports whether a body
// was produced.
func (h *APIHandler) respond(c *gin.Context, classes []string, filtered bool) ([]byte, bool) {
	body, err := json.Marshal(models.StudentsResponse{
		Students: h.Table.SelectByClass(classes, filtered),
	})
	if err != nil {
		slog.Error("failed to encode students", "error", err, "requestID", middleware.GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode students"})
		return nil, false
	}
	if h.Cache != nil {
		c.Header(cacheHeader, "MISS")
	}
	c.Data(http.StatusOK, jsonContentType, body)
	return body, true
}
