package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesboard/internal/core/apperror"
	"salesboard/internal/domain/filter"
	"salesboard/internal/domain/sales"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// itemSource is a bound query that can be expressed as filter rows.
type itemSource interface {
	Items() []filter.Item
}

// BindSpec binds q from the query string and resolves it into a sales spec.
// q must be a pointer.
func (h *BaseHandler) BindSpec(c *gin.Context, q itemSource) (sales.FilterSpec, bool) {
	if !h.BindQuery(c, q) {
		return sales.FilterSpec{}, false
	}
	spec, err := sales.SpecFromItems(q.Items())
	if err != nil {
		h.Error(c, err)
		return sales.FilterSpec{}, false
	}
	return spec, true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Attachment starts a 200 download response named filename.
func (h *BaseHandler) Attachment(c *gin.Context, contentType, filename string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Status(http.StatusOK)
}
