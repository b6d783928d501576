package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wikifeeds-api/internal/mostread"
	"github.com/wikifeeds-api/internal/validation"
)

// Problem is the JSON error body returned by the API
type Problem struct {
	Status int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Method string `json:"method"`
	URI    string `json:"uri"`
}

const problemContentType = "application/problem+json"

func writeProblem(c *gin.Context, status int, typ, title, detail string) {
	c.Header("Content-Type", problemContentType)
	c.Header("Cache-Control", "no-cache")
	c.JSON(status, Problem{
		Status: status,
		Type:   typ,
		Title:  title,
		Detail: detail,
		Method: c.Request.Method,
		URI:    c.Request.URL.RequestURI(),
	})
}

// writeError maps service errors onto problem responses
func writeError(c *gin.Context, err error) {
	var verr validation.ValidationError
	switch {
	case errors.Is(err, mostread.ErrInvalidDate):
		writeProblem(c, http.StatusBadRequest, "invalid_date", "Invalid date", err.Error())
	case errors.As(err, &verr):
		writeProblem(c, http.StatusBadRequest, "bad_request", "Invalid parameter", err.Error())
	case errors.Is(err, mostread.ErrSiteExcluded), errors.Is(err, mostread.ErrNotFound):
		writeProblem(c, http.StatusNotFound, "not_found", "No most-read data", err.Error())
	default:
		writeProblem(c, http.StatusInternalServerError, "internal_error", "Internal server error", err.Error())
	}
}
