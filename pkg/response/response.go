package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope: {success, message?, ...payload}.
// Payload keys are flattened next to success/message so clients read e.g. body.clubs.
type Body map[string]interface{}

func envelope(success bool, message string, payload gin.H) Body {
	b := Body{"success": success}
	if message != "" {
		b["message"] = message
	}
	for k, v := range payload {
		if k == "success" {
			continue
		}
		b[k] = v
	}
	return b
}

// OK sends a 200 JSON response with payload.
func OK(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusOK, envelope(true, "", payload))
}

// Message sends a 200 JSON response carrying only a message.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, envelope(true, msg, nil))
}

// OKWithMessage sends a 200 JSON response with message and payload.
func OKWithMessage(c *gin.Context, msg string, payload gin.H) {
	c.JSON(http.StatusOK, envelope(true, msg, payload))
}

// Created sends a 201 JSON response with payload.
func Created(c *gin.Context, msg string, payload gin.H) {
	c.JSON(http.StatusCreated, envelope(true, msg, payload))
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, envelope(false, msg, nil))
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, envelope(false, msg, nil))
}

// NotFound sends 404.
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, envelope(false, msg, nil))
}

// TooManyRequests sends 429.
func TooManyRequests(c *gin.Context, msg string) {
	c.JSON(http.StatusTooManyRequests, envelope(false, msg, nil))
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, envelope(false, msg, nil))
}

// Internal sends 500 with the generic message. Details belong in the server log only.
func Internal(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, envelope(false, "Internal server error", nil))
}

// Attachment sends data as a downloadable file.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
