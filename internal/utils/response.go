// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/awingconnect/license-server/internal/i18n"

	"github.com/gin-gonic/gin"
)

// APIErrorResponse keeps "detail" at the top level so existing admin panel
// clients can read error.detail, and adds a machine readable code.
type APIErrorResponse struct {
	Detail string    `json:"detail"`
	Error  *APIError `json:"error"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func StatusSuccessResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:  "success",
		Message: message,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, APIErrorResponse{
		Detail: message,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, code, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthInvalidToken)
	}
	c.Header("WWW-Authenticate", "Bearer")
	ErrorResponse(c, http.StatusUnauthorized, code, message, nil)
}

func ForbiddenResponse(c *gin.Context, code, message string) {
	ErrorResponse(c, http.StatusForbidden, code, message, nil)
}

func NotFoundResponse(c *gin.Context, key string) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, key), nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "CONFLICT", message, nil)
}

func TooManyRequestsResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRateLimited), nil)
}

func InternalErrorResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", i18n.T(lang, i18n.KeyInternalError), nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	if len(errors) > 0 {
		message = errors[0].Message
	}
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

const AdminUsernameKey = "admin_username"

func GetAdminUsernameFromContext(c *gin.Context) (string, bool) {
	if username, exists := c.Get(AdminUsernameKey); exists {
		if usernameStr, ok := username.(string); ok && usernameStr != "" {
			return usernameStr, true
		}
	}
	return "", false
}
