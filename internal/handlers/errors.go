// internal/handlers/errors.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

// respondError maps a service error to its HTTP response. notFoundKey
// names the message used for ErrLicenseNotFound, which differs between
// the activation check and license management. Anything unrecognised is
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error, notFoundKey string) {
	lang := utils.GetLangFromContext(c)

	switch {
	// Not found
	case errors.Is(err, services.ErrLicenseNotFound):
		if notFoundKey == "" {
			notFoundKey = i18n.KeyLicenseNotFound
		}
		utils.NotFoundResponse(c, notFoundKey)
	case errors.Is(err, services.ErrAdminNotFound):
		utils.NotFoundResponse(c, i18n.KeyAdminUserNotFound)
	case errors.Is(err, services.ErrMessageNotFound):
		utils.NotFoundResponse(c, i18n.KeyChatMessageNotFound)

	// License state
	case errors.Is(err, services.ErrLicenseInactive):
		utils.ForbiddenResponse(c, "LICENSE_INACTIVE", i18n.T(lang, i18n.KeyLicenseInactive))
	case errors.Is(err, services.ErrLicenseExpired):
		utils.ForbiddenResponse(c, "LICENSE_EXPIRED", i18n.T(lang, i18n.KeyLicenseExpired))
	case errors.Is(err, services.ErrDeviceMismatch):
		utils.ForbiddenResponse(c, "DEVICE_MISMATCH", i18n.T(lang, i18n.KeyLicenseDeviceInUse))

	// Authentication
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, "INVALID_CREDENTIALS", i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrExpiredToken):
		utils.UnauthorizedResponse(c, "TOKEN_EXPIRED", i18n.T(lang, i18n.KeyAuthTokenExpired))
	case errors.Is(err, services.ErrMissingToken), errors.Is(err, services.ErrInvalidToken):
		utils.UnauthorizedResponse(c, "TOKEN_INVALID", i18n.T(lang, i18n.KeyAuthInvalidToken))

	// Conflicts
	case errors.Is(err, services.ErrUsernameTaken):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAdminUserExists))
	case errors.Is(err, services.ErrCannotDeleteSelf):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAdminCannotDeleteMe))

	// Bad input
	case errors.Is(err, services.ErrDaysOutOfRange):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyLicenseDaysOutOfRange), nil)
	case errors.Is(err, services.ErrLicenseKeyRequired):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyChatLicenseKeyMissing), nil)
	case errors.Is(err, services.ErrInvalidInput):
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
			return
		}
		utils.BadRequestResponse(c, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "), nil)

	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
		utils.InternalErrorResponse(c)
	}
}

// bindJSON decodes the request body and answers 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}
