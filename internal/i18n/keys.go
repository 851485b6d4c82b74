// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError     = "error.internal"
	KeyRateLimited       = "error.rate_limited"
	KeyValidationInvalid = "validation.invalid"
	KeyStorageUnhealthy  = "error.storage_unhealthy"

	// Authentication
	KeyAuthHeaderMissing      = "auth.header_missing"
	KeyAuthInvalidScheme      = "auth.invalid_scheme"
	KeyAuthInvalidHeader      = "auth.invalid_header"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLogoutSuccess      = "auth.logout_success"

	// Admin accounts
	KeyAdminUserExists     = "admin.user_exists"
	KeyAdminUserNotFound   = "admin.user_not_found"
	KeyAdminUserCreated    = "admin.user_created"
	KeyAdminUserDeleted    = "admin.user_deleted"
	KeyAdminCannotDeleteMe = "admin.cannot_delete_self"

	// Licenses
	KeyLicenseKeyNotFound    = "license.key_not_found"
	KeyLicenseNotFound       = "license.not_found"
	KeyLicenseInactive       = "license.inactive"
	KeyLicenseExpired        = "license.expired"
	KeyLicenseDeviceInUse    = "license.device_mismatch"
	KeyLicenseUpdated        = "license.updated"
	KeyLicenseDeleted        = "license.deleted"
	KeyLicenseDaysOutOfRange = "license.days_out_of_range"

	// Chat
	KeyChatMessageNotFound   = "chat.message_not_found"
	KeyChatMessageSent       = "chat.message_sent"
	KeyChatMessageRead       = "chat.message_read"
	KeyChatMessagesRead      = "chat.messages_read"
	KeyChatLicenseKeyMissing = "chat.license_key_required"
)
