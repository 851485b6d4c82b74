// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/awingconnect/license-server/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", parseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// parseLanguage picks the first preferred language we have translations
// for, e.g. "vi" for "vi-VN,vi;q=0.9,en;q=0.8".
func parseLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.Split(part, ";")[0]))
		if i := strings.IndexAny(tag, "-_"); i > 0 {
			tag = tag[:i]
		}
		if tag != "" && i18n.IsSupported(tag) {
			return tag
		}
	}
	return "en" // Default language
}
