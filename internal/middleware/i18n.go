// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/goldenrice/rice-backend/internal/i18n"
)

var (
	supportedTags = []language.Tag{language.English, language.Burmese}
	langMatcher   = language.NewMatcher(supportedTags)
)

// NegotiateLanguage picks "en" or "my" from an explicit locale and an
// Accept-Language header, in that order.
func NegotiateLanguage(explicit, acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		tags = nil
	}
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			tags = append([]language.Tag{tag}, tags...)
		}
	}
	if len(tags) == 0 {
		return i18n.DefaultLang
	}

	_, index, confidence := langMatcher.Match(tags...)
	if confidence == language.No {
		return i18n.DefaultLang
	}
	base, _ := supportedTags[index].Base()
	return base.String()
}

// I18nMiddleware stores the negotiated language under "lang". The locale
// query parameter overrides the Accept-Language header.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", NegotiateLanguage(c.Query("locale"), c.GetHeader("Accept-Language")))
		c.Next()
	}
}
