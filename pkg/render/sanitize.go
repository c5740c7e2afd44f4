package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	descriptionPolicyOnce sync.Once
	descriptionPolicy     *bluemonday.Policy
)

// SanitizeDescription keeps the inline markup descriptions may carry and
// drops everything else.
func SanitizeDescription(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(descriptionSanitizer().Sanitize(trimmed))
}

func descriptionSanitizer() *bluemonday.Policy {
	descriptionPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"a", "b", "strong", "em", "i", "u", "code", "small", "br",
			"p", "ul", "ol", "li", "span",
		)
		policy.AllowStandardURLs()
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		policy.AllowAttrs("class").OnElements("span", "code")
		descriptionPolicy = policy
	})
	return descriptionPolicy
}
