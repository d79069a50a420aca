package identity

import "strings"

// URLTemplate renders provider-local identifiers as the identity URLs the
// outside world claims. Resolution compares claimed URLs against this
// rendering, so the template is the single source of truth for URL shape.
type URLTemplate struct {
	base string
}

func NewURLTemplate(baseURL string) URLTemplate {
	return URLTemplate{base: strings.TrimRight(baseURL, "/")}
}

// URLFor returns the identity URL for a provider-local identifier.
func (t URLTemplate) URLFor(identifier string) string {
	return t.base + "/openid/id/" + identifier
}
