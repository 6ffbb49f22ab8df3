package handlers

import (
	"crypto/subtle"
	"net/http"
)

// SecretHeader carries the shared secret on schedule and status requests.
// The secret query parameter is accepted as a fallback for callers that
// cannot set headers.
const SecretHeader = "X-Webhook-Secret"

// secretMatches reports whether the request presents the configured shared
// secret. An empty configured secret disables the check. Comparison is
// constant-time.
func secretMatches(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}

	presented := r.Header.Get(SecretHeader)
	if presented == "" {
		presented = r.URL.Query().Get("secret")
	}
	if presented == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}
