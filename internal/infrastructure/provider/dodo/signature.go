package dodo

import (
	"fmt"
	"net/http"
	"strings"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

// Dodo Payments signs webhooks with the Standard Webhooks scheme: an HMAC
// SHA-256 over "{id}.{timestamp}.{body}" using the base64 portion of a
// "whsec_" secret, delivered in the webhook-id / webhook-timestamp /
// webhook-signature headers.

const signingSecretPrefix = "whsec_"

// IsSigningSecret reports whether the configured secret selects the signed
// scheme rather than the simple shared-secret header scheme.
func IsSigningSecret(secret string) bool {
	return strings.HasPrefix(secret, signingSecretPrefix)
}

// VerifySignature checks the Standard Webhooks signature headers over the
// raw body. Candidate handling and the 5-minute timestamp tolerance follow
// the scheme as the library implements it.
func VerifySignature(secret string, header http.Header, body []byte) error {
	wh, err := standardwebhooks.NewWebhook(secret)
	if err != nil {
		return fmt.Errorf("malformed signing secret: %w", err)
	}
	return wh.Verify(body, header)
}
