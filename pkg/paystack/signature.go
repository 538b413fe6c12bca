// Package paystack holds the provider-facing primitives of the Paystack
// integration: webhook signature checks and the signing client.
package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body.
const SignatureHeader = "x-paystack-signature"

// Sign returns the lowercase hex HMAC-SHA512 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the digest of body under secret. An
// empty signature or secret never verifies. The comparison is exact and
// case-sensitive.
func Verify(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}

// Client exposes the webhook signing secret. A nil client or an empty secret
// means the integration is not configured.
type Client struct {
	secret string
}

func NewClient(cfg config.PaystackConfig) *Client {
	return &Client{secret: strings.TrimSpace(cfg.SecretKey)}
}

// SigningSecret returns the configured secret, or "" when unset.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.secret
}
