package redis

import "strings"

const (
	defaultNamespace  = "mc"
	idempotencyPrefix = "idempotency"
	cartPrefix        = "cart"
	rateLimitPrefix   = "rate_limit"
)

// IdempotencyKey returns mc:idempotency:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.key(idempotencyPrefix, scope, id)
}

// RateLimitKey returns mc:rate_limit:<scope>.
func (c *Client) RateLimitKey(scope string) string {
	return c.key(rateLimitPrefix, scope)
}

// CartKey returns mc:cart:<storageKey>:<sessionID>. An empty session yields
// the bare storage key, which the persister already namespaces per session.
func (c *Client) CartKey(storageKey, sessionID string) string {
	return c.key(cartPrefix, storageKey, sessionID)
}

func (c *Client) key(parts ...string) string {
	ns := defaultNamespace
	if c != nil && c.namespace != "" {
		ns = c.namespace
	}
	var b strings.Builder
	b.WriteString(ns)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
