// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import "strings"

// AllowAllWarning is logged when no origin allow-list is configured.
const AllowAllWarning = "ALLOWED_ORIGINS not set - allowing all origins. Set this in production!"

// OriginPolicy decides which request origins may use the proxy.
type OriginPolicy struct {
	allowed []string
}

// NewOriginPolicy returns a policy for the given allow-list. Entries are
// trimmed; an empty list allows every origin.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			p.allowed = append(p.allowed, o)
		}
	}
	return p
}

// AllowAll reports whether the policy is the unset, allow-everything fallback.
func (p *OriginPolicy) AllowAll() bool {
	return len(p.allowed) == 0
}

// Allowed reports whether origin may call the proxy. "*" in the list allows
// everything and "*.example.com" allows any subdomain of example.com.
func (p *OriginPolicy) Allowed(origin string) bool {
	if p.AllowAll() {
		return true
	}
	if origin == "" {
		return false
	}
	for _, allowed := range p.allowed {
		if allowed == "*" || allowed == origin {
			return true
		}
		if strings.HasPrefix(allowed, "*.") {
			domain := strings.TrimPrefix(allowed, "*")
			if strings.HasSuffix(origin, domain) {
				return true
			}
		}
	}
	return false
}

// Origins returns the configured allow-list.
func (p *OriginPolicy) Origins() []string {
	return append([]string(nil), p.allowed...)
}
