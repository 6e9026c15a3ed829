// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TrustedProxies decides which peers may report the client address through
// X-Forwarded-For or X-Real-IP. Requests from any other peer are keyed on
// the socket address, so rotating those headers cannot reset a per-IP
// budget.
type TrustedProxies struct {
	addrs    map[string]bool
	networks []*net.IPNet
}

// NewTrustedProxies parses entries as single IP addresses or CIDR ranges.
// An empty list trusts no proxy.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	p := &TrustedProxies{addrs: make(map[string]bool, len(entries))}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			p.networks = append(p.networks, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("trusted proxy %q: not an IP address or CIDR range", entry)
		}
		p.addrs[ip.String()] = true
	}
	return p, nil
}

// Len reports how many addresses and ranges are trusted.
func (p *TrustedProxies) Len() int {
	if p == nil {
		return 0
	}
	return len(p.addrs) + len(p.networks)
}

func (p *TrustedProxies) isTrusted(addr string) bool {
	if p.Len() == 0 {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	if p.addrs[ip.String()] {
		return true
	}
	for _, n := range p.networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientAddr returns the address r should be attributed to. Forwarding
// headers are read only when the socket peer is a trusted proxy.
func (p *TrustedProxies) ClientAddr(r *http.Request) string {
	remoteIP := ClientIP(r)
	if !p.isTrusted(remoteIP) {
		return remoteIP
	}
	if ip := p.fromXFF(r); ip != "" {
		return ip
	}
	if ip := fromXRealIP(r); ip != "" {
		return ip
	}
	return remoteIP
}

// fromXFF walks X-Forwarded-For from the nearest hop outward and returns
// the first address that is not itself a trusted proxy. Entries further
// left were written by the client and are ignored.
func (p *TrustedProxies) fromXFF(r *http.Request) string {
	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(v, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			return ""
		}
		if !p.isTrusted(ip.String()) {
			return ip.String()
		}
	}
	return ""
}

func fromXRealIP(r *http.Request) string {
	ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP")))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// RealIP rewrites RemoteAddr to the resolved client address so ClientIP
// and the rate limiters downstream see the same key.
func (p *TrustedProxies) RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.Len() > 0 {
			if addr := p.ClientAddr(r); addr != ClientIP(r) {
				r.RemoteAddr = addr
			}
		}
		next.ServeHTTP(w, r)
	})
}
