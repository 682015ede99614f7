// File: internal/safety/policy.go
package safety

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainPolicy is the pluggable domain-restriction hook consulted for
// navigations and link targets.
type DomainPolicy interface {
	Allow(rawURL string) bool
}

// PermissivePolicy allows everything. The default.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(string) bool { return true }

// ScopePolicy restricts exploration to one organizational domain,
// optionally including subdomains. Relative URLs are always allowed;
// they cannot leave the current site.
type ScopePolicy struct {
	rootDomain        string
	includeSubdomains bool
}

// NewScopePolicy derives the eTLD+1 from the session's start URL.
// Use the Public Suffix List rather than a hand-rolled domain parser so
// 'example.co.uk' style domains scope correctly.
func NewScopePolicy(startURL string, includeSubdomains bool) (*ScopePolicy, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}
	hostname := u.Hostname()
	if hostname == "" {
		return nil, fmt.Errorf("start URL must have a hostname: %s", startURL)
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return nil, fmt.Errorf("could not determine effective TLD+1 for %s: %w", hostname, err)
	}
	return &ScopePolicy{rootDomain: domain, includeSubdomains: includeSubdomains}, nil
}

// RootDomain returns the eTLD+1 defining the scope.
func (p *ScopePolicy) RootDomain() string { return p.rootDomain }

// Allow implements DomainPolicy.
func (p *ScopePolicy) Allow(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return true
	}
	host := u.Hostname()
	if host == p.rootDomain {
		return true
	}
	// Require the dot boundary so "notexample.com" never matches.
	return p.includeSubdomains && strings.HasSuffix(host, "."+p.rootDomain)
}
