// Package domains classifies URLs by registrable domain for request
// grouping.
package domains

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// PublicSuffix resolves the effective TLD plus one label using the embedded
// public suffix list, falling back to the naive rule when the host is not
// covered by the list.
type PublicSuffix struct{}

// RegistrableDomain implements copyvios.DomainClassifier.
func (PublicSuffix) RegistrableDomain(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return lastTwoLabels(host)
	}
	return registrable
}

// Naive keeps the last two dot-separated labels of the URL's host.
type Naive struct{}

// RegistrableDomain implements copyvios.DomainClassifier.
func (Naive) RegistrableDomain(rawURL string) string {
	return lastTwoLabels(hostOf(rawURL))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func lastTwoLabels(host string) string {
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}
