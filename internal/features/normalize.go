package features

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalizes a raw domain: lowercases it, trims surrounding
// whitespace and any trailing dot. When stripSuffix is set the public
// suffix is removed as well, so "example.co.uk" reduces to "example" and
// scoring is not diluted by the TLD. A domain that is nothing but a
// public suffix still normalizes to itself in that mode rather than to
// an empty string.
func Normalize(domain string, stripSuffix bool) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	if d == "" {
		return "", ErrEmptyDomain
	}

	if stripSuffix {
		suffix, _ := publicsuffix.PublicSuffix(d)
		if suffix != "" && len(d) > len(suffix) {
			d = strings.TrimSuffix(d[:len(d)-len(suffix)], ".")
		}
		if d == "" {
			return "", ErrEmptyDomain
		}
	}
	return d, nil
}
