package model

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// ParseBaseURL parses and validates the site base URL.
// The host is converted to its ASCII (punycode) form.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidBaseURL
	}
	if u.Host == "" {
		return nil, ErrInvalidBaseURL
	}
	if err := normalizeHost(u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	return u, nil
}

// ResolveURL resolves ref against base and returns the absolute URL string.
// An already absolute ref is kept as is apart from host normalisation.
func ResolveURL(base *url.URL, ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, ref, err)
	}
	if base != nil {
		r = base.ResolveReference(r)
	}
	if !r.IsAbs() || r.Host == "" {
		return "", fmt.Errorf("%w %q: not absolute", ErrInvalidURL, ref)
	}
	if err := normalizeHost(r); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, ref, err)
	}
	return r.String(), nil
}

// JoinURL appends path elements to base, as used for sitemap locations.
func JoinURL(base *url.URL, elem ...string) string {
	cleaned := make([]string, 0, len(elem))
	for _, e := range elem {
		if e = strings.Trim(e, "/"); e != "" {
			cleaned = append(cleaned, e)
		}
	}
	return base.JoinPath(cleaned...).String()
}

// normalizeHost lowercases the host and converts internationalised names to ASCII.
func normalizeHost(u *url.URL) error {
	host := u.Hostname()
	port := u.Port()

	if isASCII(host) {
		host = strings.ToLower(host)
	} else {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return err
		}
		host = ascii
	}

	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
