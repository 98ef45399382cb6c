// Package security provides validation for image sources fetched on behalf of the user.
package security

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// SourcePolicy controls which image sources are acceptable.
type SourcePolicy struct {
	// BlockPrivateHosts rejects http(s) URLs that point at localhost or
	// private address ranges.
	BlockPrivateHosts bool

	// AllowFiles permits local file paths.
	AllowFiles bool
}

// DefaultSourcePolicy allows everything the sampler can read.
func DefaultSourcePolicy() SourcePolicy {
	return SourcePolicy{AllowFiles: true}
}

// ValidateImageSource validates an image source against the policy.
// Accepted forms are http(s) URLs with a host, data URLs with an image media
// type and, when allowed, local paths.
func ValidateImageSource(source string, policy SourcePolicy) error {
	if source == "" {
		return fmt.Errorf("empty image source")
	}

	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return validateDataURL(lower)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return validateHTTPURL(source, policy)
	case strings.Contains(source, "://"):
		return fmt.Errorf("unsupported image URL scheme: %s", source[:strings.Index(source, "://")])
	default:
		if !policy.AllowFiles {
			return fmt.Errorf("local image paths are not allowed: %s", source)
		}
		return nil
	}
}

func validateDataURL(lower string) error {
	header, _, ok := strings.Cut(strings.TrimPrefix(lower, "data:"), ",")
	if !ok {
		return fmt.Errorf("malformed data URL: missing payload")
	}
	if !strings.HasPrefix(header, "image/") {
		return fmt.Errorf("data URL is not an image: %s", header)
	}
	return nil
}

func validateHTTPURL(source string, policy SourcePolicy) error {
	parsed, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	// Block localhost and private IPs to prevent SSRF
	if policy.BlockPrivateHosts {
		host := strings.ToLower(parsed.Hostname())
		if isLocalOrPrivateHost(host) {
			return fmt.Errorf("URL cannot point to local or private hosts: %s", host)
		}
	}

	return nil
}

// isLocalOrPrivateHost checks if a hostname is localhost or a private,
// loopback or link-local IP.
func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
