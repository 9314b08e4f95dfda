package validation

import (
	"net/url"
	"strings"

	apperrors "go-card-extractor/internal/errors"
)

// maxCardURLLength bounds accepted card image URLs. Signed blob URLs carry
// long SAS query strings, so the limit is generous.
const maxCardURLLength = 4096

// CardURLValidator checks card image references before any bytes are fetched.
// Only http(s) URLs with a real host are accepted; deployments that stage
// cards in known storage accounts can additionally pin an allowlist of hosts.
type CardURLValidator struct {
	allowedHosts map[string]struct{}
}

// NewCardURLValidator creates a validator. An empty host list allows any host.
func NewCardURLValidator(allowedHosts []string) *CardURLValidator {
	v := &CardURLValidator{}
	if len(allowedHosts) > 0 {
		v.allowedHosts = make(map[string]struct{}, len(allowedHosts))
		for _, h := range allowedHosts {
			v.allowedHosts[strings.ToLower(h)] = struct{}{}
		}
	}
	return v
}

// Validate reports whether rawURL is acceptable as a card image source.
func (v *CardURLValidator) Validate(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return apperrors.NewValidationError("card image URL cannot be empty", nil)
	}
	if len(trimmed) > maxCardURLLength {
		return apperrors.NewValidationError("card image URL is too long", nil)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return apperrors.NewValidationError("card image URL is malformed", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperrors.NewValidationError("card image URL must use http or https", nil)
	}
	if parsed.Hostname() == "" {
		return apperrors.NewValidationError("card image URL must have a host", nil)
	}
	// Credentials embedded in a fetch URL end up in logs; refuse them.
	if parsed.User != nil {
		return apperrors.NewValidationError("card image URL must not embed credentials", nil)
	}

	if v.allowedHosts != nil {
		if _, ok := v.allowedHosts[strings.ToLower(parsed.Hostname())]; !ok {
			return apperrors.NewValidationError("card image host is not in the allowed list", nil)
		}
	}
	return nil
}
