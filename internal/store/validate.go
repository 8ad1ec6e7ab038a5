package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrAliasInvalid is returned when a custom alias does not match the
	// required pattern or length bounds.
	ErrAliasInvalid = errors.New("alias must be 3-30 lowercase letters, digits, hyphens, or underscores, and must not start or end with a hyphen")

	// ErrAliasReserved is returned when an alias matches a reserved route prefix.
	ErrAliasReserved = errors.New("alias is reserved and cannot be used")

	// ErrSlugSyntax is returned for lookup slugs that could never have been
	// issued. Rejecting them avoids a pointless storage round trip.
	ErrSlugSyntax = errors.New("malformed slug")

	aliasRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
	slugRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// reservedAliases are first path segments owned by application routes.
	// They MUST NOT be claimable as aliases.
	reservedAliases = map[string]bool{
		"links":   true,
		"aliases": true,
		"healthz": true,
		"metrics": true,
		"expired": true,
	}
)

const (
	minAliasLen = 3
	maxAliasLen = 30
	maxSlugLen  = 50
)

// ValidateAlias checks that a caller-supplied alias conforms to the required
// format and is not reserved. It does NOT check availability — uniqueness is
// enforced by the primary key on links.slug.
func ValidateAlias(alias string) error {
	if len(alias) < minAliasLen || len(alias) > maxAliasLen {
		return ErrAliasInvalid
	}
	if !aliasRe.MatchString(alias) {
		return ErrAliasInvalid
	}
	if strings.HasPrefix(alias, "-") || strings.HasSuffix(alias, "-") {
		return ErrAliasInvalid
	}
	if reservedAliases[alias] {
		return fmt.Errorf("%w: %q", ErrAliasReserved, alias)
	}
	return nil
}

// ValidateSlugLookup is the defensive syntax check on the resolve path. It
// accepts anything that could have been issued: generated codes, custom
// aliases, and legacy mixed-case slugs.
func ValidateSlugLookup(slug string) error {
	if slug == "" || len(slug) > maxSlugLen {
		return ErrSlugSyntax
	}
	if !slugRe.MatchString(slug) {
		return ErrSlugSyntax
	}
	return nil
}
