package shortener

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a target URL cannot be normalized into
	// an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrAliasTaken is returned when a caller-supplied alias lost the
	// reservation race. There is no silent fallback to a random slug.
	ErrAliasTaken = errors.New("alias is already taken")

	// ErrAllocationExhausted is returned when every random-slug attempt
	// collided. It signals a keyspace or retry-budget problem for the
	// operator, not a transient per-request condition.
	ErrAllocationExhausted = errors.New("could not allocate a unique slug")

	// ErrNotFound is returned when a slug does not exist, and on the delete
	// path when slug and token do not both match.
	ErrNotFound = errors.New("link not found")

	// ErrExpired is returned when a slug exists but is past its expiry.
	// Distinct from ErrNotFound: callers render a dedicated expired page.
	ErrExpired = errors.New("link has expired")
)

// PolicyError reports a target blocked by the content policy.
type PolicyError struct {
	Category string
	Reason   string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("target blocked by policy (%s): %s", e.Category, e.Reason)
}
