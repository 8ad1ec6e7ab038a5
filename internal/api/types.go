package api

import "time"

// CreateLinkRequest is the request body for POST /links.
type CreateLinkRequest struct {
	LongURL     string `json:"longUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
}

// CreateLinkResponse is returned once at creation. The management token is
// never retrievable again.
type CreateLinkResponse struct {
	ShortSlug       string    `json:"shortSlug"`
	ShortURL        string    `json:"shortUrl"`
	ManagementToken string    `json:"managementToken"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// CheckAliasRequest is the request body for POST /aliases/check.
type CheckAliasRequest struct {
	Alias string `json:"alias"`
}

// CheckAliasResponse reports advisory availability; only the atomic insert at
// create time is authoritative.
type CheckAliasResponse struct {
	Available bool `json:"available"`
}

// DeleteLinkRequest optionally carries the management token in the body of
// DELETE /links/{slug}; the X-Management-Token header takes precedence.
type DeleteLinkRequest struct {
	ManagementToken string `json:"managementToken"`
}

// DeleteLinkResponse confirms a capability deletion.
type DeleteLinkResponse struct {
	Message string `json:"message"`
}
