package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisplink/wisp/internal/metrics"
	"github.com/wisplink/wisp/internal/ratelimit"
	"github.com/wisplink/wisp/internal/shortener"
	"github.com/wisplink/wisp/internal/store"
)

// linksHandler provides the JSON endpoints for link creation, alias
// availability, and capability deletion.
type linksHandler struct {
	svc     *shortener.Service
	limiter *ratelimit.Limiter
	baseURL string
}

// RegisterRoutes mounts the link endpoints on r. The rate limiter guards the
// create path only; resolution and deletion stay unthrottled.
func RegisterRoutes(r chi.Router, svc *shortener.Service, limiter *ratelimit.Limiter, baseURL string) {
	h := &linksHandler{svc: svc, limiter: limiter, baseURL: baseURL}
	r.With(h.rateLimit).Post("/links", h.Create)
	r.Post("/aliases/check", h.CheckAlias)
	r.Delete("/links/{slug}", h.Delete)
}

// rateLimit rejects create requests over the per-client budget. Keyed by the
// client IP after chi's RealIP middleware has unwrapped proxy headers.
func (h *linksHandler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow(clientIP(r)) {
			metrics.CreateRejectedTotal.WithLabelValues("rate_limited").Inc()
			writeError(w, http.StatusTooManyRequests,
				"please wait a moment before creating another link", "RATE_LIMITED")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Create shortens a URL.
// POST /links
//
// @Summary      Create a short link
// @Description  Shortens a URL under a random code or a caller-supplied alias.
// @Accept       json
// @Produce      json
// @Param        body  body      CreateLinkRequest  true  "URL to shorten"
// @Success      201   {object}  CreateLinkResponse
// @Router       /links [post]
func (h *linksHandler) Create(w http.ResponseWriter, r *http.Request) {
	// The response carries a one-time bearer credential.
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.LongURL == "" {
		writeError(w, http.StatusBadRequest, "longUrl is required", "BAD_REQUEST")
		return
	}

	link, err := h.svc.CreateLink(r.Context(), req.LongURL, req.CustomAlias)
	if err != nil {
		h.writeCreateError(w, req, err)
		return
	}

	kind := "random"
	if req.CustomAlias != "" {
		kind = "custom"
	}
	metrics.LinksCreatedTotal.WithLabelValues(kind).Inc()

	writeJSON(w, http.StatusCreated, CreateLinkResponse{
		ShortSlug:       link.Slug,
		ShortURL:        h.baseURL + "/" + link.Slug,
		ManagementToken: link.DeleteToken,
		ExpiresAt:       link.ExpiresAt,
	})
}

// writeCreateError maps allocation failures onto the HTTP surface. Tokens are
// never logged; slugs and aliases are fine.
func (h *linksHandler) writeCreateError(w http.ResponseWriter, req CreateLinkRequest, err error) {
	var pe *shortener.PolicyError
	switch {
	case errors.As(err, &pe):
		metrics.CreateRejectedTotal.WithLabelValues("policy").Inc()
		writePolicyError(w, pe.Reason, pe.Category)
	case errors.Is(err, shortener.ErrInvalidURL):
		metrics.CreateRejectedTotal.WithLabelValues("invalid_url").Inc()
		writeError(w, http.StatusBadRequest, "please provide a valid http or https URL", "INVALID_URL")
	case errors.Is(err, store.ErrAliasInvalid), errors.Is(err, store.ErrAliasReserved):
		metrics.CreateRejectedTotal.WithLabelValues("invalid_alias").Inc()
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_ALIAS")
	case errors.Is(err, shortener.ErrAliasTaken):
		metrics.CreateRejectedTotal.WithLabelValues("alias_taken").Inc()
		writeError(w, http.StatusConflict, "this custom alias is already taken", "ALIAS_TAKEN")
	case errors.Is(err, shortener.ErrAllocationExhausted):
		metrics.CreateRejectedTotal.WithLabelValues("exhausted").Inc()
		log.Printf("slug allocation exhausted (alias=%q)", req.CustomAlias)
		writeError(w, http.StatusInternalServerError,
			"unable to generate a unique short code, please try again", "ALLOCATION_EXHAUSTED")
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("create timed out (alias=%q): %v", req.CustomAlias, err)
		writeError(w, http.StatusServiceUnavailable, "storage timeout, please retry", "STORE_TIMEOUT")
	default:
		log.Printf("create failed (alias=%q): %v", req.CustomAlias, err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}

// CheckAlias reports whether a custom alias is still claimable.
// POST /aliases/check
//
// @Summary      Check alias availability
// @Accept       json
// @Produce      json
// @Param        body  body      CheckAliasRequest  true  "Alias to check"
// @Success      200   {object}  CheckAliasResponse
// @Router       /aliases/check [post]
func (h *linksHandler) CheckAlias(w http.ResponseWriter, r *http.Request) {
	var req CheckAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Alias == "" {
		writeError(w, http.StatusBadRequest, "alias is required", "BAD_REQUEST")
		return
	}

	available, err := h.svc.AliasAvailable(r.Context(), req.Alias)
	if err != nil {
		if errors.Is(err, store.ErrAliasInvalid) || errors.Is(err, store.ErrAliasReserved) {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_ALIAS")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("alias check timed out (alias=%q): %v", req.Alias, err)
			writeError(w, http.StatusServiceUnavailable, "storage timeout, please retry", "STORE_TIMEOUT")
			return
		}
		log.Printf("alias check failed (alias=%q): %v", req.Alias, err)
		writeError(w, http.StatusInternalServerError, "unable to check alias availability", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, CheckAliasResponse{Available: available})
}

// Delete removes a link when the caller holds its management token.
// DELETE /links/{slug}
//
// @Summary      Delete a short link
// @Description  Requires the management token from creation, via the
// @Description  X-Management-Token header or the request body.
// @Accept       json
// @Produce      json
// @Success      200  {object}  DeleteLinkResponse
// @Router       /links/{slug} [delete]
func (h *linksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	token := r.Header.Get("X-Management-Token")
	if token == "" {
		var req DeleteLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.ManagementToken
		}
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "management token is required", "BAD_REQUEST")
		return
	}

	err := h.svc.Delete(r.Context(), slug, token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, DeleteLinkResponse{Message: "link deleted"})
	case errors.Is(err, shortener.ErrNotFound):
		// Absent slug and wrong token are deliberately indistinguishable.
		writeError(w, http.StatusNotFound, "link not found or invalid token", "NOT_FOUND")
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("delete timed out (slug=%q): %v", slug, err)
		writeError(w, http.StatusServiceUnavailable, "storage timeout, please retry", "STORE_TIMEOUT")
	default:
		log.Printf("delete failed (slug=%q): %v", slug, err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}
