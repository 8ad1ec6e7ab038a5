package handler

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wisplink/wisp/internal/metrics"
	"github.com/wisplink/wisp/internal/shortener"
)

// ResolveHandler handles slug resolution and redirection.
type ResolveHandler struct {
	svc *shortener.Service
}

// NewResolveHandler creates a new ResolveHandler.
func NewResolveHandler(svc *shortener.Service) *ResolveHandler {
	return &ResolveHandler{svc: svc}
}

// Resolve looks up a slug and redirects to the target URL. Expired links get
// a dedicated page distinct from the not-found page, because the visitor can
// act on the difference.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	slug := chi.URLParam(r, "slug")

	target, err := h.svc.Resolve(r.Context(), slug)
	switch {
	case err == nil:
		metrics.RedirectsTotal.WithLabelValues("ok").Inc()
		metrics.RedirectDuration.Observe(time.Since(start).Seconds())
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	case errors.Is(err, shortener.ErrExpired):
		metrics.RedirectsTotal.WithLabelValues("expired").Inc()
		renderPage(w, http.StatusGone, expiredPage, slug)
	case errors.Is(err, shortener.ErrNotFound):
		metrics.RedirectsTotal.WithLabelValues("not_found").Inc()
		renderPage(w, http.StatusNotFound, notFoundPage, slug)
	case errors.Is(err, context.DeadlineExceeded):
		metrics.RedirectsTotal.WithLabelValues("error").Inc()
		log.Printf("resolve timed out (slug=%q): %v", slug, err)
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	default:
		metrics.RedirectsTotal.WithLabelValues("error").Inc()
		log.Printf("resolve failed (slug=%q): %v", slug, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func renderPage(w http.ResponseWriter, status int, tmpl *template.Template, slug string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, struct{ Slug string }{Slug: slug}); err != nil {
		log.Printf("render page: %v", err)
	}
}

var expiredPage = template.Must(template.New("expired").Parse(`<!DOCTYPE html>
<html>
<head><title>Link expired</title></head>
<body>
  <h1>This link has expired</h1>
  <p>The short link <code>{{.Slug}}</code> existed, but its time-to-live has
  passed and it no longer redirects anywhere.</p>
</body>
</html>
`))

var notFoundPage = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html>
<head><title>Link not found</title></head>
<body>
  <h1>Link not found</h1>
  <p>There is no short link <code>{{.Slug}}</code>.</p>
</body>
</html>
`))
