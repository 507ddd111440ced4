package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"

	"ogctz/internal/services"
	"ogctz/internal/session"
)

// ContactRedirect is where contact submissions always land
const ContactRedirect = "/contact"

// FormSubmitter applies the form policies
type FormSubmitter interface {
	Subscribe(ctx context.Context, form services.SubscribeForm) (session.Flash, error)
	ContactSubmit(ctx context.Context, form services.ContactForm) (session.Flash, error)
}

// FormHandler handles the subscribe and contact form posts
type FormHandler struct {
	service FormSubmitter
	logger  *slog.Logger
}

// NewFormHandler creates a new form handler
func NewFormHandler(service FormSubmitter, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "form")),
	}
}

// Routes mounts the form endpoints on r
func (h *FormHandler) Routes(r chi.Router) {
	r.Post("/subscribe", h.Subscribe)
	r.Post("/contact-submit", h.ContactSubmit)
}

// Subscribe handles POST /subscribe and redirects back to the referring page
func (h *FormHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req services.SubscribeForm
	h.decode(r, &req)

	if _, err := h.service.Subscribe(r.Context(), req); err != nil {
		h.logger.ErrorContext(r.Context(), "subscribe flash not queued", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, RefererTarget(r), http.StatusSeeOther)
}

// ContactSubmit handles POST /contact-submit
func (h *FormHandler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	var req services.ContactForm
	h.decode(r, &req)

	if _, err := h.service.ContactSubmit(r.Context(), req); err != nil {
		h.logger.ErrorContext(r.Context(), "contact flash not queued", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, ContactRedirect, http.StatusSeeOther)
}

// decode fills dst from the posted form. A body that cannot be decoded
// leaves dst empty so the form policy rejects it.
func (h *FormHandler) decode(r *http.Request, dst interface{}) {
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "form parse failed", slog.String("error", err.Error()))
		return
	}

	values := make(url.Values, len(r.PostForm))
	for key, vs := range r.PostForm {
		if len(vs) > 0 {
			values.Set(key, vs[0])
		}
	}

	dec := form.NewDecoder(nil)
	dec.IgnoreUnknownKeys(true)
	if err := dec.DecodeValues(dst, values); err != nil {
		h.logger.WarnContext(r.Context(), "form decode failed", slog.String("error", err.Error()))
	}
}

// RefererTarget returns the local path to send the user back to. Only a
// same-host Referer or a path starting with a single slash is followed;
// anything else yields "/".
func RefererTarget(r *http.Request) string {
	ref := strings.TrimSpace(r.Referer())
	if ref == "" {
		return "/"
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}

	switch {
	case u.Scheme == "" && u.Host == "":
		if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "/\\") {
			return "/"
		}
	case u.Scheme == "http" || u.Scheme == "https":
		if !strings.EqualFold(u.Host, r.Host) {
			return "/"
		}
	default:
		return "/"
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}
