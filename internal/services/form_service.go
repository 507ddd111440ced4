package services

import (
	"context"
	"fmt"
	"log/slog"

	"ogctz/internal/infrastructure"
	"ogctz/internal/session"
)

// Form names used in logs and metrics
const (
	FormSubscribe = "subscribe"
	FormContact   = "contact"
)

// Flash texts
const (
	SubscribeSuccessFormat = "Thanks for subscribing with %s!"
	SubscribeErrorText     = "Please enter a valid email address."
	ContactSuccessFormat   = "Thanks %s! We received your message and will get back to you soon."
	ContactErrorText       = "Please fill in all required fields."
)

// SubscribeForm is the newsletter form
type SubscribeForm struct {
	Email string `form:"email" validate:"required"`
}

// ContactForm is the contact page form. Subject is optional.
type ContactForm struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required"`
	Subject string `form:"subject"`
	Message string `form:"message" validate:"required"`
}

// Validator checks struct tags on decoded forms
type Validator interface {
	ValidateStruct(v interface{}) error
}

// FlashSetter queues a flash for the current session
type FlashSetter interface {
	SetFlash(ctx context.Context, flash session.Flash) error
}

// FormService applies the form policies: presence checks, then exactly one
// flash per submission. Nothing is stored.
type FormService struct {
	validator Validator
	flashes   FlashSetter
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewFormService creates a form service. metrics may be nil.
func NewFormService(validator Validator, flashes FlashSetter, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *FormService {
	return &FormService{
		validator: validator,
		flashes:   flashes,
		metrics:   metrics,
		logger:    infrastructure.WithComponent(logger, "form_service"),
	}
}

// Subscribe handles a newsletter signup. Any non-empty email is accepted
// and echoed back as submitted.
func (s *FormService) Subscribe(ctx context.Context, form SubscribeForm) (session.Flash, error) {
	flash := session.Flash{Text: SubscribeErrorText, Category: session.CategoryError}
	if err := s.validator.ValidateStruct(form); err == nil {
		flash = session.Flash{
			Text:     fmt.Sprintf(SubscribeSuccessFormat, form.Email),
			Category: session.CategorySuccess,
		}
	} else {
		s.logger.DebugContext(ctx, "subscribe form rejected", slog.String("reason", err.Error()))
	}

	return flash, s.queue(ctx, FormSubscribe, flash)
}

// ContactSubmit handles a contact message. name, email and message must be
// non-empty.
func (s *FormService) ContactSubmit(ctx context.Context, form ContactForm) (session.Flash, error) {
	flash := session.Flash{Text: ContactErrorText, Category: session.CategoryError}
	if err := s.validator.ValidateStruct(form); err == nil {
		flash = session.Flash{
			Text:     fmt.Sprintf(ContactSuccessFormat, form.Name),
			Category: session.CategorySuccess,
		}
	} else {
		s.logger.DebugContext(ctx, "contact form rejected", slog.String("reason", err.Error()))
	}

	return flash, s.queue(ctx, FormContact, flash)
}

func (s *FormService) queue(ctx context.Context, form string, flash session.Flash) error {
	s.metrics.RecordFormSubmission(ctx, form, string(flash.Category))

	s.logger.InfoContext(ctx, "form submitted",
		slog.String("form", form),
		slog.String("outcome", string(flash.Category)))

	if err := s.flashes.SetFlash(ctx, flash); err != nil {
		return fmt.Errorf("queue %s flash: %w", form, err)
	}
	return nil
}
