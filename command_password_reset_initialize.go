package authgate

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	RedirectTo string `json:"redirect_to,omitempty" doc:"Path the emailed reset link lands on."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "auth.password_reset" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

// InitializePasswordResetResponse always reports success for well-formed
// requests. Whether the email maps to an account is never disclosed.
type InitializePasswordResetResponse struct {
	Success bool
}

type InitializePasswordResetHandler struct {
	provider Provider
	activity ActivitySink
	logger   Logger
}

func NewInitializePasswordResetHandler(provider Provider) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		provider: provider,
		activity: noopActivitySink{},
		logger:   &defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload").
			WithTextCode(TextCodeValidation)
	}

	if err := h.provider.RequestPasswordReset(ctx, event.Email, event.RedirectTo); err != nil {
		mapped := MapProviderError(err)
		if IsProviderUnavailableError(mapped) {
			return mapped
		}
		// unknown address or any other provider complaint: same outward
		// result as success, no account enumeration
		h.logger.Debug("password reset request absorbed", "error", mapped)
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordResetRequested,
		Email:      event.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to record password reset activity", "error", err)
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
