package authgate

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Token           string `json:"token" doc:"Recovery token from the emailed reset link."`
	Password        string `json:"password" doc:"New password, at least 8 characters."`
	ConfirmPassword string `json:"confirm_password" doc:"Must match the new password."`
	OnResponse      func(resp *FinalizePasswordResetResponse)
}

func (e FinalizePasswordResetMessage) Type() string { return "auth.password_reset.finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&e.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(e.Password)),
		),
	)
}

type FinalizePasswordResetResponse struct {
	Subject *Subject
	Success bool
}

// FinalizePasswordResetHandler exchanges a recovery token for a short-lived
// session and uses it to set the new password at the provider.
type FinalizePasswordResetHandler struct {
	provider Provider
	activity ActivitySink
	logger   Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(provider Provider) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		provider: provider,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload").
			WithTextCode(TextCodeValidation)
	}

	session, err := h.provider.VerifyToken(ctx, VerificationRecovery, event.Token)
	if err != nil {
		return MapProviderError(err)
	}

	if err := h.provider.UpdatePassword(ctx, session.AccessToken, event.Password); err != nil {
		return MapProviderError(err)
	}

	h.recordActivity(ctx, session.Subject)

	resp.Subject = session.Subject
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, subject *Subject) {
	if subject == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventPasswordResetFinalized,
		SubjectID:  subject.ID,
		Email:      subject.Email,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.getLogger().Warn("activity sink error during password reset: %v", err)
	}
}

func (h *FinalizePasswordResetHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}
