package authgate

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SignUpMessage struct {
	Email      string         `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password   string         `json:"password" doc:"Account password, at least 8 characters."`
	Metadata   map[string]any `json:"metadata,omitempty" doc:"Optional profile attributes stored with the account."`
	OnResponse func(resp *SignUpResponse)
}

func (e SignUpMessage) Type() string { return "auth.sign_up" }

func (e SignUpMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

// SignUpResponse carries the created account. No session is issued: the
// subject signs in after confirming their email.
type SignUpResponse struct {
	Subject *Subject
	Success bool
}

type SignUpHandler struct {
	provider Provider
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewSignUpHandler(provider Provider, repo RepositoryManager) *SignUpHandler {
	return &SignUpHandler{
		provider: provider,
		repo:     repo,
		activity: noopActivitySink{},
		logger:   &defLogger{},
	}
}

func (h *SignUpHandler) WithActivitySink(sink ActivitySink) *SignUpHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *SignUpHandler) WithLogger(logger Logger) *SignUpHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignUpHandler) Execute(ctx context.Context, event SignUpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignUpHandler) execute(ctx context.Context, event SignUpMessage) error {
	resp := &SignUpResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign up payload").
			WithTextCode(TextCodeValidation)
	}

	subject, err := h.provider.SignUp(ctx, event.Email, event.Password, event.Metadata)
	if err != nil {
		return MapProviderError(err)
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Subjects().SyncFromProviderTx(ctx, tx, subject); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mirror new subject")
		}
		return nil
	})

	if err != nil {
		// the provider account exists either way; the mirror catches up on
		// the next resolved request
		h.logger.Warn("sign up mirror sync failed", "error", err, "subject", subject.ID)
	}

	h.recordActivity(ctx, subject)

	resp.Subject = subject
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *SignUpHandler) recordActivity(ctx context.Context, subject *Subject) {
	err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventSignUp,
		SubjectID:  subject.ID,
		Email:      subject.Email,
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("failed to record sign up activity", "error", err)
	}
}
