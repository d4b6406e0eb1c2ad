package authgate

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SignInMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password   string `json:"password" doc:"Account password."`
	OnResponse func(resp *SignInResponse)
}

func (e SignInMessage) Type() string { return "auth.sign_in" }

func (e SignInMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required),
	)
}

type SignInResponse struct {
	Session *Session
	Subject *Subject
	Success bool
}

type SignInHandler struct {
	provider Provider
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewSignInHandler(provider Provider, repo RepositoryManager) *SignInHandler {
	return &SignInHandler{
		provider: provider,
		repo:     repo,
		activity: noopActivitySink{},
		logger:   &defLogger{},
	}
}

func (h *SignInHandler) WithActivitySink(sink ActivitySink) *SignInHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *SignInHandler) WithLogger(logger Logger) *SignInHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignInHandler) Execute(ctx context.Context, event SignInMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign in",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignInHandler) execute(ctx context.Context, event SignInMessage) error {
	resp := &SignInResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign in payload").
			WithTextCode(TextCodeValidation)
	}

	session, err := h.provider.SignInWithPassword(ctx, event.Email, event.Password)
	if err != nil {
		mapped := MapProviderError(err)
		reason := TextCodeUnknown
		var richErr *goerrors.Error
		if goerrors.As(mapped, &richErr) {
			reason = richErr.TextCode
		}
		h.recordActivity(ctx, ActivityEventLoginFailure, "", event.Email, map[string]any{
			"reason": reason,
		})
		return mapped
	}

	if session.Subject != nil {
		err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := h.repo.Subjects().SyncFromProviderTx(ctx, tx, session.Subject); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mirror subject on sign in")
			}
			return nil
		})
		if err != nil {
			h.logger.Warn("sign in mirror sync failed", "error", err, "subject", session.Subject.ID)
		}

		h.recordActivity(ctx, ActivityEventLoginSuccess, session.Subject.ID, event.Email, nil)
	}

	resp.Session = session
	resp.Subject = session.Subject
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *SignInHandler) recordActivity(ctx context.Context, eventType ActivityEventType, subjectID, email string, meta map[string]any) {
	err := h.activity.Record(ctx, ActivityEvent{
		EventType:  eventType,
		SubjectID:  subjectID,
		Email:      email,
		Metadata:   meta,
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("failed to record sign in activity", "error", err)
	}
}
