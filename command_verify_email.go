package authgate

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token" doc:"Signup confirmation token from the emailed link."`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "auth.verify_email" }

func (e VerifyEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
	)
}

// VerifyEmailResponse carries the session the confirmation token was
// exchanged for, so the caller can sign the subject in right away.
type VerifyEmailResponse struct {
	Session *Session
	Subject *Subject
	Success bool
}

type VerifyEmailHandler struct {
	provider Provider
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewVerifyEmailHandler(provider Provider, repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		provider: provider,
		repo:     repo,
		activity: noopActivitySink{},
		logger:   &defLogger{},
	}
}

func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid verification payload").
			WithTextCode(TextCodeValidation)
	}

	session, err := h.provider.VerifyToken(ctx, VerificationSignup, event.Token)
	if err != nil {
		return MapProviderError(err)
	}

	if session.Subject != nil {
		err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := h.repo.Subjects().MarkVerifiedTx(ctx, tx, session.Subject.ID); err != nil {
				if repository.IsRecordNotFound(err) {
					_, err = h.repo.Subjects().SyncFromProviderTx(ctx, tx, session.Subject)
					return err
				}
				return err
			}
			return nil
		})
		if err != nil {
			h.logger.Warn("email verification mirror sync failed", "error", err, "subject", session.Subject.ID)
		}

		if err := h.activity.Record(ctx, ActivityEvent{
			EventType:  ActivityEventEmailVerified,
			SubjectID:  session.Subject.ID,
			Email:      session.Subject.Email,
			OccurredAt: time.Now(),
		}); err != nil {
			h.logger.Warn("failed to record verification activity", "error", err)
		}
	}

	resp.Session = session
	resp.Subject = session.Subject
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
