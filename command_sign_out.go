package authgate

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SignOutMessage struct {
	AccessToken string `json:"-" doc:"Access token of the session being terminated."`
	SubjectID   string `json:"subject_id,omitempty" doc:"Subject behind the session, when known."`
	OnResponse  func(resp *SignOutResponse)
}

func (e SignOutMessage) Type() string { return "auth.sign_out" }

type SignOutResponse struct {
	Success bool
}

// SignOutHandler terminates a session. It never fails: provider revocation
// errors are logged and swallowed so the caller can always clear cookies and
// finish the sign-out locally.
type SignOutHandler struct {
	provider Provider
	activity ActivitySink
	logger   Logger
}

func NewSignOutHandler(provider Provider) *SignOutHandler {
	return &SignOutHandler{
		provider: provider,
		activity: noopActivitySink{},
		logger:   &defLogger{},
	}
}

func (h *SignOutHandler) WithActivitySink(sink ActivitySink) *SignOutHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *SignOutHandler) WithLogger(logger Logger) *SignOutHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignOutHandler) Execute(ctx context.Context, event SignOutMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign out",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignOutHandler) execute(ctx context.Context, event SignOutMessage) error {
	resp := &SignOutResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.AccessToken != "" {
		if err := h.provider.SignOut(ctx, event.AccessToken); err != nil {
			h.logger.Warn("provider sign out failed", "error", err, "subject", event.SubjectID)
		}
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventSignOut,
		SubjectID:  event.SubjectID,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to record sign out activity", "error", err)
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
