package authgate

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var markSubjectVerifiedSQL = `UPDATE "subjects" AS "sub"
SET
	"is_email_verified" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"sub"."deleted_at" IS NULL
AND (
	"sub"."provider_id" = ?
) RETURNING *;`

type Subjects interface {
	repository.Repository[*SubjectRecord]

	SyncFromProvider(ctx context.Context, subject *Subject) (*SubjectRecord, error)
	SyncFromProviderTx(ctx context.Context, tx bun.IDB, subject *Subject) (*SubjectRecord, error)

	MarkVerified(ctx context.Context, providerID string) error
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, providerID string) error
}

type subjects struct {
	repository.Repository[*SubjectRecord]
	db *bun.DB
}

var (
	_ Subjects                              = (*subjects)(nil)
	_ repository.Repository[*SubjectRecord] = (*subjects)(nil)
)

func NewSubjectsRepository(db *bun.DB) Subjects {
	repo := repository.NewRepository[*SubjectRecord](db, repository.ModelHandlers[*SubjectRecord]{
		NewRecord: func() *SubjectRecord { return &SubjectRecord{} },
		GetID: func(s *SubjectRecord) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *SubjectRecord, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "provider_id"
		},
	})

	return &subjects{
		Repository: repo,
		db:         db,
	}
}

func (a *subjects) SyncFromProvider(ctx context.Context, subject *Subject) (*SubjectRecord, error) {
	return a.SyncFromProviderTx(ctx, a.db, subject)
}

// SyncFromProviderTx upserts the mirror row for a provider subject. The
// provider payload wins on every synced column; local-only columns are
// preserved.
func (a *subjects) SyncFromProviderTx(ctx context.Context, tx bun.IDB, subject *Subject) (*SubjectRecord, error) {
	now := time.Now()

	record := &SubjectRecord{
		ProviderID:    subject.ID,
		Email:         subject.Email,
		EmailVerified: subject.EmailVerified,
		Metadata:      subject.Metadata,
		LastSeenAt:    &now,
	}

	existing, err := a.Repository.GetByIdentifierTx(ctx, tx, subject.ID)
	if err == nil {
		record.ID = existing.ID
		return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(existing.ID.String()))
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	if id, err := hashid.NewUUID(subject.ID); err == nil {
		record.ID = id
	} else {
		record.ID = uuid.New()
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *subjects) MarkVerified(ctx context.Context, providerID string) error {
	return a.MarkVerifiedTx(ctx, a.db, providerID)
}

func (a *subjects) MarkVerifiedTx(ctx context.Context, tx bun.IDB, providerID string) error {
	res, err := a.Repository.RawTx(ctx, tx, markSubjectVerifiedSQL, providerID)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"provider_id": providerID,
			})
	}

	return nil
}
