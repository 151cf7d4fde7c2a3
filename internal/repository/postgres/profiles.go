package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/repository"
)

// ProfileRepository implements the local profile mirror on PostgreSQL.
type ProfileRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository constructs a PostgreSQL-backed profile repository.
func NewProfileRepository(exec pgExecutor) *ProfileRepository {
	return &ProfileRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a profile by its local id.
func (r *ProfileRepository) GetByID(ctx context.Context, id int) (*domain.LocalProfile, error) {
	stmt, args, err := r.builder.
		Select("id", "title", "namespace", "version", "author_id", "cloud_library_id", "pending_approval").
		From("publication.profiles").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	return r.scanProfile(r.exec.QueryRow(ctx, stmt, args...))
}

// FindByCloudLibraryID retrieves the profile mirroring a cloud library submission.
func (r *ProfileRepository) FindByCloudLibraryID(ctx context.Context, cloudLibraryID string) (*domain.LocalProfile, error) {
	stmt, args, err := r.builder.
		Select("id", "title", "namespace", "version", "author_id", "cloud_library_id", "pending_approval").
		From("publication.profiles").
		Where(squirrel.Eq{"cloud_library_id": cloudLibraryID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile by cloud library id sql: %w", err)
	}

	return r.scanProfile(r.exec.QueryRow(ctx, stmt, args...))
}

// Update persists the mutable publication fields of a profile.
func (r *ProfileRepository) Update(ctx context.Context, profile domain.LocalProfile) error {
	stmt, args, err := r.builder.
		Update("publication.profiles").
		Set("cloud_library_id", profile.CloudLibraryID).
		Set("pending_approval", profile.PendingApproval).
		Where(squirrel.Eq{"id": profile.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ProfileRepository) scanProfile(row pgx.Row) (*domain.LocalProfile, error) {
	var profile domain.LocalProfile

	err := row.Scan(
		&profile.ID,
		&profile.Title,
		&profile.Namespace,
		&profile.Version,
		&profile.AuthorID,
		&profile.CloudLibraryID,
		&profile.PendingApproval,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	return &profile, nil
}
