package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

const commentColumns = `id::text, subject_id, author_id, parent_id::text, content, depth, created_at, updated_at`

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

// Put checks the parent and inserts in one transaction. The parent row is
// held FOR SHARE so the integrity check and the insert see the same parent.
func (s *PostgresCommentStore) Put(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Comment{}, domain.NewStorageError("generate id", err)
		}
		c.ID = id.String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Comment{}, mapError(err, "begin put")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ParentID != nil {
		var parentSubject string
		err := tx.QueryRow(ctx,
			`SELECT subject_id FROM comments WHERE id = $1 FOR SHARE`, *c.ParentID).Scan(&parentSubject)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.Comment{}, domain.IntegrityErrorf("parent comment %s does not exist", *c.ParentID)
		case err != nil:
			return domain.Comment{}, mapError(err, "lock parent")
		case parentSubject != c.SubjectID:
			return domain.Comment{}, domain.IntegrityErrorf("parent comment %s belongs to another subject", *c.ParentID)
		}
	}

	// created_at falls back to the database clock, which is authoritative
	// across replicas.
	var createdAt *time.Time
	if !c.CreatedAt.IsZero() {
		t := domain.NormalizeTime(c.CreatedAt)
		createdAt = &t
	}

	const q = `INSERT INTO comments (id, subject_id, author_id, parent_id, content, depth, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::timestamptz, clock_timestamp()))
	           RETURNING ` + commentColumns
	out, err := scanComment(tx.QueryRow(ctx, q,
		c.ID, c.SubjectID, c.AuthorID, c.ParentID, c.Content, c.Depth, createdAt))
	if err != nil {
		return domain.Comment{}, mapError(err, "insert comment")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Comment{}, mapError(err, "commit put")
	}
	return out, nil
}

func (s *PostgresCommentStore) Get(ctx context.Context, id string) (domain.Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Comment{}, mapError(err, "get comment "+id)
	}
	return c, nil
}

func (s *PostgresCommentStore) ChildrenOf(ctx context.Context, subjectID string, parentID *string) ([]domain.Comment, error) {
	var (
		q    string
		args []any
	)
	if parentID == nil {
		q = `SELECT ` + commentColumns + `
		     FROM comments
		     WHERE subject_id = $1 AND parent_id IS NULL`
		args = []any{subjectID}
	} else {
		q = `SELECT ` + commentColumns + `
		     FROM comments
		     WHERE subject_id = $1 AND parent_id = $2`
		args = []any{subjectID, *parentID}
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "list children")
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, mapError(err, "scan child")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list children")
	}
	return out, nil
}

func (s *PostgresCommentStore) UpdateContent(ctx context.Context, id, authorID, content string) (domain.Comment, error) {
	const q = `UPDATE comments SET content = $1, updated_at = clock_timestamp()
	           WHERE id = $2 AND author_id = $3
	           RETURNING ` + commentColumns
	c, err := scanComment(s.pool.QueryRow(ctx, q, content, id, authorID))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Comment{}, mapError(err, "update comment "+id)
	}

	// Distinguish a missing comment from one owned by someone else.
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return domain.Comment{}, mapError(err, "check comment "+id)
	}
	if !exists {
		return domain.Comment{}, domain.NotFoundErrorf("comment %s", id)
	}
	return domain.Comment{}, ErrNotAuthor
}

func (s *PostgresCommentStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return domain.NewStorageError("ping", err)
	}
	return nil
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.SubjectID, &c.AuthorID, &c.ParentID,
		&c.Content, &c.Depth, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Comment{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if c.UpdatedAt != nil {
		u := c.UpdatedAt.UTC()
		c.UpdatedAt = &u
	}
	return c, nil
}
