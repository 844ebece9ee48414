package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/seriestrack/internal/account"
)

// AccountStore implements account.Store on the embedded database.
type AccountStore struct {
	db *DB
}

func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, email, name string) (account.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return account.User{}, account.ErrEmailRequired
	}

	q := `INSERT INTO users (id, email, name, created_at, updated_at)
	      VALUES (?, ?, ?, ?, ?)
	      RETURNING id, email, name, created_at, updated_at`

	now := toNanos(time.Now())
	var (
		u                    account.User
		id                   string
		createdAt, updatedAt int64
	)
	err := s.db.db.QueryRowContext(ctx, q, uuid.NewString(), email, name, now, now).
		Scan(&id, &u.Email, &u.Name, &createdAt, &updatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return account.User{}, account.ErrEmailTaken
		}
		return account.User{}, storageErr("create user", account.ErrStorageUnavailable, err)
	}
	u.ID, _ = uuid.Parse(id)
	u.CreatedAt = fromNanos(createdAt)
	u.UpdatedAt = fromNanos(updatedAt)
	return u, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (account.User, error) {
	q := `SELECT id, email, name, created_at, updated_at FROM users WHERE id=?`

	var (
		u                    account.User
		rawID                string
		createdAt, updatedAt int64
	)
	err := s.db.db.QueryRowContext(ctx, q, id.String()).
		Scan(&rawID, &u.Email, &u.Name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.User{}, account.ErrNotFound
		}
		return account.User{}, storageErr("get user", account.ErrStorageUnavailable, err)
	}
	u.ID, _ = uuid.Parse(rawID)
	u.CreatedAt = fromNanos(createdAt)
	u.UpdatedAt = fromNanos(updatedAt)
	return u, nil
}

func (s *AccountStore) List(ctx context.Context) ([]account.User, error) {
	q := `SELECT id, email, name, created_at, updated_at FROM users ORDER BY created_at DESC, id DESC`

	rows, err := s.db.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr("list users", account.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []account.User
	for rows.Next() {
		var (
			u                    account.User
			rawID                string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&rawID, &u.Email, &u.Name, &createdAt, &updatedAt); err != nil {
			return nil, storageErr("scan user", account.ErrStorageUnavailable, err)
		}
		u.ID, _ = uuid.Parse(rawID)
		u.CreatedAt = fromNanos(createdAt)
		u.UpdatedAt = fromNanos(updatedAt)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", account.ErrStorageUnavailable, err)
	}
	return out, nil
}
