package preferences

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, userID, key string) (Preference, error) {
	p := Preference{UserID: userID, Key: key}
	err := s.DB.QueryRow(ctx, `
    SELECT value, updated_at FROM user_preferences WHERE user_id = $1 AND key = $2
  `, userID, key).Scan(&p.Value, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preference{}, ErrPreferenceNotFound
	}
	return p, err
}

func (s *Store) Put(ctx context.Context, userID, key string, value json.RawMessage) (Preference, error) {
	p := Preference{UserID: userID, Key: key}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO user_preferences (user_id, key, value)
    VALUES ($1,$2,$3)
    ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    RETURNING value, updated_at
  `, userID, key, []byte(value)).Scan(&p.Value, &p.UpdatedAt)
	return p, err
}

func (s *Store) Delete(ctx context.Context, userID, key string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1 AND key = $2`, userID, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}
