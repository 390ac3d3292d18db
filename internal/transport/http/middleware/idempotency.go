package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyWindow is how long a stored response is replayed for.
const IdempotencyWindow = 24 * time.Hour

var ErrIdempotencyConflict = errors.New("idempotency key was already used for a different request")

// Ticket identifies one idempotent call: the caller, the endpoint, the
// client-chosen key and a digest of everything that shaped the request.
type Ticket struct {
	UserID   string
	Endpoint string
	Key      string
	Digest   string
}

// NewTicket reads the Idempotency-Key header. A request without the header
// yields a zero Ticket, which the store ignores.
func NewTicket(r *http.Request, userID, endpoint string, parts ...[]byte) Ticket {
	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if key == "" {
		return Ticket{}
	}
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return Ticket{UserID: userID, Endpoint: endpoint, Key: key, Digest: hex.EncodeToString(h.Sum(nil))}
}

func (t Ticket) empty() bool {
	return t.Key == ""
}

// IdempotencyStore keeps responses of idempotent calls in Postgres.
type IdempotencyStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db, now: time.Now}
}

// Replay returns the stored response for the ticket, if any. A reused key
// with a different digest is ErrIdempotencyConflict. Expired rows are ignored.
func (s *IdempotencyStore) Replay(ctx context.Context, t Ticket) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil || t.empty() {
		return nil, false, nil
	}
	var digest string
	var response json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE user_id = $1 AND endpoint = $2 AND key = $3 AND created_at > $4
  `, t.UserID, t.Endpoint, t.Key, s.now().Add(-IdempotencyWindow)).Scan(&digest, &response)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case digest != t.Digest:
		return nil, false, ErrIdempotencyConflict
	}
	return response, true, nil
}

// Remember stores the response. An expired row under the same key is replaced.
func (s *IdempotencyStore) Remember(ctx context.Context, t Ticket, response any) error {
	if s == nil || s.db == nil || t.empty() {
		return nil
	}
	raw, err := json.Marshal(response)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, endpoint, key, request_hash, response_json, created_at)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (user_id, key, endpoint) DO UPDATE
      SET request_hash = EXCLUDED.request_hash,
          response_json = EXCLUDED.response_json,
          created_at = EXCLUDED.created_at
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
       OR idempotency_keys.created_at <= $7
  `, t.UserID, t.Endpoint, t.Key, t.Digest, raw, s.now(), s.now().Add(-IdempotencyWindow))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}
