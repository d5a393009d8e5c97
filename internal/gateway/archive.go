package gateway

import (
	"context"
	"time"

	"legalaid-admin/internal/domain"
	"legalaid-admin/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive mirrors persisted chat messages into Postgres so conversations
// survive gateway restarts during development. Optional: the gateway runs
// fully in memory when no DATABASE_URL is configured.
type Archive struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	query_id    TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	sender_role TEXT NOT NULL,
	body        TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_query_idx ON messages (query_id, created_at);
`

func NewArchive(ctx context.Context, databaseURL string, log *logger.Logger) (*Archive, error) {
	if log == nil {
		log = logger.NewNop()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, archiveSchema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Archive{pool: pool, log: log}, nil
}

// Insert writes one message. Fire and forget from the hot path: failures
// are logged, never surfaced to the chat.
func (a *Archive) Insert(ctx context.Context, msg domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.pool.Exec(ctx,
		`INSERT INTO messages (id, query_id, sender_id, sender_role, body, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.QueryID, msg.SenderID, string(msg.SenderRole), msg.Body, string(msg.Status), msg.CreatedAt,
	)
	if err != nil {
		a.log.Errorf("archive insert for message %s: %v", msg.ID, err)
	}
}

// History loads the archived sequence for one query, oldest first.
func (a *Archive) History(ctx context.Context, queryID string) ([]domain.Message, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT id, query_id, sender_id, sender_role, body, status, created_at
		 FROM messages WHERE query_id = $1 ORDER BY created_at`,
		queryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role, status string
		if err := rows.Scan(&msg.ID, &msg.QueryID, &msg.SenderID, &role, &msg.Body, &status, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.SenderRole = domain.SenderRole(role)
		msg.Status = domain.DeliveryStatus(status)
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (a *Archive) Close() {
	a.pool.Close()
}
