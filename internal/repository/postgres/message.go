package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/repository"
)

const messageColumns = `id, sender_id, receiver_id, content, "timestamp", status`

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Save inserts m. The id is generated by the service, so a retried insert
// of the same message hits the primary key and is ignored.
func (s *MessageStore) Save(ctx context.Context, m models.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, "timestamp", status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, m.ID, m.SenderID, m.ReceiverID, m.Content, m.Timestamp, m.Status)
	if err != nil {
		return storeErr("insert message", err)
	}
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	m, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get message", err)
	}
	return m, nil
}

// ListConversation reads both directions of the pair. OrderMessages still
// runs on the result so that SQL and cached reads agree on tie order.
func (s *MessageStore) ListConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY "timestamp", id`

	msgs, err := s.queryMessages(ctx, "list conversation", query, a, b)
	if err != nil {
		return nil, err
	}
	return repository.OrderMessages(msgs), nil
}

// LatestSent is a last-writer-per-group query: DISTINCT ON keeps the first
// row of each receiver_id group, and the group is ordered newest first.
func (s *MessageStore) LatestSent(ctx context.Context, senderID string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM (
			SELECT DISTINCT ON (receiver_id) ` + messageColumns + `
			FROM messages
			WHERE sender_id = $1
			ORDER BY receiver_id, "timestamp" DESC, id DESC
		) latest
		ORDER BY "timestamp" DESC, id DESC`

	return s.queryMessages(ctx, "latest sent", query, senderID)
}

func (s *MessageStore) UpdateStatus(ctx context.Context, id, status string) (*models.Message, error) {
	query := `
		UPDATE messages SET status = $2
		WHERE id = $1
		RETURNING ` + messageColumns

	m, err := scanMessage(s.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("update message status", err)
	}
	return m, nil
}

func (s *MessageStore) queryMessages(ctx context.Context, op, query string, args ...any) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	msgs := make([]models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, storeErr("scan message", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return msgs, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.Content,
		&m.Timestamp,
		&m.Status,
	)
	if err != nil {
		return nil, err
	}
	m.Timestamp = m.Timestamp.UTC()
	return &m, nil
}
