package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xavierca1/leadfeed/internal/entity"
)

const messageColumns = `id, lead_id, channel, direction, content, is_note, "timestamp", created_at, external_id`

type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) ListByLead(ctx context.Context, leadID string) ([]*entity.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE lead_id = $1 ORDER BY "timestamp" ASC`,
		leadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *MessageRepository) FindSyncedByLead(ctx context.Context, leadID string) ([]*entity.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE lead_id = $1 AND external_id IS NOT NULL`,
		leadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *MessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO messages (id, lead_id, channel, direction, content, is_note, "timestamp", created_at, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		msg.ID, msg.LeadID, string(msg.Channel), string(msg.Direction),
		msg.Content, msg.IsNote, msg.Timestamp, msg.CreatedAt, nullString(msg.ExternalID),
	)
	if isUniqueViolation(err) {
		// Another sync inserted the same external id first. Losing the race
		// is fine; the message is already there.
		log.Printf("[db] Duplicate external_id skipped for lead %s", msg.LeadID)
		return nil
	}
	return err
}

// InsertBatch writes all rows in one multi-row INSERT. Rows colliding on the
// (lead_id, external_id) unique index are skipped via ON CONFLICT DO NOTHING,
// which is what keeps concurrent syncs for the same lead idempotent.
func (r *MessageRepository) InsertBatch(ctx context.Context, msgs []*entity.Message) (int64, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	var args []any
	for _, msg := range msgs {
		args = append(args,
			msg.ID, msg.LeadID, string(msg.Channel), string(msg.Direction),
			msg.Content, msg.IsNote, msg.Timestamp, msg.CreatedAt, nullString(msg.ExternalID),
		)
	}

	res, err := r.DB.ExecContext(ctx, batchInsertQuery(len(msgs)), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// batchInsertQuery builds the multi-row INSERT for n messages. The conflict
// target repeats the predicate of the partial unique index on
// (lead_id, external_id) WHERE external_id IS NOT NULL; Postgres cannot
// arbitrate on a partial index without it.
func batchInsertQuery(n int) string {
	placeholders := make([]string, 0, n)
	for i := 0; i < n; i++ {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
	}
	return `
		INSERT INTO messages (id, lead_id, channel, direction, content, is_note, "timestamp", created_at, external_id)
		VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT (lead_id, external_id) WHERE external_id IS NOT NULL DO NOTHING
	`
}

// UpdateContent backfills an email body discovered by a later sync. The only
// mutation messages ever receive.
func (r *MessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE messages SET content = $1 WHERE id = $2`, content, id)
	return err
}

func collectMessages(rows *sql.Rows) ([]*entity.Message, error) {
	var msgs []*entity.Message
	for rows.Next() {
		var (
			msg        entity.Message
			channel    string
			direction  string
			externalID sql.NullString
		)
		err := rows.Scan(
			&msg.ID, &msg.LeadID, &channel, &direction, &msg.Content,
			&msg.IsNote, &msg.Timestamp, &msg.CreatedAt, &externalID,
		)
		if err != nil {
			return nil, err
		}
		msg.Channel = entity.MessageChannel(channel)
		msg.Direction = entity.MessageDirection(direction)
		msg.ExternalID = fromNullString(externalID)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
