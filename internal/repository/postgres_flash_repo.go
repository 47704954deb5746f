package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/maki/equiport/internal/model"
)

// PostgresFlashRepo はPostgreSQLを使用したフラッシュメッセージリポジトリ。
type PostgresFlashRepo struct {
	db *sql.DB
}

// NewPostgresFlashRepo はPostgresFlashRepoを生成する。
func NewPostgresFlashRepo(db *sql.DB) *PostgresFlashRepo {
	return &PostgresFlashRepo{db: db}
}

// Push はメッセージをセッションのキューに追加する。
func (r *PostgresFlashRepo) Push(ctx context.Context, msg *model.FlashMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO flash_messages (id, session_id, level, message, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.SessionID, msg.Level, msg.Text, msg.ExpiresAt, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to push flash message: %w", err)
	}
	return nil
}

// PopBySessionID はセッションの未失効メッセージを作成順で全件取り出し、削除する。
// DELETE ... RETURNINGで取り出しと削除を1クエリで行い、二重表示を防ぐ。
func (r *PostgresFlashRepo) PopBySessionID(ctx context.Context, sessionID string) ([]model.FlashMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM flash_messages
		 WHERE session_id = $1 AND expires_at > now()
		 RETURNING id, session_id, level, message, expires_at, created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pop flash messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.FlashMessage
	for rows.Next() {
		var m model.FlashMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Level, &m.Text, &m.ExpiresAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flash message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flash messages: %w", err)
	}

	// DELETE ... RETURNINGの行順は保証されないため作成順に並べ直す
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })

	return msgs, nil
}

// DeleteExpired は期限切れメッセージを削除し、削除件数を返す。
func (r *PostgresFlashRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM flash_messages WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired flash messages: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ FlashRepository = (*PostgresFlashRepo)(nil)
