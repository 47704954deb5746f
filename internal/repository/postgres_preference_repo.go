package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maki/equiport/internal/model"
)

// PostgresPreferenceRepo はPostgreSQLを使用したユーザー設定リポジトリ。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

// FindByUserID は指定ユーザーの設定を取得する。未設定の場合はnilを返す。
func (r *PostgresPreferenceRepo) FindByUserID(ctx context.Context, userID int64) (*model.Preference, error) {
	pref := &model.Preference{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, theme, updated_at
		 FROM user_preferences
		 WHERE user_id = $1`,
		userID,
	).Scan(&pref.UserID, &pref.Theme, &pref.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preference: %w", err)
	}

	return pref, nil
}

// UpsertTheme はテーマ設定を冪等に保存する。
func (r *PostgresPreferenceRepo) UpsertTheme(ctx context.Context, userID int64, theme string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, theme, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET theme = EXCLUDED.theme, updated_at = now()`,
		userID, theme,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert theme: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
