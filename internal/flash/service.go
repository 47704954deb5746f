// Package flash はリダイレクトをまたぐ一度きりの通知メッセージを管理する。
// メッセージはセッション単位のキューとしてDBに積まれ、
// 次の画面描画時に取り出された時点で削除される（1回表示したら消える）。
package flash

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maki/equiport/internal/model"
	"github.com/maki/equiport/internal/repository"
)

// メッセージレベル。バナーの見た目の出し分けに使う。
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Service はフラッシュメッセージの積み込みと取り出しを行う。
type Service struct {
	repo   repository.FlashRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// ttlは取り出されないまま放置されたメッセージの寿命で、
// 期限切れ分はクリーンアップジョブが回収する。
func NewService(repo repository.FlashRepository, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
	}
}

// Push はセッションのキューにメッセージを追加する。
func (s *Service) Push(ctx context.Context, sessionID, level, text string) error {
	now := time.Now()
	msg := &model.FlashMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Level:     level,
		Text:      text,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.repo.Push(ctx, msg); err != nil {
		return fmt.Errorf("failed to push flash: %w", err)
	}
	return nil
}

// Pop はセッションの未表示メッセージを作成順で全件取り出す。
// 取り出しに失敗しても画面描画は止めず、空のまま返す。
func (s *Service) Pop(ctx context.Context, sessionID string) []model.FlashMessage {
	msgs, err := s.repo.PopBySessionID(ctx, sessionID)
	if err != nil {
		s.logger.Error("フラッシュメッセージの取り出しに失敗しました",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return msgs
}
