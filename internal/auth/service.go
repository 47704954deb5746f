// Package auth はログイン・登録・ログアウトとセッション管理を提供する。
// 資格情報の検証とトークン発行は上流の貸出APIに委ね、
// ポータルは発行されたトークンをセッション行に保持する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maki/equiport/internal/gateway"
	"github.com/maki/equiport/internal/model"
	"github.com/maki/equiport/internal/repository"
)

// Gateway は認証サービスが必要とする上流API操作のインターフェース。
type Gateway interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResult, error)
	Register(ctx context.Context, input gateway.RegisterInput) (*model.Identity, error)
	Logout(ctx context.Context, token string) error
	GetUserByID(ctx context.Context, token string, id int64) (*model.Identity, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	gw          Gateway
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	logger      *slog.Logger
}

// NewService はServiceを生成する。
func NewService(gw Gateway, sessionRepo repository.SessionRepository, config ServiceConfig, logger *slog.Logger) *Service {
	return &Service{
		gw:          gw,
		sessionRepo: sessionRepo,
		config:      config,
		logger:      logger,
	}
}

// Login は上流で資格情報を検証し、ポータルのセッションを発行する。
// 上流の認証失敗はgateway.UpstreamErrorとしてそのまま伝播する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = normalizeEmail(email)

	// 1. 上流で資格情報を検証しトークンを取得
	result, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// 2. セッションIDを生成しセッション行を作成
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		Identity:  result.User,
		Token:     result.Token,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("ユーザーがログインしました",
		slog.Int64("user_id", session.Identity.ID),
		slog.String("role", session.Identity.Role),
	)

	return session, nil
}

// Register は上流にユーザーを登録する。セッションは発行しない
// （登録後はログイン画面に誘導する）。
func (s *Service) Register(ctx context.Context, name, email, password, role string) (*model.Identity, error) {
	input := gateway.RegisterInput{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: password,
		Role:     strings.ToUpper(strings.TrimSpace(role)),
	}

	user, err := s.gw.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ユーザーが登録されました",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// Logout は上流のトークンを無効化し、ポータルのセッションを削除する。
// 上流の無効化失敗はログだけ残して処理を続ける。
// セッション削除が成功すればポータル上はログアウト完了とみなす。
func (s *Service) Logout(ctx context.Context, session *model.Session) error {
	if err := s.gw.Logout(ctx, session.Token); err != nil {
		s.logger.Warn("上流トークンの無効化に失敗しました",
			slog.Int64("user_id", session.Identity.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("ユーザーがログアウトしました", slog.Int64("user_id", session.Identity.ID))
	return nil
}

// RefreshIdentity は上流からユーザーの最新情報を取得し、
// セッションにキャッシュされたIdentityを更新して返す。
// 管理者によるロール変更を次のアクセスで反映するために使う。
func (s *Service) RefreshIdentity(ctx context.Context, session *model.Session) (*model.Identity, error) {
	user, err := s.gw.GetUserByID(ctx, session.Token, session.Identity.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.UpdateIdentity(ctx, session.ID, *user); err != nil {
		return nil, fmt.Errorf("failed to update session identity: %w", err)
	}

	return user, nil
}

// generateSessionID は暗号学的に安全な乱数からセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// normalizeEmail はメールアドレスの前後の空白を除去し小文字に揃える。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
