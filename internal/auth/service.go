// Package auth は認証（登録・ログイン・トークン発行）のビジネスロジックを提供する。
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
	"github.com/hitoshi/taskdeck/internal/token"
)

// TokenIssuer はトークン発行のインターフェース。
// token.Codecの部分集合として定義する。
type TokenIssuer interface {
	Issue(claims token.Claims, ttl ...time.Duration) (string, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// AccessTokenTTL はログイン時に発行するトークンの有効期間。
	// token.DefaultTTL（15分）とは別の値であることに注意（DESIGN.md参照）。
	AccessTokenTTL time.Duration
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer TokenIssuer, config ServiceConfig) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
		config:   config,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが既に存在する場合はDUPLICATE_EMAILエラーを返す。
// 事前チェックとINSERTは別操作のため競合があり得るが、その場合も
// DBのユニークインデックスにより同一のDUPLICATE_EMAILエラーになる。
// roleが空の場合はmodel.DefaultUserRoleを設定する。
func (s *Service) Register(ctx context.Context, email, password, fullName, role string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError(email)
	}

	if role == "" {
		role = model.DefaultUserRole
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Password:  password,
		FullName:  fullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// Login は認証情報を検証し、アクセストークンとユーザーを返す。
// ユーザー未登録とパスワード不一致はどちらも同じINVALID_CREDENTIALSエラーを返す
// （メールアドレスの存在を推測させない）。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !comparePassword(user.Password, password) {
		return "", nil, model.NewInvalidCredentialsError()
	}

	accessToken, err := s.issuer.Issue(token.Claims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	}, s.config.AccessTokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return accessToken, user, nil
}

// comparePassword は保存済みパスワードと送信値を定数時間で比較する。
// 現状は平文同士の比較だが、ハッシュ比較への差し替えはこの関数の置換のみで済む。
func comparePassword(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
