package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/token"
)

// --- モック定義 ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) error
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockIssuer struct {
	issueFn func(claims token.Claims, ttl ...time.Duration) (string, error)
}

func (m *mockIssuer) Issue(claims token.Claims, ttl ...time.Duration) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(claims, ttl...)
	}
	return "mock-token", nil
}

func newTestService(repo *mockUserRepo, issuer *mockIssuer) *Service {
	return NewService(repo, issuer, ServiceConfig{AccessTokenTTL: 30 * time.Minute})
}

// --- Registerのテスト ---

// 新規メールアドレスでの登録が成功し、タイムスタンプとIDが設定されることを検証
func TestService_Register_Success(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(repo, &mockIssuer{})

	before := time.Now().UTC()
	user, err := svc.Register(context.Background(), "a@x.com", "pw", "A", "manager")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if user.ID == "" {
		t.Error("expected non-empty ID")
	}
	if user.Email != "a@x.com" {
		t.Errorf("Email = %q, want %q", user.Email, "a@x.com")
	}
	if user.FullName != "A" {
		t.Errorf("FullName = %q, want %q", user.FullName, "A")
	}
	if user.Role != "manager" {
		t.Errorf("Role = %q, want %q", user.Role, "manager")
	}
	// パスワードは送信値がそのまま保存される（平文保存、DESIGN.md参照）
	if created.Password != "pw" {
		t.Errorf("stored Password = %q, want %q", created.Password, "pw")
	}
	if user.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want >= %v", user.CreatedAt, before)
	}
	if !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Errorf("CreatedAt (%v) != UpdatedAt (%v)", user.CreatedAt, user.UpdatedAt)
	}
}

// ロール未指定の場合はデフォルトロールが設定されることを検証
func TestService_Register_EmptyRole_UsesDefault(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockIssuer{})

	user, err := svc.Register(context.Background(), "a@x.com", "pw", "A", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if user.Role != model.DefaultUserRole {
		t.Errorf("Role = %q, want %q", user.Role, model.DefaultUserRole)
	}
}

// 既存メールアドレスでの登録はDUPLICATE_EMAILエラーになることを検証
func TestService_Register_DuplicateEmail_ReturnsError(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			t.Fatal("Create should not be called when email exists")
			return nil
		},
	}
	svc := newTestService(repo, &mockIssuer{})

	_, err := svc.Register(context.Background(), "a@x.com", "pw", "A", "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateEmail)
	}
}

// 事前チェックをすり抜けた場合もリポジトリ層のDUPLICATE_EMAILがそのまま返ることを検証
func TestService_Register_RepoDuplicate_PropagatesError(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.NewDuplicateEmailError(user.Email)
		},
	}
	svc := newTestService(repo, &mockIssuer{})

	_, err := svc.Register(context.Background(), "a@x.com", "pw", "A", "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateEmail)
	}
}

// --- Loginのテスト ---

// 正しい認証情報でトークンが発行され、クレームと有効期間が正しいことを検証
func TestService_Login_Success_IssuesTokenWithClaims(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:       "user-id-123",
				Email:    email,
				Password: "pw",
				FullName: "A",
				Role:     "developer",
			}, nil
		},
	}

	var gotClaims token.Claims
	var gotTTL time.Duration
	issuer := &mockIssuer{
		issueFn: func(claims token.Claims, ttl ...time.Duration) (string, error) {
			gotClaims = claims
			if len(ttl) > 0 {
				gotTTL = ttl[0]
			}
			return "issued-token", nil
		},
	}
	svc := newTestService(repo, issuer)

	accessToken, user, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if accessToken != "issued-token" {
		t.Errorf("accessToken = %q, want %q", accessToken, "issued-token")
	}
	if user.ID != "user-id-123" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-id-123")
	}
	if gotClaims.Subject != "user-id-123" {
		t.Errorf("claims.Subject = %q, want %q", gotClaims.Subject, "user-id-123")
	}
	if gotClaims.Email != "a@x.com" {
		t.Errorf("claims.Email = %q, want %q", gotClaims.Email, "a@x.com")
	}
	if gotClaims.Role != "developer" {
		t.Errorf("claims.Role = %q, want %q", gotClaims.Role, "developer")
	}
	// ログイン時のTTLはコーデックのデフォルト（15分）ではなく設定値（30分）
	if gotTTL != 30*time.Minute {
		t.Errorf("ttl = %v, want %v", gotTTL, 30*time.Minute)
	}
}

// パスワード不一致はINVALID_CREDENTIALSエラーになることを検証
func TestService_Login_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "u1", Email: email, Password: "correct"}, nil
		},
	}
	svc := newTestService(repo, &mockIssuer{})

	_, _, err := svc.Login(context.Background(), "a@x.com", "wrong")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
	}
}

// 未登録メールアドレスでもパスワード不一致と同じエラーコードになることを検証
// （メールアドレスの存在を推測させない）
func TestService_Login_UnknownEmail_ReturnsSameError(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockIssuer{})

	_, _, err := svc.Login(context.Background(), "nobody@x.com", "pw")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
	}
}

// 登録→ログインを実際のコーデックで通し、デコードしたsubjectが
// 登録ユーザーのIDと一致することを検証
func TestService_RegisterThenLogin_DecodedSubjectMatchesUserID(t *testing.T) {
	// インメモリのユーザーストア
	users := map[string]*model.User{}
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			users[user.Email] = user
			return nil
		},
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return users[email], nil
		},
	}

	codec := token.NewCodec([]byte("test-secret"))
	svc := NewService(repo, codec, ServiceConfig{AccessTokenTTL: 30 * time.Minute})

	registered, err := svc.Register(context.Background(), "a@x.com", "pw", "A", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	accessToken, _, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := codec.Decode(accessToken)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if claims.Subject != registered.ID {
		t.Errorf("decoded Subject = %q, want %q", claims.Subject, registered.ID)
	}
}
