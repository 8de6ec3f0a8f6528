// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに認証済みクレームを格納するためのキー。
var claimsContextKey = contextKey("claims")

// TokenDecoder はトークン検証に必要なインターフェース。
// token.Codecの部分集合として定義する。
type TokenDecoder interface {
	Decode(tokenString string) (*token.Claims, error)
}

// AuthMetrics は認証失敗の記録に必要なインターフェース。nilを許容する。
type AuthMetrics interface {
	RecordAuthFailure(reason string)
}

// NewAuthMiddleware はAuthorizationヘッダーのベアラートークンを検証する
// ミドルウェアを返す。検証に成功したクレームをリクエストコンテキストに注入する。
// 失敗はすべて401で、理由別に異なるエラーコードを返す:
//   - ヘッダー欠落・形式不正: UNAUTHENTICATED
//   - 期限切れ: TOKEN_EXPIRED
//   - 署名不正・解析不能・subject欠落: TOKEN_INVALID
//
// 署名と期限の検証を通過してもsubjectが空のトークンは拒否する。
func NewAuthMiddleware(decoder TokenDecoder, metrics AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ベアラートークンの抽出
			tokenString, ok := extractBearerToken(r)
			if !ok {
				writeAuthError(w, metrics, "missing_credential", model.NewUnauthenticatedError())
				return
			}

			// 2. トークンの検証
			claims, err := decoder.Decode(tokenString)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					writeAuthError(w, metrics, "expired", model.NewTokenExpiredError())
					return
				}
				writeAuthError(w, metrics, "invalid", model.NewTokenInvalidError())
				return
			}

			// 3. subjectの存在確認（整形だが意味的に無効なトークンの拒否）
			if claims.Subject == "" {
				writeAuthError(w, metrics, "missing_subject", model.NewTokenInvalidError())
				return
			}

			// 4. 認証済みクレームをコンテキストに注入
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)

			// 外側のロギングミドルウェアへユーザーIDを引き渡す
			if identity, ok := ctx.Value(identityContextKey).(*requestIdentity); ok {
				identity.userID = claims.Subject
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// writeAuthError は401レスポンスを統一エラーフォーマットで書き込む。
func writeAuthError(w http.ResponseWriter, metrics AuthMetrics, reason string, apiErr *model.APIError) {
	if metrics != nil {
		metrics.RecordAuthFailure(reason)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"code":     apiErr.Code,
		"message":  apiErr.Message,
		"category": apiErr.Category,
		"action":   apiErr.Action,
	})
}

// ClaimsFromContext はリクエストコンテキストから認証済みクレームを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*token.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return claims.Subject, nil
}

// ContextWithClaims はコンテキストにクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
