// Package token は署名付き有効期限付きトークンの発行・検証を提供する。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はIssueで有効期間が省略された場合のデフォルト値。
// ログイン時のデフォルト（30分、config.AccessTokenTTL）とは意図的に別の値である
// （DESIGN.md参照）。
const DefaultTTL = 15 * time.Minute

// signingMethod は署名アルゴリズム。HS256固定で、設定による変更は許可しない。
var signingMethod = jwt.SigningMethodHS256

// Decodeが返すエラー。呼び出し側はerrors.Isで種別を判定する。
var (
	// ErrMalformed はトークンが解析できない場合のエラー。
	ErrMalformed = errors.New("token is malformed")
	// ErrExpired はトークンの有効期限が切れている場合のエラー。
	ErrExpired = errors.New("token is expired")
	// ErrInvalidSignature は署名が検証できない場合のエラー。
	ErrInvalidSignature = errors.New("token signature is invalid")
)

// Claims はトークンに埋め込むクレームセットを表す。
// Subjectが空のままでもトークンとしては整形であり、Decodeは成功する。
// subject欠落の扱いは検証ミドルウェア側の責務（認可エラー）とする。
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// jwtClaims はJWTペイロードとの変換用の内部表現。
type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Codec はクレームセットと署名付きトークン文字列を相互変換する。
// 共有シークレットによる対称署名のみをサポートする。
type Codec struct {
	secret []byte
}

// NewCodec は指定されたシークレットで署名・検証するCodecを生成する。
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Issue はクレームセットを署名し、トークン文字列を返す。
// ttlを省略した場合はDefaultTTLを使用する。有効期限は現在UTC時刻 + ttl。
// ttlにゼロ以下を明示的に渡した場合は発行時点で期限切れのトークンになる。
func (c *Codec) Issue(claims Claims, ttl ...time.Duration) (string, error) {
	d := DefaultTTL
	if len(ttl) > 0 {
		d = ttl[0]
	}

	expiresAt := time.Now().UTC().Add(d)

	t := jwt.NewWithClaims(signingMethod, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: claims.Email,
		Role:  claims.Role,
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Decode はトークン文字列を検証し、クレームセットを返す。
// 署名不一致はErrInvalidSignature、期限切れはErrExpired、
// 解析不能（その他の検証失敗を含む）はErrMalformedを返す。
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	parsed := &jwtClaims{}

	_, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{signingMethod.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}

	claims := &Claims{
		Subject: parsed.Subject,
		Email:   parsed.Email,
		Role:    parsed.Role,
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}

	return claims, nil
}
