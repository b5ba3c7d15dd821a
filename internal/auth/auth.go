// 包 auth：只回答“是否有已登录用户”，把 Bearer JWT 解析为主体快照
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken：令牌缺失、签名错误、过期或签发方不符
var ErrInvalidToken = errors.New("invalid token")

// Principal：已登录主体在提交时刻的快照
type Principal struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Claims：身份令牌声明，sub 为用户 ID
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier：HS256 令牌校验与签发
// 约束：未配置密钥时任何令牌都不被接受（所有请求视为未登录）。
type Verifier struct {
	key    []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{key: []byte(secret), issuer: issuer}
}

// Issue：为主体签发令牌，供运维工具与测试使用
func (v *Verifier) Issue(p Principal, ttl time.Duration) (string, error) {
	if len(v.key) == 0 {
		return "", errors.New("auth secret not configured")
	}
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:    p.DisplayName,
		Email:   p.Email,
		Picture: p.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return t.SignedString(v.key)
}

func (v *Verifier) Verify(token string) (*Principal, error) {
	if len(v.key) == 0 || token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{UID: c.Subject, DisplayName: c.Name, Email: c.Email, PhotoURL: c.Picture}, nil
}

type ctxKey struct{}

// Middleware：解析 Authorization: Bearer 令牌并把主体放入上下文；失败不拦截请求
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			if p, err := v.Verify(strings.TrimSpace(tok)); err == nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext：未登录时返回 nil
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}
