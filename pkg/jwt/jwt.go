package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/thehallofegress/class-schedules/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// Claims 编辑 Token 声明
// 编辑模式只有一个共享身份，Token 不携带用户信息，仅作为"口令已通过"的凭证
type Claims struct {
	TokenType string `json:"token_type"` // 固定 "edit"
	jwtv5.RegisteredClaims
}

// Manager 编辑 Token 管理器
type Manager struct {
	secret       []byte
	editTokenTTL time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:       []byte(cfg.JWTSecret),
		editTokenTTL: cfg.EditTokenTTL,
	}
}

// EditTokenTTL 编辑 Token 有效期
func (m *Manager) EditTokenTTL() time.Duration {
	return m.editTokenTTL
}

// GenerateEditToken 口令校验通过后签发编辑 Token
func (m *Manager) GenerateEditToken() (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: "edit",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.editTokenTTL)),
			Issuer:    "class-schedules",
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 验证并解析编辑 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
