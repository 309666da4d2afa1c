package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/thehallofegress/class-schedules/config"
	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/pkg/jwt"
	"github.com/thehallofegress/class-schedules/pkg/redis"
)

// ── 编辑模式认证业务错误 ──

var (
	ErrWrongPassword = errors.New("编辑口令错误")
)

// AuthService 编辑模式认证业务接口
//
// 编辑模式是单口令共享身份：口令比对通过即签发编辑 Token，
// 退出编辑模式时把 Token 的 jti 写入 Redis 吊销名单，剩余有效期内拒绝复用。
type AuthService interface {
	EnterEditMode(password string) (*dto.EditTokenResponse, error)
	ExitEditMode(ctx context.Context, token string) error
}

type authService struct {
	cfg    *config.AuthConfig
	jwtMgr *jwt.Manager
	redis  *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.AuthConfig, jwtMgr *jwt.Manager, redisClient *redis.Client, logger *zap.Logger) AuthService {
	return &authService{
		cfg:    cfg,
		jwtMgr: jwtMgr,
		redis:  redisClient,
		logger: logger,
	}
}

// EnterEditMode 校验编辑口令并签发编辑 Token
func (s *authService) EnterEditMode(password string) (*dto.EditTokenResponse, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.EditSecretHash), []byte(password)); err != nil {
		s.logger.Warn("编辑口令校验失败")
		return nil, ErrWrongPassword
	}

	token, err := s.jwtMgr.GenerateEditToken()
	if err != nil {
		s.logger.Error("签发编辑 Token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("进入编辑模式")
	return &dto.EditTokenResponse{
		Token:     token,
		ExpiresIn: int(s.jwtMgr.EditTokenTTL().Seconds()),
	}, nil
}

// ExitEditMode 吊销编辑 Token
// Token 无效或已过期视为已退出，不报错
func (s *authService) ExitEditMode(ctx context.Context, token string) error {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return nil
	}

	// Redis 降级运行时无法吊销，Token 只能等自然过期
	if s.redis == nil {
		s.logger.Warn("Redis 未连接，跳过 Token 吊销", zap.String("jti", claims.ID))
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.redis.RevokeToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("吊销编辑 Token 失败", zap.Error(err))
		return err
	}

	s.logger.Info("退出编辑模式", zap.String("jti", claims.ID))
	return nil
}
