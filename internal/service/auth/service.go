// Package auth 管理端认证：单管理员账号 + JWT
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hzwen/portfolio-ai/internal/config"
)

// Service 认证服务
// 管理员凭据来自配置，不落库；令牌无状态，过期即失效
type Service struct {
	username     string
	passwordHash string
	secret       []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewService 创建认证服务
// 未配置密钥时生成随机密钥，重启后已签发的令牌全部失效
func NewService(cfg *config.Config) *Service {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		secret = base64.StdEncoding.EncodeToString(raw)
		log.Printf("auth: no JWT secret configured, using an ephemeral one")
	}

	return &Service{
		username:     cfg.Auth.AdminUsername,
		passwordHash: cfg.Auth.AdminPasswordHash,
		secret:       []byte(secret),
		tokenTTL:     cfg.Auth.TokenTTL,
		now:          time.Now,
	}
}

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidToken 令牌无效或过期
var ErrInvalidToken = errors.New("invalid or expired token")

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login 管理员登录
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if s.passwordHash == "" {
		return nil, errors.New("admin login is not configured")
	}
	if req.Username != s.username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": "admin",
		"iat":  s.now().Unix(),
		"exp":  expiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken 验证令牌，返回管理员用户名
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub != s.username {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// HashPassword 生成 bcrypt 哈希，部署时用于准备配置
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
