// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/storage"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrTokenExpired 令牌已过期（客户端应刷新）
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid 令牌非法（签名/签发者/受众/类型不符）
	ErrTokenInvalid = errors.New("invalid token")

	// ErrInvalidCredentials 凭据错误
	// 未知邮箱与密码错误共用此错误，避免账户枚举
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Config 认证配置
type Config struct {
	JWTSecret       string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	// 管理员引导账户，只从环境变量读取
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		Issuer:          "books-admin",
		Audience:        "books-admin-api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		BcryptCost:      12,
	}
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(cfg Config, password string) (string, error) {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = 12
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Type     string `json:"type,omitempty"` // "access" | "refresh"
}

// TokenPair 令牌对：访问令牌 + 刷新令牌
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // 访问令牌有效期（秒）
	TokenType    string `json:"tokenType"` // 固定 "Bearer"
}

// GenerateTokenPair 为用户签发访问令牌 + 刷新令牌
func GenerateTokenPair(cfg Config, user *model.User) (*TokenPair, error) {
	access, err := generateToken(cfg, user, TokenTypeAccess, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := generateToken(cfg, user, TokenTypeRefresh, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(cfg.AccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func generateToken(cfg Config, user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		Type:     tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT（签名、签发者、受众、有效期）
//
// 过期与其他非法情形区分为 ErrTokenExpired / ErrTokenInvalid，
// 对外都表现为 401，但客户端可凭 expired 触发刷新。
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithAudience(cfg.Audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
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

// VerifyAndLoadUser 校验令牌并加载实时用户
//
// 令牌本身合法还不够：被引用的用户必须仍然存在且 isActive。
// wantType 限定令牌类型（access / refresh）。
func VerifyAndLoadUser(ctx context.Context, store storage.UserStore, cfg Config, tokenString, wantType string) (*model.User, error) {
	claims, err := ParseToken(cfg, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != wantType {
		return nil, ErrTokenInvalid
	}

	user, err := store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证用户注入 context
func WithAuthUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证用户，未认证时返回 nil
func GetAuthUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeyAuthUser).(*model.User)
	return user
}
