package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"books-admin/internal/apiserver/respond"
	"books-admin/internal/shared/model"
	"books-admin/internal/shared/storage"
	"books-admin/internal/shared/validate"
)

// Handler 认证与用户 HTTP 处理器
type Handler struct {
	store storage.UserStore
	cfg   Config

	// dummyHash 未知邮箱时也要比较一次的占位哈希，
	// 抹平与密码错误路径之间的耗时差
	dummyHash string
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, cfg Config) *Handler {
	b := make([]byte, 16)
	rand.Read(b)
	dummy, err := HashPassword(cfg, hex.EncodeToString(b))
	if err != nil {
		// bcrypt 成本非法时退回一个固定哈希（"password" cost 10）
		dummy = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	}
	return &Handler{store: store, cfg: cfg, dummyHash: dummy}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/auth/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/v1/auth/profile", h.UpdateProfile)
	mux.HandleFunc("POST /api/v1/auth/change-password", h.ChangePassword)
	mux.HandleFunc("GET /api/v1/auth/users", h.ListUsers)
}

// registerInput 注册请求体
type registerInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// authResponse 注册/登录/刷新的统一响应体
type authResponse struct {
	User   *model.User `json:"user"`
	Tokens *TokenPair  `json:"tokens"`
}

// Register POST /api/v1/auth/register
//
// 用户名与邮箱分别预检，冲突消息按字段区分。角色默认 user；
// 显式请求 admin 时照办但记录警告，常规管理员供给走启动引导。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(in.Password) < 6 {
		respond.Validation(w, validate.Errors{{Field: "password", Message: "password must be at least 6 characters"}})
		return
	}

	role := model.UserRoleUser
	if in.Role == string(model.UserRoleAdmin) {
		role = model.UserRoleAdmin
		log.Printf("[auth] WARNING: admin role granted at registration for %q", in.Username)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        generateUserID(),
		Username:  in.Username,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate.Struct(user); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			respond.Validation(w, verrs)
			return
		}
		respond.Internal(w, err)
		return
	}

	if existing, err := h.store.GetUserByUsername(r.Context(), user.Username); err != nil {
		respond.Internal(w, err)
		return
	} else if existing != nil {
		respond.Error(w, http.StatusConflict, "username already taken")
		return
	}
	if existing, err := h.store.GetUserByEmail(r.Context(), user.Email); err != nil {
		respond.Internal(w, err)
		return
	} else if existing != nil {
		respond.Error(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := HashPassword(h.cfg, in.Password)
	if err != nil {
		respond.Internal(w, err)
		return
	}
	user.PasswordHash = hash

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			respond.Error(w, http.StatusConflict, "username or email already registered")
			return
		}
		respond.Internal(w, err)
		return
	}

	tokens, err := GenerateTokenPair(h.cfg, user)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	log.Printf("[auth] user registered: %s (%s)", user.Username, user.Role)
	respond.JSON(w, http.StatusCreated, "user registered", authResponse{User: user, Tokens: tokens})
}

// loginInput 登录请求体
type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login
//
// 未知邮箱、密码错误、账号停用一律同一条 401 消息，不泄露存在性。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		respond.Internal(w, err)
		return
	}
	hash := h.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	passwordOK := CheckPassword(in.Password, hash)
	if user == nil || !user.IsActive || !passwordOK {
		respond.Error(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return
	}

	if err := h.store.TouchLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("[auth] last_login touch failed for %s: %v", user.ID, err)
	}

	tokens, err := GenerateTokenPair(h.cfg, user)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "login successful", authResponse{User: user, Tokens: tokens})
}

// refreshInput 刷新请求体
type refreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh POST /api/v1/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		respond.Error(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	user, err := VerifyAndLoadUser(r.Context(), h.store, h.cfg, in.RefreshToken, TokenTypeRefresh)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, tokenErrorMessage(err))
		return
	}

	tokens, err := GenerateTokenPair(h.cfg, user)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "tokens refreshed", authResponse{User: user, Tokens: tokens})
}

// GetProfile GET /api/v1/auth/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())
	if user == nil {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	respond.JSON(w, http.StatusOK, "profile retrieved", user)
}

// profileInput 资料更新请求体；nil 字段保持原值
type profileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// UpdateProfile PUT /api/v1/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())
	if user == nil {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in profileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if in.Username != nil && *in.Username != user.Username {
		if existing, err := h.store.GetUserByUsername(r.Context(), *in.Username); err != nil {
			respond.Internal(w, err)
			return
		} else if existing != nil {
			respond.Error(w, http.StatusConflict, "username already taken")
			return
		}
		user.Username = *in.Username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != user.Email {
			if existing, err := h.store.GetUserByEmail(r.Context(), email); err != nil {
				respond.Internal(w, err)
				return
			} else if existing != nil {
				respond.Error(w, http.StatusConflict, "email already registered")
				return
			}
			user.Email = email
		}
	}

	if err := validate.Struct(user); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			respond.Validation(w, verrs)
			return
		}
		respond.Internal(w, err)
		return
	}

	user.UpdatedAt = time.Now().UTC()
	if err := h.store.ReplaceUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			respond.Error(w, http.StatusConflict, "username or email already registered")
			return
		}
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "profile updated", user)
}

// changePasswordInput 改密请求体
type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword POST /api/v1/auth/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())
	if user == nil {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in changePasswordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.NewPassword) < 6 {
		respond.Validation(w, validate.Errors{{Field: "newPassword", Message: "password must be at least 6 characters"}})
		return
	}

	if !CheckPassword(in.CurrentPassword, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := HashPassword(h.cfg, in.NewPassword)
	if err != nil {
		respond.Internal(w, err)
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		respond.Internal(w, err)
		return
	}

	log.Printf("[auth] password changed for %s", user.Username)
	respond.JSON(w, http.StatusOK, "password changed", nil)
}

// ListUsers GET /api/v1/auth/users （仅管理员，由中间件保障）
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respond.Internal(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "users retrieved", users)
}

// EnsureAdminUser 启动引导：按配置保证管理员账号存在
//
// 已存在（按邮箱）则不动；凭据缺失则跳过并记录。
func EnsureAdminUser(ctx context.Context, store storage.UserStore, cfg Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Printf("[auth] admin bootstrap skipped: credentials not configured")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	existing, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := HashPassword(cfg, cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &model.User{
		ID:           generateUserID(),
		Username:     cfg.AdminUsername,
		Email:        email,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		// 并发启动时另一实例可能已经创建
		if errors.Is(err, storage.ErrDuplicate) {
			return nil
		}
		return err
	}

	log.Printf("[auth] admin user bootstrapped: %s", admin.Username)
	return nil
}

// tokenErrorMessage 令牌错误的对外措辞；过期与非法内部有别，对外同级
func tokenErrorMessage(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return "token expired"
	}
	return "invalid or expired token"
}

// generateUserID 生成 usr- 前缀的唯一标识符
func generateUserID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "usr-" + hex.EncodeToString(b)
}
