package auth

import (
	"net/http"
	"strings"

	"books-admin/internal/apiserver/respond"
	"books-admin/internal/shared/model"
	"books-admin/internal/shared/storage"
)

// Middleware 认证中间件
//
// 读路径与认证入口匿名放行；其余请求要求有效 access 令牌，
// 验证通过后把实时加载的用户写入请求上下文。管理员专属路径
// 额外做角色检查：无身份 → 401，角色不符 → 403。
func Middleware(store storage.UserStore, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r) {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := VerifyAndLoadUser(r.Context(), store, cfg, token, TokenTypeAccess)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, tokenErrorMessage(err))
				return
			}

			if requiresAdmin(r) && user.Role != model.UserRoleAdmin {
				respond.Error(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// isPublicRoute 匿名可达的路径
func isPublicRoute(r *http.Request) bool {
	path := r.URL.Path

	switch path {
	case "/health", "/metrics",
		"/api/v1/auth/register", "/api/v1/auth/login", "/api/v1/auth/refresh":
		return true
	}

	// 图书读路径开放，写路径一律要求认证
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		if path == "/api/v1/books" || strings.HasPrefix(path, "/api/v1/books/") {
			return true
		}
	}
	return false
}

// requiresAdmin 管理员专属路径
func requiresAdmin(r *http.Request) bool {
	if r.Method == http.MethodDelete &&
		strings.HasPrefix(r.URL.Path, "/api/v1/books/") &&
		strings.HasSuffix(r.URL.Path, "/permanent") {
		return true
	}
	return r.Method == http.MethodGet && r.URL.Path == "/api/v1/auth/users"
}

// bearerToken 从 Authorization 头提取 Bearer 令牌
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
