package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/storage/memstore"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret-do-not-use"
	cfg.BcryptCost = 4 // 测试用最低成本
	return cfg
}

func testUser(t *testing.T, store *memstore.Store, active bool) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:        "usr-0123456789ab",
		Username:  "alice",
		Email:     "alice@example.com",
		Role:      model.UserRoleUser,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func TestPasswordHashing(t *testing.T) {
	cfg := testConfig()

	hash, err := HashPassword(cfg, "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword("s3cret-pass", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("s3cret-pass", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	u := &model.User{ID: "usr-0123456789ab", Username: "alice", Email: "alice@example.com", Role: model.UserRoleUser}

	pair, err := GenerateTokenPair(cfg, u)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(cfg.AccessTokenTTL.Seconds()), pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := ParseToken(cfg, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(model.UserRoleUser), claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.Type)

	claims, err = ParseToken(cfg, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestParseToken_Errors(t *testing.T) {
	cfg := testConfig()
	u := &model.User{ID: "usr-0123456789ab", Username: "alice", Role: model.UserRoleUser}

	t.Run("密钥不符", func(t *testing.T) {
		pair, err := GenerateTokenPair(cfg, u)
		require.NoError(t, err)

		other := cfg
		other.JWTSecret = "another-secret"
		_, err = ParseToken(other, pair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("过期令牌", func(t *testing.T) {
		expired := cfg
		expired.AccessTokenTTL = -time.Minute
		pair, err := GenerateTokenPair(expired, u)
		require.NoError(t, err)

		_, err = ParseToken(cfg, pair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("乱码", func(t *testing.T) {
		_, err := ParseToken(cfg, "not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestVerifyAndLoadUser(t *testing.T) {
	cfg := testConfig()
	ctx := context.Background()

	t.Run("正常链路", func(t *testing.T) {
		store := memstore.NewStore()
		u := testUser(t, store, true)
		pair, err := GenerateTokenPair(cfg, u)
		require.NoError(t, err)

		got, err := VerifyAndLoadUser(ctx, store, cfg, pair.AccessToken, TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("令牌类型不符", func(t *testing.T) {
		store := memstore.NewStore()
		u := testUser(t, store, true)
		pair, err := GenerateTokenPair(cfg, u)
		require.NoError(t, err)

		_, err = VerifyAndLoadUser(ctx, store, cfg, pair.RefreshToken, TokenTypeAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("用户已停用", func(t *testing.T) {
		store := memstore.NewStore()
		u := testUser(t, store, false)
		pair, err := GenerateTokenPair(cfg, u)
		require.NoError(t, err)

		_, err = VerifyAndLoadUser(ctx, store, cfg, pair.AccessToken, TokenTypeAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("用户已不存在", func(t *testing.T) {
		store := memstore.NewStore()
		u := &model.User{ID: "usr-feedfeedfeed", Username: "ghost", Role: model.UserRoleUser}
		pair, err := GenerateTokenPair(cfg, u)
		require.NoError(t, err)

		_, err = VerifyAndLoadUser(ctx, store, cfg, pair.AccessToken, TokenTypeAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestAuthUserContext(t *testing.T) {
	u := &model.User{ID: "usr-0123456789ab"}
	ctx := WithAuthUser(context.Background(), u)
	assert.Equal(t, u, GetAuthUser(ctx))
	assert.Nil(t, GetAuthUser(context.Background()))
}
