package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeISBN 测试 ISBN 规范化
func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"连字符", "978-0-74-327356-5", "9780743273565"},
		{"空格", "978 0 74 327356 5", "9780743273565"},
		{"混合", "978-0 74-327356 5", "9780743273565"},
		{"已规范化", "9780743273565", "9780743273565"},
		{"ISBN-10 带 X", "0-306-40615-X", "030640615X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeISBN(tt.in))
		})
	}
}

// TestValidGenre 测试分类枚举
func TestValidGenre(t *testing.T) {
	assert.Len(t, Genres, 19)
	assert.True(t, ValidGenre("Fiction"))
	assert.True(t, ValidGenre("Self-Help"))
	assert.False(t, ValidGenre("fiction")) // 大小写敏感
	assert.False(t, ValidGenre("Cooking"))
}

// TestUserJSON_HidesPasswordHash 密码哈希不得出现在 JSON 输出中
func TestUserJSON_HidesPasswordHash(t *testing.T) {
	u := User{
		ID:           "usr-abc123",
		Username:     "reader1",
		Email:        "reader@example.com",
		PasswordHash: "$2a$12$secret",
		Role:         UserRoleUser,
		IsActive:     true,
	}

	data, err := json.Marshal(u)
	assert.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "secret"))
	assert.False(t, strings.Contains(string(data), "password"))
}

// TestBookJSON_FieldNames 对外字段名为 camelCase
func TestBookJSON_FieldNames(t *testing.T) {
	b := Book{ID: "book-1", Title: "T", Author: "A", Genre: "Fiction", PublishedYear: 2001, ISBN: "9780743273565", Status: BookStatusActive}

	data, err := json.Marshal(b)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"publishedYear":2001`)
	assert.Contains(t, string(data), `"createdAt"`)
}

func TestValidBookStatus(t *testing.T) {
	assert.True(t, ValidBookStatus("active"))
	assert.True(t, ValidBookStatus("discontinued"))
	assert.False(t, ValidBookStatus("deleted"))
}
