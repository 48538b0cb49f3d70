package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// ValidRole 判断角色是否合法
func ValidRole(r string) bool {
	return r == string(UserRoleAdmin) || r == string(UserRoleUser)
}

// User 用户账户
//
// Email 入库前统一转小写；Username 与 Email 均由存储层唯一索引约束。
// PasswordHash 永不参与 JSON 序列化。
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Username     string     `json:"username" bson:"username" validate:"required,alphanum,min=3,max=50"`
	Email        string     `json:"email" bson:"email" validate:"required,email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         UserRole   `json:"role" bson:"role"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}
