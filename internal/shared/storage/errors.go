// Package storage 定义存储层抽象与领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/memstore）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（ISBN / username / email 重复）
	ErrDuplicate = errors.New("duplicate: entity already exists")

	// ErrInvalidID 标识符格式非法（查库前的形状检查失败）
	ErrInvalidID = errors.New("invalid identifier")
)
