// Package validate 独立的结构体校验层
//
// 校验规则通过 struct tag 声明（go-playground/validator），但校验本身
// 在服务层操作触库前作为独立步骤执行，返回字段级错误列表。
// 自定义规则：
//   - isbn: 规范化后需符合 ISBN-10 或 ISBN-13 形状
//   - genre: 固定分类枚举
//   - pubyear: 出版年份不得超过当前年份 + 1
//   - bookstatus: active|inactive|discontinued
package validate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"books-admin/internal/shared/model"
)

var validate *validator.Validate

var (
	isbn10Re = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Re = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("isbn", validISBN)
	validate.RegisterValidation("genre", validGenre)
	validate.RegisterValidation("pubyear", validPubYear)
	validate.RegisterValidation("bookstatus", validBookStatus)
}

func validISBN(fl validator.FieldLevel) bool {
	isbn := model.NormalizeISBN(fl.Field().String())
	return isbn10Re.MatchString(isbn) || isbn13Re.MatchString(isbn)
}

func validGenre(fl validator.FieldLevel) bool {
	return model.ValidGenre(fl.Field().String())
}

func validPubYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year()+1)
}

func validBookStatus(fl validator.FieldLevel) bool {
	return model.ValidBookStatus(fl.Field().String())
}

// FieldError 单个字段的违规信息
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors 字段级校验错误集合，实现 error 接口
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e[0].Field, e[0].Message)
}

// Struct 校验结构体，返回 Errors 或 nil
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return out
}

// messageFor 将 validator tag 转换为可读的错误信息
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "alphanum":
		return "must contain only letters and digits"
	case "isbn":
		return "must be a valid ISBN-10 or ISBN-13"
	case "genre":
		return "must be one of the supported genres"
	case "pubyear":
		return fmt.Sprintf("must not exceed %d", time.Now().Year()+1)
	case "bookstatus":
		return "must be one of active, inactive, discontinued"
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
