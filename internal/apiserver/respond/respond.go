// Package respond 统一响应信封
//
// 所有对外响应（成功与失败）都套用同一信封：
//
//	{success, message, data?, pagination?, meta?, timestamp}
//
// 失败时只有 success/message/timestamp（校验错误额外带 meta.violations）。
package respond

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"books-admin/internal/shared/query"
	"books-admin/internal/shared/validate"
)

// Envelope 统一响应信封
type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       interface{}       `json:"data,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Meta       interface{}       `json:"meta,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func write(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// JSON 成功响应
func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Page 带分页描述符的成功响应，meta 携带实际生效的过滤/排序
func Page(w http.ResponseWriter, message string, data interface{}, p query.Pagination, meta interface{}) {
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data, Pagination: &p, Meta: meta})
}

// Error 失败响应
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

// Validation 校验失败响应：422 + meta.violations 字段级错误列表
func Validation(w http.ResponseWriter, verrs validate.Errors) {
	write(w, http.StatusUnprocessableEntity, Envelope{
		Success: false,
		Message: "validation failed",
		Meta:    map[string]interface{}{"violations": verrs},
	})
}

// Internal 未识别错误：原始信息只进服务端日志，对外一律 "internal error"
func Internal(w http.ResponseWriter, err error) {
	log.Printf("[api] internal error: %v", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
