package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"books-admin/internal/apiserver/respond"
	"books-admin/internal/shared/storage"
	"books-admin/internal/shared/validate"
)

// Handler 图书 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建图书处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册图书相关路由
//
// 字面量段优先于通配段，/books/stats 等专用路径与 /books/{id} 并存。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/books", h.ListBooks)
	mux.HandleFunc("POST /api/v1/books", h.CreateBook)
	mux.HandleFunc("GET /api/v1/books/search", h.SearchBooks)
	mux.HandleFunc("GET /api/v1/books/stats", h.BookStats)
	mux.HandleFunc("GET /api/v1/books/count", h.CountBooks)
	mux.HandleFunc("GET /api/v1/books/isbn/{isbn}", h.GetBookByISBN)
	mux.HandleFunc("GET /api/v1/books/genre/{genre}", h.ListBooksByGenre)
	mux.HandleFunc("GET /api/v1/books/author/{author}", h.ListBooksByAuthor)
	mux.HandleFunc("GET /api/v1/books/{id}", h.GetBook)
	mux.HandleFunc("PUT /api/v1/books/{id}", h.UpdateBook)
	mux.HandleFunc("PATCH /api/v1/books/{id}", h.UpdateBook)
	mux.HandleFunc("PATCH /api/v1/books/{id}/stock", h.UpdateBookStock)
	mux.HandleFunc("DELETE /api/v1/books/{id}", h.DeleteBook)
	mux.HandleFunc("DELETE /api/v1/books/{id}/permanent", h.DeleteBookPermanent)
}

// ListBooks GET /api/v1/books
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, r.URL.Query())
}

// SearchBooks GET /api/v1/books/search?q=
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if !params.Has("q") {
		respond.Error(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	params.Set(paramSearch, params.Get("q"))
	h.respondList(w, r, params)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, params url.Values) {
	result, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.Page(w, "books retrieved", result.Books, result.Pagination, listMeta(result))
}

// ListBooksByGenre GET /api/v1/books/genre/{genre}
func (h *Handler) ListBooksByGenre(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListByGenre(r.Context(), r.PathValue("genre"), r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.Page(w, "books retrieved", result.Books, result.Pagination, nil)
}

// ListBooksByAuthor GET /api/v1/books/author/{author}
func (h *Handler) ListBooksByAuthor(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListByAuthor(r.Context(), r.PathValue("author"), r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.Page(w, "books retrieved", result.Books, result.Pagination, nil)
}

// GetBook GET /api/v1/books/{id}
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "book retrieved", b)
}

// GetBookByISBN GET /api/v1/books/isbn/{isbn}
//
// GET 模式同时匹配 HEAD，存在性探测无需单独注册。
func (h *Handler) GetBookByISBN(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetByISBN(r.Context(), r.PathValue("isbn"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "book retrieved", b)
}

// BookStats GET /api/v1/books/stats
func (h *Handler) BookStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "statistics retrieved", stats)
}

// CountBooks GET /api/v1/books/count
func (h *Handler) CountBooks(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Count(r.Context(), r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "count retrieved", map[string]int64{"count": total})
}

// CreateBook POST /api/v1/books
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "book created", b)
}

// UpdateBook PUT/PATCH /api/v1/books/{id}
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "book updated", b)
}

// UpdateBookStock PATCH /api/v1/books/{id}/stock
func (h *Handler) UpdateBookStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Quantity == nil {
		respond.Error(w, http.StatusBadRequest, "quantity is required")
		return
	}
	b, err := h.svc.UpdateStock(r.Context(), r.PathValue("id"), *in.Quantity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "stock updated", b)
}

// DeleteBook DELETE /api/v1/books/{id} （软删除）
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.SoftDelete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "book discontinued", b)
}

// DeleteBookPermanent DELETE /api/v1/books/{id}/permanent
func (h *Handler) DeleteBookPermanent(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.svc.HardDelete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "book permanently deleted", receipt)
}

// respondError 将服务层错误映射为 HTTP 状态
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		respond.Validation(w, verrs)
	case errors.Is(err, storage.ErrInvalidID):
		respond.Error(w, http.StatusBadRequest, "invalid book id")
	case errors.Is(err, ErrStockNegative):
		respond.Error(w, http.StatusBadRequest, "insufficient stock for this adjustment")
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "book not found")
	case errors.Is(err, storage.ErrDuplicate):
		respond.Error(w, http.StatusConflict, "a book with this ISBN already exists")
	default:
		respond.Internal(w, err)
	}
}

// listMeta 把生效的过滤与排序回显给调用方
func listMeta(result *ListResult) map[string]any {
	filters := make(map[string]any)
	for _, c := range result.Filter {
		switch {
		case c.GTE != nil || c.LTE != nil:
			rng := make(map[string]float64)
			if c.GTE != nil {
				rng["gte"] = *c.GTE
			}
			if c.LTE != nil {
				rng["lte"] = *c.LTE
			}
			filters[c.Field] = rng
		case c.EqNum != nil:
			filters[c.Field] = *c.EqNum
		case c.Contains != "":
			filters[c.Field] = c.Contains
		default:
			filters[c.Field] = c.Eq
		}
	}

	sorts := make([]string, 0, len(result.Sort))
	for _, sf := range result.Sort {
		if sf.Desc {
			sorts = append(sorts, "-"+sf.Field)
		} else {
			sorts = append(sorts, sf.Field)
		}
	}

	meta := map[string]any{"filters": filters, "sort": sorts}
	if !result.Search.Empty() {
		meta["search"] = result.Search.Term
	}
	return meta
}
