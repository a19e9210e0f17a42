package blog

import (
	"errors"
	"net/http"

	"hamarabooks/internal/httpx"
)

type HTTPHandler struct {
	blog *Blog
}

func NewHTTPHandler(b *Blog) *HTTPHandler {
	return &HTTPHandler{blog: b}
}

type listResponse struct {
	Featured   *Post      `json:"featured"`
	Posts      []Post     `json:"posts"`
	Categories []Category `json:"categories"`
}

// List handles GET /v1/blog
// @Summary List blog posts
// @Description The first post of the selection is also returned as featured
// @Tags blog
// @Produce json
// @Param category query string false "Category slug or all"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/blog [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !ValidCategory(category) {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input",
			[]httpx.ErrorDetail{{Field: "category", Message: "unknown category"}})
		return
	}

	posts := h.blog.List(category)
	resp := listResponse{Posts: posts, Categories: h.blog.Categories()}
	if len(posts) > 0 {
		resp.Featured = &posts[0]
	}
	httpx.JSONSuccess(w, r, resp, map[string]any{"total": len(posts)})
}

// Get handles GET /v1/blog/{id}
// @Summary Get blog post
// @Tags blog
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/blog/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.Get(r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Post not found", nil)
		return
	}
	httpx.JSONSuccess(w, r, post, nil)
}
