package catalog

import (
	"net/http"
	"strings"

	"hamarabooks/internal/httpx"
)

type HTTPHandler struct {
	catalog *Catalog
}

func NewHTTPHandler(c *Catalog) *HTTPHandler {
	return &HTTPHandler{catalog: c}
}

type bookDetail struct {
	Book
	Related []Book `json:"related"`
}

// Home handles GET /v1/home
// @Summary Landing page shelves
// @Description Bestsellers, new arrivals and the category list
// @Tags catalog
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/home [get]
func (h *HTTPHandler) Home(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.catalog.Home(), nil)
}

// List handles GET /v1/books
// @Summary List books
// @Description Filter and sort the catalog
// @Tags catalog
// @Produce json
// @Param category query string false "Category (repeatable or comma separated)"
// @Param language query string false "Language (repeatable or comma separated)"
// @Param price_min query number false "Minimum price"
// @Param price_max query number false "Maximum price"
// @Param min_rating query number false "Minimum rating"
// @Param sort query string false "title, price-low, price-high, rating, popularity, newest" default(title)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	books := h.catalog.List(f)
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Get handles GET /v1/books/{id}
// @Summary Get book
// @Description Book detail with up to four related titles from the same category
// @Tags catalog
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	book, ok := h.catalog.FindByID(id)
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}
	httpx.JSONSuccess(w, r, bookDetail{Book: book, Related: h.catalog.Related(book.ID, book.Category)}, nil)
}

// Search handles GET /v1/search
// @Summary Search books
// @Description Case-insensitive match on title and author, optionally filtered
// @Tags catalog
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	books := f.Apply(h.catalog.Search(query))
	httpx.JSONSuccess(w, r, books, map[string]any{"query": query, "total": len(books)})
}

// Suggestions handles GET /v1/search/suggestions
// @Summary Type-ahead suggestions
// @Tags catalog
// @Produce json
// @Param q query string true "Partial query"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/search/suggestions [get]
func (h *HTTPHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.catalog.Suggest(r.URL.Query().Get("q")), nil)
}

// Categories handles GET /v1/categories
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/categories [get]
func (h *HTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.catalog.Categories(), nil)
}

// Authors handles GET /v1/authors
// @Summary List authors
// @Tags catalog
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/authors [get]
func (h *HTTPHandler) Authors(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.catalog.Authors(), nil)
}

func parseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter", []httpx.ErrorDetail{
			{Field: "query", Message: err.Error()},
		})
		return Filter{}, false
	}
	return f, true
}
