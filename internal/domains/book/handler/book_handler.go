package handler

import (
	"errors"
	"net/http"

	"library-backend/internal/domains/book/model"
	service "library-backend/internal/domains/book/service"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListBooks - GET /books?title=&author=&category=&page=&limit=
func (h *Handler) ListBooks(c *gin.Context) {
	var q model.ListBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	result, err := h.service.ListBooks(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Data, result.Meta())
}

// GetBook - GET /books/:id
func (h *Handler) GetBook(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid book id")
		return
	}

	book, err := h.service.GetBook(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, book)
}

// CreateBook - POST /books
func (h *Handler) CreateBook(c *gin.Context) {
	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, book)
}

// UpdateBook - PATCH /books/:id
func (h *Handler) UpdateBook(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid book id")
		return
	}

	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	book, err := h.service.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, book)
}

// DeleteBook - DELETE /books/:id (soft delete)
func (h *Handler) DeleteBook(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid book id")
		return
	}

	if err := h.service.DeleteBook(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

var bookErrorMap = map[error]struct {
	Status int
	Code   string
}{
	model.ErrBookNotFound:     {http.StatusNotFound, "BOOK_NOT_FOUND"},
	model.ErrVersionConflict:  {http.StatusConflict, "VERSION_CONFLICT"},
	model.ErrStockBelowOnLoan: {http.StatusConflict, "STOCK_BELOW_ON_LOAN"},
	model.ErrInvalidStock:     {http.StatusBadRequest, "INVALID_STOCK"},
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		response.ValidationError(c, verrs)
		return
	}

	for target, m := range bookErrorMap {
		if errors.Is(err, target) {
			response.ErrorResponse(c, m.Status, m.Code, target.Error())
			return
		}
	}

	logger.Error("[BookHandler] unexpected error", err, map[string]interface{}{"path": c.FullPath()})
	response.InternalServerError(c, "Internal server error")
}
