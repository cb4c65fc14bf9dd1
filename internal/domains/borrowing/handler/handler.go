package handler

import (
	"errors"
	"net/http"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/service"
	invmodel "library-backend/internal/domains/inventory/model"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Handler struct {
	service service.ServiceInterface
	sweeper service.SweeperInterface
}

func NewHandler(service service.ServiceInterface, sweeper service.SweeperInterface) *Handler {
	return &Handler{service: service, sweeper: sweeper}
}

// CreateBorrow - POST /borrowing (MEMBER)
func (h *Handler) CreateBorrow(c *gin.Context) {
	var req model.CreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	detail, err := h.service.CreateBorrow(c.Request.Context(), auth.FromContext(c.Request.Context()), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, detail)
}

// ListBorrows - GET /borrowing?status=&userId=&bookId=&page=&limit=
func (h *Handler) ListBorrows(c *gin.Context) {
	var q model.ListBorrowsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	result, err := h.service.ListBorrows(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Data, result.Meta())
}

// ListMyBorrows - GET /borrowing/me
func (h *Handler) ListMyBorrows(c *gin.Context) {
	var q model.ListBorrowsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	result, err := h.service.ListMyBorrows(c.Request.Context(), auth.FromContext(c.Request.Context()), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Data, result.Meta())
}

// GetBorrow - GET /borrowing/:id
func (h *Handler) GetBorrow(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid borrow id")
		return
	}

	detail, err := h.service.GetBorrow(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// UpdateBorrow - PATCH /borrowing/:id
func (h *Handler) UpdateBorrow(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid borrow id")
		return
	}

	var req model.UpdateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	detail, err := h.service.UpdateBorrow(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// ReturnBorrow - POST /borrowing/:id/return, body {returnDate?}
func (h *Handler) ReturnBorrow(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid borrow id")
		return
	}

	var req model.ReturnBorrowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}

	detail, err := h.service.ReturnBorrow(c.Request.Context(), id, req.ReturnDate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// RemoveBorrow - DELETE /borrowing/:id (soft delete)
func (h *Handler) RemoveBorrow(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid borrow id")
		return
	}

	if err := h.service.RemoveBorrow(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// RunSweep - POST /admin/borrowing/sweep (ADMIN)
func (h *Handler) RunSweep(c *gin.Context) {
	changed, err := h.sweeper.RunSweepNow(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"overdue": changed})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors

	switch {
	case errors.As(err, &verrs):
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeValidation, "Validation failed", verrs)
	case errors.Is(err, model.ErrUnauthenticated):
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthenticated, "Authentication required")
	case errors.Is(err, model.ErrBorrowNotFound):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeBorrowNotFound, "Borrow transaction not found")
	case errors.Is(err, model.ErrBookNotFound), errors.Is(err, model.ErrBookDeleted):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeBookNotFound, "Book not found")
	case model.IsOutOfStock(err):
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeOutOfStock, "Book is out of stock")
	case errors.Is(err, model.ErrActiveLoanExists):
		response.ErrorResponse(c, http.StatusConflict, model.ErrCodeActiveLoanExists, "You already have an active loan for this book")
	case errors.Is(err, model.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, model.ErrCodeInvalidTransition, "Invalid status transition", err.Error())
	case model.IsStoreUnavailable(err):
		logger.Error("[BorrowHandler] store unavailable", err, map[string]interface{}{"path": c.FullPath()})
		response.ServiceUnavailable(c, "Storage temporarily unavailable, please retry")
	case invmodel.IsStockInvariant(err):
		logger.Error("[BorrowHandler] stock invariant violated", err, map[string]interface{}{"path": c.FullPath()})
		response.InternalServerError(c, "Internal server error")
	default:
		logger.Error("[BorrowHandler] unexpected error", err, map[string]interface{}{"path": c.FullPath()})
		response.InternalServerError(c, "Internal server error")
	}
}
