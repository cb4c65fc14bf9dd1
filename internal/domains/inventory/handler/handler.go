package handler

import (
	"net/http"
	"strconv"

	"library-backend/internal/domains/inventory/model"
	"library-backend/internal/domains/inventory/service"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// GetAvailability - GET /books/:id/availability
func (h *Handler) GetAvailability(c *gin.Context) {
	bookID, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid book id")
		return
	}

	availability, err := h.service.GetAvailability(c.Request.Context(), bookID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"bookId":         availability.BookID,
		"stock":          availability.Stock,
		"availableStock": availability.AvailableStock,
		"onLoan":         availability.OnLoan,
		"canBorrow":      availability.CanBorrow(),
	})
}

// ListMovements - GET /books/:id/stock-movements?page=&limit= (ADMIN, LIBRARIAN)
func (h *Handler) ListMovements(c *gin.Context) {
	bookID, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid book id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.ListMovements(c.Request.Context(), bookID, page, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Data, result.Meta())
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case model.IsBookUnavailable(err):
		response.NotFound(c, "Book not found")
	default:
		logger.Error("[InventoryHandler] unexpected error", err, map[string]interface{}{"path": c.FullPath()})
		response.InternalServerError(c, "Internal server error")
	}
}
