package handler

import (
	"errors"
	"net/http"

	"library-backend/internal/domains/user"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const refreshCookie = "refresh_token"

// UserHandler xử lý HTTP requests cho auth/profile
type UserHandler struct {
	service      user.Service
	secureCookie bool
}

func NewUserHandler(service user.Service, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, secureCookie: secureCookie}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register - POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	dto, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/users/"+dto.ID.String())
	response.Success(c, http.StatusCreated, dto)
}

// Login - POST /auth/login, refresh token trả cả trong body và cookie HttpOnly
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setRefreshCookie(c, resp.RefreshToken)
	response.Success(c, http.StatusOK, resp)
}

// RefreshToken - POST /auth/refresh; cookie trước, body sau
func (h *UserHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		var req user.RefreshTokenRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil || req.RefreshToken == "" {
			response.Unauthorized(c, "missing refresh token")
			return
		}
		token = req.RefreshToken
	}

	resp, err := h.service.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setRefreshCookie(c, resp.RefreshToken)
	response.Success(c, http.StatusOK, resp)
}

func (h *UserHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, 7*24*3600, "/api/v1/auth", "", h.secureCookie, true)
}

// ========================================
// PROFILE / ADMIN
// ========================================

// GetProfile - GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), auth.FromContext(c.Request.Context()))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// ListUsers - GET /users (ADMIN, LIBRARIAN)
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q user.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	result, err := h.service.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result.Data, result.Meta())
}

// GetUser - GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	dto, err := h.service.GetUser(c.Request.Context(), auth.FromContext(c.Request.Context()), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// UpdateUserRole - PATCH /users/:id/role (ADMIN)
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req user.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	dto, err := h.service.UpdateUserRole(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// DeleteUser - DELETE /users/:id (ADMIN, soft delete)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), auth.FromContext(c.Request.Context()), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.ValidationError(c, verrs)
	case errors.Is(err, user.ErrInvalidCredentials):
		response.ErrorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, user.ErrInvalidToken):
		response.ErrorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", err.Error())
	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, user.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, user.ErrCannotDeleteSelf):
		response.ErrorResponse(c, http.StatusBadRequest, "CANNOT_DELETE_SELF", err.Error())
	default:
		logger.Error("[UserHandler] unexpected error", err, map[string]interface{}{"path": c.FullPath()})
		response.InternalServerError(c, "Internal server error")
	}
}
