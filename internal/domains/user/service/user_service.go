package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	borrowmodel "library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/user"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/pagination"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// role cache ngắn: đổi role / xóa user đều xóa key ngay
const roleCacheTTL = time.Minute

// LoanReader - phần borrowing service mà trang profile cần
type LoanReader interface {
	ListMyBorrows(ctx context.Context, caller *auth.Identity, q borrowmodel.ListBorrowsQuery) (pagination.Result[borrowmodel.BorrowDetail], error)
}

type userService struct {
	repo       user.Repository
	tokens     *jwt.Manager
	cache      cache.Cache
	loans      LoanReader
	bcryptCost int
}

func NewUserService(repo user.Repository, tokens *jwt.Manager, c cache.Cache, loans LoanReader) user.Service {
	return &userService{
		repo:       repo,
		tokens:     tokens,
		cache:      c,
		loans:      loans,
		bcryptCost: 12,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

// Register tạo MEMBER mới
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         auth.RoleMember,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("[User] registered", map[string]interface{}{"user_id": u.ID.String()})
	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		// không lộ email có tồn tại hay không
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	resp, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		logger.Warn("[User] update last login failed", map[string]interface{}{"user_id": u.ID.String(), "error": err.Error()})
	}
	return resp, nil
}

func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*user.LoginResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, user.ErrInvalidToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidToken
		}
		return nil, err
	}
	if u.IsDeleted {
		return nil, user.ErrInvalidToken
	}
	return s.issueTokens(u)
}

func (s *userService) issueTokens(u *user.User) (*user.LoginResponse, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &user.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         u.ToDTO(),
	}, nil
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, caller *auth.Identity) (*user.ProfileResponse, error) {
	if caller == nil {
		return nil, user.ErrInvalidToken
	}
	u, err := s.repo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, user.ErrUserNotFound
	}

	profile := &user.ProfileResponse{UserDTO: u.ToDTO(), ActiveLoans: []user.ActiveLoan{}}
	if s.loans == nil {
		return profile, nil
	}

	for _, status := range []borrowmodel.Status{borrowmodel.StatusBorrowed, borrowmodel.StatusOverdue} {
		res, err := s.loans.ListMyBorrows(ctx, caller, borrowmodel.ListBorrowsQuery{
			Status: string(status),
			Limit:  pagination.MaxLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("list active loans: %w", err)
		}
		for _, d := range res.Data {
			profile.ActiveLoans = append(profile.ActiveLoans, user.ActiveLoan{
				BorrowID:  d.ID.String(),
				BookID:    d.BookID.String(),
				BookTitle: d.Book.Title,
				Status:    string(d.Status),
				DueDate:   d.DueDate,
			})
		}
	}
	return profile, nil
}

// ========================================
// STAFF
// ========================================

func (s *userService) ListUsers(ctx context.Context, q user.ListUsersQuery) (pagination.Result[user.UserDTO], error) {
	if err := q.Validate(); err != nil {
		return pagination.Result[user.UserDTO]{}, err
	}

	p := pagination.Normalize(q.Page, q.Limit)
	users, total, err := s.repo.List(ctx, user.ListFilter{
		Role:   auth.Role(q.Role),
		Offset: p.Offset,
		Limit:  p.Limit,
	})
	if err != nil {
		return pagination.Result[user.UserDTO]{}, err
	}

	dtos := make([]user.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, users[i].ToDTO())
	}
	return pagination.NewResult(dtos, total, p), nil
}

func (s *userService) GetUser(ctx context.Context, caller *auth.Identity, id uuid.UUID) (*user.UserDTO, error) {
	if caller == nil {
		return nil, user.ErrInvalidToken
	}
	if caller.ID != id && !caller.HasRole(auth.RoleAdmin, auth.RoleLibrarian) {
		return nil, user.ErrForbidden
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, user.ErrUserNotFound
	}
	dto := u.ToDTO()
	return &dto, nil
}

// ========================================
// ADMIN
// ========================================

func (s *userService) UpdateUserRole(ctx context.Context, id uuid.UUID, req user.UpdateRoleRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, id, auth.Role(req.Role)); err != nil {
		return nil, err
	}
	s.forgetRole(ctx, id)

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) DeleteUser(ctx context.Context, caller *auth.Identity, id uuid.UUID) error {
	if caller != nil && caller.ID == id {
		return user.ErrCannotDeleteSelf
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.forgetRole(ctx, id)
	return nil
}

// ========================================
// AUTH MIDDLEWARE SUPPORT
// ========================================

// ActiveRole: role hiện tại trong DB; user không tồn tại hoặc đã xóa -> middleware.ErrInactiveUser
func (s *userService) ActiveRole(ctx context.Context, id uuid.UUID) (auth.Role, error) {
	key := user.RoleCacheKey(id)
	if s.cache != nil {
		var cached string
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("[User] role cache get failed", map[string]interface{}{"error": err.Error()})
		}
		if found && auth.Role(cached).IsValid() {
			return auth.Role(cached), nil
		}
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", fmt.Errorf("%w: %w", middleware.ErrInactiveUser, err)
		}
		return "", err
	}
	if u.IsDeleted {
		return "", fmt.Errorf("%w: %w", middleware.ErrInactiveUser, user.ErrUserDeleted)
	}
	if !u.Role.IsValid() {
		return "", user.ErrInvalidRole
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, string(u.Role), roleCacheTTL); err != nil {
			logger.Warn("[User] role cache set failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return u.Role, nil
}

func (s *userService) forgetRole(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, user.RoleCacheKey(id)); err != nil {
		logger.Warn("[User] role cache delete failed", map[string]interface{}{"user_id": id.String(), "error": err.Error()})
	}
}
