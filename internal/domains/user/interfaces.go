package user

import (
	"context"

	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"

	"github.com/google/uuid"
)

// Repository - data access cho bảng users
type Repository interface {
	Create(ctx context.Context, u *User) error
	// FindByEmail bỏ qua user đã xóa
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// List chỉ trả user chưa xóa, mới nhất trước
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
}

// Service - business logic của auth/profile
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error)
	GetProfile(ctx context.Context, caller *auth.Identity) (*ProfileResponse, error)

	// Staff
	ListUsers(ctx context.Context, q ListUsersQuery) (pagination.Result[UserDTO], error)
	// GetUser: chính mình hoặc ADMIN/LIBRARIAN
	GetUser(ctx context.Context, caller *auth.Identity, id uuid.UUID) (*UserDTO, error)

	// Admin
	UpdateUserRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*UserDTO, error)
	DeleteUser(ctx context.Context, caller *auth.Identity, id uuid.UUID) error

	// ActiveRole dùng cho auth middleware
	ActiveRole(ctx context.Context, id uuid.UUID) (auth.Role, error)
}
