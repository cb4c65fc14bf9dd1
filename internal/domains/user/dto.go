package user

import (
	"time"

	"library-backend/internal/shared/auth"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ========================================
// REQUEST DTOs
// ========================================

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// bcrypt chỉ dùng 72 byte đầu
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat, validation.Length(3, 255)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (r UpdateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required,
			validation.In(string(auth.RoleAdmin), string(auth.RoleLibrarian), string(auth.RoleMember))),
	)
}

// ListUsersQuery - GET /users?role=&page=&limit=
type ListUsersQuery struct {
	Role  string `form:"role"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

func (q ListUsersQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Role,
			validation.In(string(auth.RoleAdmin), string(auth.RoleLibrarian), string(auth.RoleMember))),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0)),
	)
}

// ListFilter - điều kiện cho Repository.List, Role rỗng = mọi role
type ListFilter struct {
	Role   auth.Role
	Offset int
	Limit  int
}

// ========================================
// RESPONSE DTOs
// ========================================

type LoginResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken,omitempty"`
	ExpiresIn    int64   `json:"expiresIn"`
	User         UserDTO `json:"user"`
}

// ActiveLoan - tóm tắt khoản mượn đang mở trên trang profile
type ActiveLoan struct {
	BorrowID  string    `json:"borrowId"`
	BookID    string    `json:"bookId"`
	BookTitle string    `json:"bookTitle"`
	Status    string    `json:"status"`
	DueDate   time.Time `json:"dueDate"`
}

type ProfileResponse struct {
	UserDTO
	ActiveLoans []ActiveLoan `json:"activeLoans"`
}
