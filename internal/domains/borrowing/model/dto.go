package model

import (
	"errors"
	"strings"
	"time"

	"library-backend/internal/shared/pagination"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// dueDate nhận "YYYY-MM-DD" (đầu ngày theo location cấu hình) hoặc RFC3339
const dateLayout = "2006-01-02"

// ========================================
// REQUEST DTOs
// ========================================

// CreateBorrowRequest - POST /borrowing
type CreateBorrowRequest struct {
	BookID  string `json:"bookId"`
	DueDate string `json:"dueDate"`
}

// Validate: dueDate phải sau now và không quá maxLoanDays ngày
func (r CreateBorrowRequest) Validate(now time.Time, maxLoanDays int, loc *time.Location) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required, is.UUID),
		validation.Field(&r.DueDate, validation.Required, validation.By(func(value interface{}) error {
			due, err := ParseDate(value.(string), loc)
			if err != nil {
				return errors.New("must be a date (YYYY-MM-DD) or RFC3339 timestamp")
			}
			if !due.After(now) {
				return errors.New("must be in the future")
			}
			if due.After(now.AddDate(0, 0, maxLoanDays)) {
				return validation.NewError("validation_due_date_max", "must be within the maximum loan period")
			}
			return nil
		})),
	)
}

// Params dùng sau Validate, lỗi parse đã được loại trừ
func (r CreateBorrowRequest) Params(userID uuid.UUID, loc *time.Location) CreateParams {
	due, _ := ParseDate(r.DueDate, loc)
	return CreateParams{
		ID:      uuid.New(),
		UserID:  userID,
		BookID:  uuid.MustParse(r.BookID),
		DueDate: due,
	}
}

// ParseDate: "YYYY-MM-DD" theo loc, hoặc RFC3339
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// UpdateBorrowRequest - PATCH /borrowing/:id
type UpdateBorrowRequest struct {
	Status     *string    `json:"status"`
	ReturnDate *time.Time `json:"returnDate"`
}

func (r UpdateBorrowRequest) Validate(now time.Time) error {
	if r.Status == nil && r.ReturnDate == nil {
		return validation.Errors{"status": errors.New("status or returnDate is required")}
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.By(knownStatus)),
		validation.Field(&r.ReturnDate, validation.By(func(value interface{}) error {
			t, _ := value.(*time.Time)
			if t != nil && t.After(now) {
				return errors.New("must not be in the future")
			}
			return nil
		})),
	)
}

// knownStatus: rỗng thì bỏ qua, còn lại phải là một Status hợp lệ
func knownStatus(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil || validation.IsEmpty(v) {
		return nil
	}
	if s, ok := v.(string); ok && Status(s).IsValid() {
		return nil
	}
	return validation.NewError("validation_status_invalid", "must be one of BORROWED, OVERDUE, RETURNED")
}

// TargetStatus trả "" khi patch không đổi status
func (r UpdateBorrowRequest) TargetStatus() Status {
	if r.Status == nil {
		return ""
	}
	return Status(*r.Status)
}

// ReturnBorrowRequest - POST /borrowing/:id/return, body optional
type ReturnBorrowRequest struct {
	ReturnDate *time.Time `json:"returnDate"`
}

// ListBorrowsQuery - GET /borrowing?status=&userId=&bookId=&page=&limit=
type ListBorrowsQuery struct {
	Status string `form:"status"`
	UserID string `form:"userId"`
	BookID string `form:"bookId"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (q ListBorrowsQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Status, validation.By(knownStatus)),
		validation.Field(&q.UserID, is.UUID),
		validation.Field(&q.BookID, is.UUID),
	)
}

func (q ListBorrowsQuery) Filter(p pagination.Params) ListFilter {
	f := ListFilter{Offset: p.Offset, Limit: p.Limit}
	if q.Status != "" {
		s := Status(q.Status)
		f.Status = &s
	}
	if q.UserID != "" {
		id := uuid.MustParse(q.UserID)
		f.UserID = &id
	}
	if q.BookID != "" {
		id := uuid.MustParse(q.BookID)
		f.BookID = &id
	}
	return f
}
