package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ========================================
// REQUEST DTOs
// ========================================

// CreateBookRequest - POST /books
type CreateBookRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PublishDate    time.Time `json:"publishDate"`
	Stock          int       `json:"stock"`
	AvailableStock *int      `json:"availableStock"`
	Authors        []string  `json:"authors"`
	Categories     []string  `json:"categories"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Description, validation.Required, validation.Length(2, 1000)),
		validation.Field(&r.PublishDate, validation.Required),
		validation.Field(&r.Stock, validation.Min(0)),
		validation.Field(&r.AvailableStock, validation.When(r.AvailableStock != nil,
			validation.Min(0), validation.Max(r.Stock).Error("must not exceed stock"))),
		validation.Field(&r.Authors, validation.Required, validation.Each(validation.Required, validation.Length(1, 255))),
		validation.Field(&r.Categories, validation.Required, validation.Each(validation.Required, validation.Length(1, 255))),
	)
}

// ToBook builds a new entity; availableStock defaults to stock.
func (r CreateBookRequest) ToBook() *Book {
	available := r.Stock
	if r.AvailableStock != nil {
		available = *r.AvailableStock
	}
	desc := strings.TrimSpace(r.Description)
	return &Book{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(r.Title),
		Description:    &desc,
		PublishDate:    r.PublishDate,
		Stock:          r.Stock,
		AvailableStock: available,
		Authors:        trimAll(r.Authors),
		Categories:     trimAll(r.Categories),
	}
}

// UpdateBookRequest - PATCH /books/:id, mọi field đều optional
type UpdateBookRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	PublishDate *time.Time `json:"publishDate"`
	Stock       *int       `json:"stock"`
	Authors     []string   `json:"authors"`
	Categories  []string   `json:"categories"`
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&r.Description, validation.NilOrNotEmpty, validation.Length(2, 1000)),
		validation.Field(&r.Stock, validation.When(r.Stock != nil, validation.Min(0))),
		validation.Field(&r.Authors, validation.When(r.Authors != nil, validation.Required), validation.Each(validation.Required)),
		validation.Field(&r.Categories, validation.When(r.Categories != nil, validation.Required), validation.Each(validation.Required)),
	)
}

// Apply patches b in place. Stock changes are reconciled by the repository.
func (r UpdateBookRequest) Apply(b *Book) {
	if r.Title != nil {
		b.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		b.Description = &desc
	}
	if r.PublishDate != nil {
		b.PublishDate = *r.PublishDate
	}
	if r.Stock != nil {
		b.Stock = *r.Stock
	}
	if r.Authors != nil {
		b.Authors = trimAll(r.Authors)
	}
	if r.Categories != nil {
		b.Categories = trimAll(r.Categories)
	}
}

// ListBooksQuery - GET /books?title=&author=&category=&page=&limit=
type ListBooksQuery struct {
	Title    string `form:"title"`
	Author   string `form:"author"`
	Category string `form:"category"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func (q ListBooksQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Title, validation.Length(1, 255)),
		validation.Field(&q.Author, validation.Length(1, 255)),
		validation.Field(&q.Category, validation.Length(1, 255)),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0)),
	)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
