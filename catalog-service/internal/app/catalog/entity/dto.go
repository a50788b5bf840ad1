package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type UpdateProductRequest struct {
	Name             string          `json:"name" validate:"omitempty,min=2,max=200"`
	ShortDescription string          `json:"short_description" validate:"omitempty,max=2000"`
	Price            decimal.Decimal `json:"price" validate:"omitempty"`
	CategoryID       uuid.UUID       `json:"category_id" validate:"omitempty"`
	InStock          *bool           `json:"in_stock" validate:"omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ProductListResponse страница товаров для витрины
// Активная категория возвращается, чтобы клиент мог подсветить фильтр
type ProductListResponse struct {
	Products       []Product `json:"products"`
	Total          int64     `json:"total"`
	Page           int       `json:"page"`
	Pages          int       `json:"pages"`
	ActiveCategory string    `json:"active_category,omitempty"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}
