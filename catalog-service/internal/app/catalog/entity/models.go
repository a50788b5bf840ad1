package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category представляет категорию товаров
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Product представляет товар каталога
// Таблица общая с importer-service: импортер пишет, каталог читает
type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string          `gorm:"uniqueIndex;not null" json:"name"`
	ShortDescription string          `json:"short_description"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	CategoryID       uuid.UUID       `gorm:"type:uuid;not null" json:"category_id"`
	Category         *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ImagePath        string          `json:"image_path,omitempty"`
	InStock          bool            `json:"in_stock"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductEvent представляет событие изменения товара для Kafka
type ProductEvent struct {
	EventType  string          `json:"event_type"` // PRODUCT_IMPORTED, PRODUCT_UPDATED, PRODUCT_DELETED
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uuid.UUID       `json:"category_id"`
	Timestamp  time.Time       `json:"timestamp"`
}

const (
	EventProductUpdated = "PRODUCT_UPDATED"
	EventProductDeleted = "PRODUCT_DELETED"
)
