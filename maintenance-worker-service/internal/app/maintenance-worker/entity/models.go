package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category строка таблицы categories
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DuplicateGroup группа категорий с одним именем в разном регистре
// Canonical - самая старая запись, Duplicates подлежат слиянию в нее
type DuplicateGroup struct {
	Canonical  Category
	Duplicates []Category
}

// MergeReport итог одного прогона чистки дубликатов
type MergeReport struct {
	Groups           int       `json:"groups"`
	MergedCategories int       `json:"merged_categories"`
	MovedProducts    int64     `json:"moved_products"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// ProductEvent событие каталога из Kafka топика product_events
type ProductEvent struct {
	EventType  string          `json:"event_type"` // PRODUCT_IMPORTED, PRODUCT_UPDATED, PRODUCT_DELETED
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uuid.UUID       `json:"category_id"`
	Timestamp  time.Time       `json:"timestamp"`
}

const (
	EventProductImported = "PRODUCT_IMPORTED"
	EventProductUpdated  = "PRODUCT_UPDATED"
	EventProductDeleted  = "PRODUCT_DELETED"
)
