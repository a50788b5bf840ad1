package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category представляет категорию товаров
// Имена категорий уникальны без учета регистра (контроль в репозитории)
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product представляет товар каталога
// Name служит естественным ключом для upsert при импорте
type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string          `gorm:"uniqueIndex;not null" json:"name"`
	ShortDescription string          `json:"short_description"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	CategoryID       uuid.UUID       `gorm:"type:uuid;not null" json:"category_id"`
	Category         *Category       `gorm:"-" json:"category,omitempty"`
	ImagePath        string          `json:"image_path,omitempty"` // путь в media хранилище, пустая строка = без изображения
	InStock          bool            `json:"in_stock"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

// BatchRecord одна запись входного батча импорта
// Поле in_stock опционально и по умолчанию считается true
type BatchRecord struct {
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	KeyFeatures []string `json:"key_features"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url"`
	InStock     *bool    `json:"in_stock"`
}

// ProductName возвращает имя товара: title имеет приоритет над name
func (r *BatchRecord) ProductName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Stocked возвращает признак наличия, по умолчанию true
func (r *BatchRecord) Stocked() bool {
	if r.InStock == nil {
		return true
	}
	return *r.InStock
}

// ImportOutcome исход обработки одной записи батча
type ImportOutcome string

const (
	OutcomeImportedWithImage    ImportOutcome = "imported_with_image"
	OutcomeImportedWithoutImage ImportOutcome = "imported_without_image"
	OutcomeSkippedInvalid       ImportOutcome = "skipped_invalid"
	OutcomeSkippedMissingName   ImportOutcome = "skipped_missing_name"
	OutcomeFailed               ImportOutcome = "failed"
)

// RecordResult результат обработки одной записи для отчета и audit log
type RecordResult struct {
	Name     string        `json:"name,omitempty" bson:"name,omitempty"`
	Category string        `json:"category,omitempty" bson:"category,omitempty"`
	Outcome  ImportOutcome `json:"outcome" bson:"outcome"`
	Detail   string        `json:"detail,omitempty" bson:"detail,omitempty"`
}

// ImportRun итог одного прогона импорта
// Сохраняется в MongoDB для истории прогонов (best-effort)
type ImportRun struct {
	ID         uuid.UUID      `json:"id" bson:"_id"`
	SourceFile string         `json:"source_file" bson:"source_file"`
	StartedAt  time.Time      `json:"started_at" bson:"started_at"`
	FinishedAt time.Time      `json:"finished_at" bson:"finished_at"`
	Imported   int            `json:"imported" bson:"imported"`
	WithImage  int            `json:"with_image" bson:"with_image"`
	Skipped    int            `json:"skipped" bson:"skipped"`
	Failed     int            `json:"failed" bson:"failed"`
	Results    []RecordResult `json:"results" bson:"results"`
}

// Total возвращает общее количество обработанных записей
func (r *ImportRun) Total() int {
	return len(r.Results)
}

// Add учитывает результат одной записи в счетчиках прогона
func (r *ImportRun) Add(res RecordResult) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case OutcomeImportedWithImage:
		r.Imported++
		r.WithImage++
	case OutcomeImportedWithoutImage:
		r.Imported++
	case OutcomeSkippedInvalid, OutcomeSkippedMissingName:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// ProductEvent событие импорта товара для Kafka (топик product_events)
type ProductEvent struct {
	EventType  string          `json:"event_type"` // PRODUCT_IMPORTED
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uuid.UUID       `json:"category_id"`
	Timestamp  time.Time       `json:"timestamp"`
}

const EventProductImported = "PRODUCT_IMPORTED"
