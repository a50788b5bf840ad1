package repository

import (
	"context"
	"fmt"
	"time"

	"techcatalog/importer-service/internal/app/importer/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type runRepository struct {
	collection *mongo.Collection
}

// NewRunRepository создает репозиторий истории прогонов импорта
// Автоматически создает индекс по started_at для выборки последних прогонов
func NewRunRepository(db *mongo.Database) RunRepository {
	collection := db.Collection("import_runs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "started_at", Value: -1},
		},
		Options: options.Index().SetName("started_at_idx"),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		// Индекс может уже существовать, работу не прерываем
		fmt.Printf("Warning: failed to create index on started_at: %v\n", err)
	}

	return &runRepository{collection: collection}
}

// Save сохраняет итог прогона импорта в MongoDB
func (r *runRepository) Save(ctx context.Context, run *entity.ImportRun) error {
	if _, err := r.collection.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to save import run: %w", err)
	}
	return nil
}
