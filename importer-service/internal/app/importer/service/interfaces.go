package service

import "context"

// ImageFetcher получает бинарное содержимое изображения по URL
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// MessagePublisher отправляет события импорта в брокер сообщений
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
