package repository

import (
	"fmt"
	"os"
	"path/filepath"
)

// Поддиректория для изображений товаров внутри media root
const productsMediaDir = "products"

type fileMediaStore struct {
	root string
}

// NewFileMediaStore создает файловое хранилище изображений под root директорией
func NewFileMediaStore(root string) MediaStore {
	return &fileMediaStore{root: root}
}

// Save записывает изображение в <root>/products/<filename>
// Возвращает относительный путь, который хранится на товаре
// Существующий файл с тем же именем перезаписывается
func (s *fileMediaStore) Save(filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, productsMediaDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return filepath.Join(productsMediaDir, filename), nil
}
