package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// ImageClient загружает изображения товаров по image_url
// Отвечает только за HTTP запросы; сохранение файла - забота MediaStore
type ImageClient struct {
	httpClient *http.Client
}

// NewImageClient создает HTTP клиент с ограниченным таймаутом
// Зависший сервер изображений задерживает только текущую запись батча
func NewImageClient(timeoutSec int) *ImageClient {
	return &ImageClient{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

// Fetch скачивает изображение по URL
// Любой не-2xx статус считается ошибкой
func (c *ImageClient) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("image source returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// ImageFileName выводит имя файла из URL изображения
// Берется последний сегмент пути; если его нет, имя синтезируется
// из хеша имени товара с фиксированным расширением
func ImageFileName(imageURL string, productName string) string {
	if u, err := url.Parse(imageURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" {
			return base
		}
	}

	h := fnv.New32a()
	h.Write([]byte(productName))
	return fmt.Sprintf("product_%d.jpg", h.Sum32())
}
