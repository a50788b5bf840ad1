package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techcatalog/catalog-service/internal/app/catalog/entity"
	"techcatalog/catalog-service/internal/app/catalog/service"
	"techcatalog/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("catalog-handler-test", "debug", io.Discard)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogService) ListProducts(ctx context.Context, categoryFilter string, page int) (*entity.ProductListResponse, error) {
	args := m.Called(ctx, categoryFilter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductListResponse), args.Error(1)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupRouter(mockService *MockCatalogService) *gin.Engine {
	catalogHandler := NewCatalogHandler(mockService)
	authMiddleware := NewAuthMiddleware(testJWTSecret)
	return SetupRoutes(catalogHandler, authMiddleware)
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := JWTClaims{
		UserID:   uuid.NewString(),
		Email:    "manager@example.com",
		RoleName: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestListProducts_PassesCategoryAndPage(t *testing.T) {
	mockService := new(MockCatalogService)
	mockService.On("ListProducts", mock.Anything, "smartphones", 2).
		Return(&entity.ProductListResponse{
			Products:       []entity.Product{},
			Total:          13,
			Page:           2,
			Pages:          2,
			ActiveCategory: "Smartphones",
		}, nil)

	router := setupRouter(mockService)

	req, _ := http.NewRequest(http.MethodGet, "/products?category=smartphones&page=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response entity.ProductListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(13), response.Total)
	assert.Equal(t, "Smartphones", response.ActiveCategory)

	mockService.AssertExpectations(t)
}

func TestListProducts_BadPageDefaultsToFirst(t *testing.T) {
	mockService := new(MockCatalogService)
	mockService.On("ListProducts", mock.Anything, "", 1).
		Return(&entity.ProductListResponse{Page: 1, Pages: 0}, nil)

	router := setupRouter(mockService)

	req, _ := http.NewRequest(http.MethodGet, "/products?page=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestGetProduct_NotFound(t *testing.T) {
	mockService := new(MockCatalogService)
	id := uuid.New()
	mockService.On("GetProduct", mock.Anything, id).Return(nil, service.ErrProductNotFound)

	router := setupRouter(mockService)

	req, _ := http.NewRequest(http.MethodGet, "/products/"+id.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	router := setupRouter(new(MockCatalogService))

	req, _ := http.NewRequest(http.MethodGet, "/products/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAllCategories_Success(t *testing.T) {
	mockService := new(MockCatalogService)
	mockService.On("GetAllCategories", mock.Anything).Return([]entity.Category{
		{ID: uuid.New(), Name: "Laptops", CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "Smartphones", CreatedAt: time.Now()},
	}, nil)

	router := setupRouter(mockService)

	req, _ := http.NewRequest(http.MethodGet, "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response entity.CategoryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
}

func TestCreateCategory_RequiresToken(t *testing.T) {
	router := setupRouter(new(MockCatalogService))

	body, _ := json.Marshal(entity.CreateCategoryRequest{Name: "Smartphones"})
	req, _ := http.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCategory_ForbiddenForCustomer(t *testing.T) {
	router := setupRouter(new(MockCatalogService))

	body, _ := json.Marshal(entity.CreateCategoryRequest{Name: "Smartphones"})
	req, _ := http.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "customer"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateCategory_ManagerAllowed(t *testing.T) {
	mockService := new(MockCatalogService)
	mockService.On("CreateCategory", mock.Anything, mock.MatchedBy(func(r *entity.CreateCategoryRequest) bool {
		return r.Name == "Smartphones"
	})).Return(&entity.Category{ID: uuid.New(), Name: "Smartphones", CreatedAt: time.Now()}, nil)

	router := setupRouter(mockService)

	body, _ := json.Marshal(entity.CreateCategoryRequest{Name: "Smartphones"})
	req, _ := http.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "manager"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateCategory_ValidationFailure(t *testing.T) {
	router := setupRouter(new(MockCatalogService))

	// Имя короче 2 символов
	body, _ := json.Marshal(entity.CreateCategoryRequest{Name: "X"})
	req, _ := http.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "manager"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCategory_AdminOnly(t *testing.T) {
	mockService := new(MockCatalogService)
	id := uuid.New()
	mockService.On("DeleteCategory", mock.Anything, id).Return(nil)

	router := setupRouter(mockService)

	// manager не может удалять
	req, _ := http.NewRequest(http.MethodDelete, "/categories/"+id.String(), nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "manager"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// admin может
	req, _ = http.NewRequest(http.MethodDelete, "/categories/"+id.String(), nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteCategory_WithProductsConflict(t *testing.T) {
	mockService := new(MockCatalogService)
	id := uuid.New()
	mockService.On("DeleteCategory", mock.Anything, id).Return(service.ErrCategoryHasProducts)

	router := setupRouter(mockService)

	req, _ := http.NewRequest(http.MethodDelete, "/categories/"+id.String(), nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateProduct_PriceChange(t *testing.T) {
	mockService := new(MockCatalogService)
	id := uuid.New()
	updated := &entity.Product{
		ID:      id,
		Name:    "Acme Phone X",
		Price:   decimal.RequireFromString("599"),
		InStock: true,
	}
	mockService.On("UpdateProduct", mock.Anything, id, mock.AnythingOfType("*entity.UpdateProductRequest")).
		Return(updated, nil)

	router := setupRouter(mockService)

	body := []byte(`{"price":"599"}`)
	req, _ := http.NewRequest(http.MethodPut, "/products/"+id.String(), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "manager"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(new(MockCatalogService))

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "catalog-service")
}
