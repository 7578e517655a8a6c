package history

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// MockService реализует интерфейс history.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) PriceHistory(ctx context.Context, id int, username string) ([]*models.PriceHistory, error) {
	args := m.Called(ctx, id, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PriceHistory), args.Error(1)
}

func TestHistoryHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		username       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешное получение истории",
			id:       "5",
			username: "testuser",
			setupMock: func(m *MockService) {
				m.On("PriceHistory", mock.Anything, 5, "testuser").
					Return([]*models.PriceHistory{
						{ID: 2, SubscriptionID: 5, OldPrice: 18, NewPrice: 22, CreatedAt: time.Now()},
						{ID: 1, SubscriptionID: 5, OldPrice: 15, NewPrice: 18, CreatedAt: time.Now().Add(-time.Hour)},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"history_count":2`,
		},
		{
			name:     "пустая история существующей подписки",
			id:       "5",
			username: "testuser",
			setupMock: func(m *MockService) {
				m.On("PriceHistory", mock.Anything, 5, "testuser").
					Return([]*models.PriceHistory{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"history_count":0`,
		},
		{
			name:     "подписка не найдена",
			id:       "99",
			username: "testuser",
			setupMock: func(m *MockService) {
				m.On("PriceHistory", mock.Anything, 99, "testuser").
					Return(nil, repository.ErrSubscriptionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"subscription not found"}`,
		},
		{
			name:           "некорректный id в url",
			id:             "abc",
			username:       "testuser",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode id from url"}`,
		},
		{
			name:           "отсутствует авторизация",
			id:             "5",
			username:       "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/"+tt.id+"/history", nil)
			ctx := context.WithValue(req.Context(), middlewarectx.User, tt.username)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
