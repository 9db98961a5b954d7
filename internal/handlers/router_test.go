package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/bovaqulov/ridemain/internal/routes"
	"github.com/bovaqulov/ridemain/internal/services/location"
	"github.com/bovaqulov/ridemain/internal/services/travel"
	"github.com/bovaqulov/ridemain/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupAPI поднимает полный маршрутизатор поверх базы в памяти и выпускает
// административный токен для защищенных маршрутов
func setupAPI(t *testing.T) (*gin.Engine, *gorm.DB, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("открытие тестовой базы: %v", err)
	}

	if err := database.AutoMigrate(
		&models.Location{},
		&models.UserLocation{},
		&models.Car{},
		&models.Driver{},
		&models.DriverRoad{},
		&models.Passenger{},
		&models.Travel{},
		&models.TravelInfo{},
	); err != nil {
		t.Fatalf("миграция тестовой базы: %v", err)
	}

	locationStore := location.NewStore(database, nil)
	svc := routes.Services{
		Travel:   travel.NewService(database),
		Location: locationStore,
	}

	router := gin.New()
	routes.SetupRoutes(router.Group("/api"), database, svc)

	token, err := utils.GenerateAdminJWT()
	if err != nil {
		t.Fatalf("выпуск токена: %v", err)
	}

	return router, database, token
}

// doRequest выполняет запрос к тестовому маршрутизатору
func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("сериализация тела запроса: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

// decodeBody разбирает JSON-ответ в произвольную структуру
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
		t.Fatalf("разбор ответа %q: %v", recorder.Body.String(), err)
	}
}
