package handlers

import (
	"errors"
	"net/http"

	"github.com/bovaqulov/ridemain/internal/db"
	"github.com/bovaqulov/ridemain/internal/services/location"
	"github.com/gin-gonic/gin"
)

// coordinate — координаты в теле запроса
type coordinate struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// Создание отметки местоположения пользователя. Локация с такими же
// координатами не дублируется.
func LocationCreateUserLocation(store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TelegramID int64      `json:"telegram_id" binding:"required"`
			Name       string     `json:"name"`
			Coordinate coordinate `json:"coordinate" binding:"required"`
			Accuracy   *float64   `json:"accuracy"`
			LivePeriod *int       `json:"live_period"`
			Heading    *int       `json:"heading"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if req.Heading != nil && (*req.Heading < 0 || *req.Heading > 360) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Направление должно быть от 0 до 360"})
			return
		}

		userLoc, created, err := store.CreateUserLocation(c.Request.Context(), location.UserLocationInput{
			TelegramID: req.TelegramID,
			Name:       req.Name,
			Lat:        *req.Coordinate.Lat,
			Lng:        *req.Coordinate.Lng,
			Accuracy:   req.Accuracy,
			LivePeriod: req.LivePeriod,
			Heading:    req.Heading,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Локация уже существует"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании локации"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user_location":    userLoc,
			"location_created": created,
		})
	}
}

// Все отметки местоположения пользователя
func LocationUserLocations(store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		locations, err := store.UserLocations(c.Request.Context(), telegramID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении локаций"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"telegram_id": telegramID,
			"locations":   locations,
			"total_count": len(locations),
		})
	}
}

// Последняя отметка местоположения пользователя
func LocationUserLatest(store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		latest, err := store.LatestUserLocation(c.Request.Context(), telegramID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении локации"})
			return
		}
		if latest == nil {
			c.JSON(http.StatusOK, gin.H{
				"message":  "У пользователя нет отметок местоположения",
				"location": nil,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"telegram_id": telegramID,
			"location":    latest,
		})
	}
}

// Удаление всех отметок местоположения пользователя
func LocationDeleteUserLocations(store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		deleted, err := store.DeleteUserLocations(c.Request.Context(), telegramID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении локаций"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
	}
}

// Получение локации по id
func LocationGetByID(store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		loc, err := store.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, location.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Локация не найдена"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении локации"})
			return
		}

		c.JSON(http.StatusOK, loc)
	}
}

// Переключение доступности локации
func LocationSetAvailability(store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req struct {
			IsAvailable *bool `json:"is_available" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		loc, err := store.SetAvailability(c.Request.Context(), id, *req.IsAvailable)
		if err != nil {
			if errors.Is(err, location.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Локация не найдена"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении локации"})
			return
		}

		c.JSON(http.StatusOK, loc)
	}
}
