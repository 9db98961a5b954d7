package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bovaqulov/ridemain/internal/db"
	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// parseTelegramID читает telegram_id из пути, 400 при неверном формате
func parseTelegramID(c *gin.Context) (int64, bool) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат Telegram ID"})
		return 0, false
	}
	return telegramID, true
}

// findPassenger ищет пассажира по telegram_id, 404 при отсутствии
func findPassenger(c *gin.Context, database *gorm.DB, telegramID int64) (*models.Passenger, bool) {
	var passenger models.Passenger
	if err := database.Where("telegram_id = ?", telegramID).First(&passenger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пассажир не найден"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске пассажира"})
		}
		return nil, false
	}
	return &passenger, true
}

// Регистрация нового пассажира
func PassengerCreate(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TelegramID int64  `json:"telegram_id" binding:"required"`
			Name       string `json:"name" binding:"required"`
			Contact    string `json:"contact" binding:"required"`
			IsFemale   bool   `json:"is_female"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		passenger := models.Passenger{
			TelegramID: req.TelegramID,
			Name:       req.Name,
			Contact:    req.Contact,
			IsFemale:   req.IsFemale,
			Rating:     5.0,
			IsActive:   true,
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&passenger).Error
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Пассажир с таким Telegram ID или контактом уже существует"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании пассажира"})
			return
		}

		c.JSON(http.StatusCreated, passenger)
	}
}

// Получение пассажира по Telegram ID
func PassengerGetByTelegramID(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		passenger, ok := findPassenger(c, database, telegramID)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, passenger)
	}
}

// Обновление данных пассажира
func PassengerUpdate(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			Name     *string `json:"name"`
			Contact  *string `json:"contact"`
			IsFemale *bool   `json:"is_female"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		passenger, ok := findPassenger(c, database, telegramID)
		if !ok {
			return
		}

		if req.Name != nil {
			passenger.Name = *req.Name
		}
		if req.Contact != nil {
			passenger.Contact = *req.Contact
		}
		if req.IsFemale != nil {
			passenger.IsFemale = *req.IsFemale
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(passenger).Error
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Контакт уже используется"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении пассажира"})
			return
		}

		c.JSON(http.StatusOK, passenger)
	}
}

// Удаление пассажира
func PassengerDelete(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		passenger, ok := findPassenger(c, database, telegramID)
		if !ok {
			return
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Delete(passenger).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении пассажира"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Пассажир удален"})
	}
}

// Обновление рейтинга пассажира
func PassengerUpdateRating(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			Rating *float64 `json:"rating" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if *req.Rating < 0 || *req.Rating > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Рейтинг должен быть от 0 до 5"})
			return
		}

		passenger, ok := findPassenger(c, database, telegramID)
		if !ok {
			return
		}

		passenger.Rating = *req.Rating
		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(passenger).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении рейтинга"})
			return
		}

		c.JSON(http.StatusOK, passenger)
	}
}

// Увеличение счетчика поездок пассажира
func PassengerIncrementTrips(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		passenger, ok := findPassenger(c, database, telegramID)
		if !ok {
			return
		}

		passenger.TotalTrips++
		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(passenger).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении счетчика поездок"})
			return
		}

		c.JSON(http.StatusOK, passenger)
	}
}

// Переключение активности пассажира
func PassengerToggleActive(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		passenger, ok := findPassenger(c, database, telegramID)
		if !ok {
			return
		}

		passenger.IsActive = !passenger.IsActive
		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(passenger).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при смене статуса"})
			return
		}

		c.JSON(http.StatusOK, passenger)
	}
}

// Статистика по пассажирам
func PassengerStats(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.PassengerStatsResponse

		if err := database.Model(&models.Passenger{}).Count(&stats.TotalPassengers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Passenger{}).
			Where("is_active = ?", true).
			Count(&stats.ActivePassengers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Passenger{}).
			Select("AVG(rating)").Row().Scan(&stats.AverageRating); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Passenger{}).
			Select("SUM(total_trips)").Row().Scan(&stats.TotalTrips); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// Список активных пассажиров
func PassengerGetActive(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var passengers []models.Passenger
		if err := database.Where("is_active = ?", true).
			Order("created_at DESC").
			Find(&passengers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении пассажиров"})
			return
		}

		c.JSON(http.StatusOK, passengers)
	}
}

// Массовое обновление активности пассажиров
func PassengerBulkUpdateStatus(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TelegramIDs []int64 `json:"telegram_ids"`
			IsActive    *bool   `json:"is_active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if len(req.TelegramIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Поле telegram_ids обязательно"})
			return
		}
		if req.IsActive == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Поле is_active обязательно"})
			return
		}

		var updated int64
		err := database.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&models.Passenger{}).
				Where("telegram_id IN ?", req.TelegramIDs).
				Update("is_active", *req.IsActive)
			updated = result.RowsAffected
			return result.Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при массовом обновлении"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"updated_count": updated,
			"is_active":     *req.IsActive,
		})
	}
}
