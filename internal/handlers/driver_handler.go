package handlers

import (
	"errors"
	"net/http"

	"github.com/bovaqulov/ridemain/internal/db"
	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/bovaqulov/ridemain/internal/services/location"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// findDriver ищет водителя по telegram_id, 404 при отсутствии
func findDriver(c *gin.Context, database *gorm.DB, telegramID int64) (*models.Driver, bool) {
	var driver models.Driver
	if err := database.Where("telegram_id = ?", telegramID).First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Водитель не найден"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске водителя"})
		}
		return nil, false
	}
	return &driver, true
}

// Регистрация нового водителя
func DriverCreate(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TelegramID int64  `json:"telegram_id" binding:"required"`
			Name       string `json:"name" binding:"required"`
			Contact    string `json:"contact" binding:"required"`
			CarID      *uint  `json:"car_id"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driver := models.Driver{
			TelegramID: req.TelegramID,
			Name:       req.Name,
			Contact:    req.Contact,
			CarID:      req.CarID,
			Status:     models.DriverStatusInactive,
			Rating:     5.0,
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			if req.CarID != nil {
				var car models.Car
				if err := tx.First(&car, *req.CarID).Error; err != nil {
					return err
				}
			}
			return tx.Create(&driver).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
				return
			}
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Водитель с таким Telegram ID уже существует"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании водителя"})
			return
		}

		c.JSON(http.StatusCreated, driver)
	}
}

// Получение водителя по Telegram ID
func DriverGetByTelegramID(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var driver models.Driver
		err := database.Where("telegram_id = ?", telegramID).
			Preload("Car").
			Preload("CurrentLocation").
			First(&driver).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Водитель не найден"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске водителя"})
			}
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// Обновление данных водителя
func DriverUpdate(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			Name    *string `json:"name"`
			Contact *string `json:"contact"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		if req.Name != nil {
			driver.Name = *req.Name
		}
		if req.Contact != nil {
			driver.Contact = *req.Contact
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(driver).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении водителя"})
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// Удаление водителя
func DriverDelete(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Delete(driver).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении водителя"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Водитель удален"})
	}
}

// Смена статуса водителя
func DriverUpdateStatus(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			Status models.DriverStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if !models.ValidDriverStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый статус водителя"})
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		driver.Status = req.Status
		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(driver).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при смене статуса"})
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// Обновление рейтинга водителя
func DriverUpdateRating(database *gorm.DB) gin.HandlerFunc {
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

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		driver.Rating = *req.Rating
		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(driver).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении рейтинга"})
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// Подтверждение водителя
func DriverVerify(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		driver.IsVerified = true
		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(driver).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подтверждении водителя"})
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// Назначение машины водителю
func DriverAssignCar(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			CarID uint `json:"car_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			var car models.Car
			if err := tx.First(&car, req.CarID).Error; err != nil {
				return err
			}
			driver.CarID = &car.ID
			return tx.Save(driver).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при назначении машины"})
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// Обновление текущей локации водителя. Точка создается в хранилище
// локаций с дедупликацией по координатам.
func DriverUpdateLocation(database *gorm.DB, store *location.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			Lat  *float64 `json:"lat" binding:"required"`
			Lng  *float64 `json:"lng" binding:"required"`
			Name string   `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		loc, _, err := store.GetOrCreate(c.Request.Context(), *req.Lat, *req.Lng, req.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при сохранении локации"})
			return
		}

		driver.CurrentLocationID = &loc.ID
		err = database.Transaction(func(tx *gorm.DB) error {
			return tx.Save(driver).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении локации"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Локация обновлена", "location": loc.ToResponse()})
	}
}

// Заявка маршрута водителя (откуда и куда он готов ехать)
func DriverSetRoad(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		var req struct {
			FromLocationID *uint `json:"from_location_id"`
			ToLocationID   *uint `json:"to_location_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		road := models.DriverRoad{
			DriverID:       driver.ID,
			FromLocationID: req.FromLocationID,
			ToLocationID:   req.ToLocationID,
			IsActive:       true,
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			// Предыдущие маршруты водителя деактивируются
			if err := tx.Model(&models.DriverRoad{}).
				Where("driver_id = ? AND is_active = ?", driver.ID, true).
				Update("is_active", false).Error; err != nil {
				return err
			}
			return tx.Create(&road).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при сохранении маршрута"})
			return
		}

		c.JSON(http.StatusCreated, road)
	}
}

// Активные маршруты водителя
func DriverGetRoads(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, ok := parseTelegramID(c)
		if !ok {
			return
		}

		driver, ok := findDriver(c, database, telegramID)
		if !ok {
			return
		}

		var roads []models.DriverRoad
		err := database.Where("driver_id = ? AND is_active = ?", driver.ID, true).
			Preload("FromLocation").
			Preload("ToLocation").
			Order("created_at DESC").
			Find(&roads).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении маршрутов"})
			return
		}

		c.JSON(http.StatusOK, roads)
	}
}

// Статистика по водителям
func DriverStats(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.DriverStatsResponse

		if err := database.Model(&models.Driver{}).Count(&stats.TotalDrivers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Driver{}).
			Where("status = ?", models.DriverStatusActive).
			Count(&stats.ActiveDrivers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Driver{}).
			Where("is_verified = ?", true).
			Count(&stats.VerifiedDrivers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Driver{}).
			Select("AVG(rating)").Row().Scan(&stats.AverageRating); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}
		if err := database.Model(&models.Driver{}).
			Select("SUM(total_trips)").Row().Scan(&stats.TotalTrips); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при подсчете статистики"})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}
