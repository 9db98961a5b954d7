package handlers

import (
	"errors"
	"net/http"

	"github.com/bovaqulov/ridemain/internal/db"
	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Регистрация машины. Госномер уникален.
func CarCreate(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name         string         `json:"name" binding:"required"`
			Model        string         `json:"model" binding:"required"`
			CarType      models.CarType `json:"car_type"`
			Color        string         `json:"color"`
			Year         *int           `json:"year"`
			LicensePlate string         `json:"license_plate" binding:"required"`
			Capacity     int            `json:"capacity"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		if req.CarType == "" {
			req.CarType = models.CarTypeStandard
		}
		if !models.ValidCarType(req.CarType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый тип машины"})
			return
		}
		if req.Year != nil && (*req.Year < 1990 || *req.Year > 2030) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Год выпуска должен быть от 1990 до 2030"})
			return
		}
		if req.Capacity == 0 {
			req.Capacity = 4
		}

		car := models.Car{
			Name:         req.Name,
			Model:        req.Model,
			CarType:      req.CarType,
			Color:        req.Color,
			Year:         req.Year,
			LicensePlate: req.LicensePlate,
			Capacity:     req.Capacity,
			IsActive:     true,
		}

		err := database.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&car).Error
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Машина с таким госномером уже существует"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании машины"})
			return
		}

		c.JSON(http.StatusCreated, car)
	}
}

// Список активных машин
func CarList(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cars []models.Car
		if err := database.Where("is_active = ?", true).
			Order("created_at DESC").
			Find(&cars).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении машин"})
			return
		}

		c.JSON(http.StatusOK, cars)
	}
}

// Получение машины по id
func CarGetByID(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var car models.Car
		if err := database.First(&car, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении машины"})
			return
		}

		c.JSON(http.StatusOK, car)
	}
}
