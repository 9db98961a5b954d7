package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/bovaqulov/ridemain/internal/services/travel"
	"github.com/gin-gonic/gin"
)

// parseIDParam читает числовой id из пути
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат id"})
		return 0, false
	}
	return uint(id), true
}

// travelError переводит ошибки менеджера жизненного цикла в HTTP-статусы
func travelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, travel.ErrTravelNotFound),
		errors.Is(err, travel.ErrLocationNotFound),
		errors.Is(err, travel.ErrDriverNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, travel.ErrInvalidStatus),
		errors.Is(err, travel.ErrInvalidRating),
		errors.Is(err, travel.ErrInvalidRatedBy):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при выполнении операции"})
	}
}

// Создание новой поездки
func TravelCreate(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FromLocationID       uint     `json:"from_location_id" binding:"required"`
			ToLocationID         uint     `json:"to_location_id" binding:"required"`
			Creator              int64    `json:"creator" binding:"required"`
			ExpectedPrice        *float64 `json:"expected_price"`
			DistanceKm           *float64 `json:"distance_km"`
			EstimatedDurationMin *int     `json:"estimated_duration_min"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		created, err := svc.Create(c.Request.Context(), travel.CreateInput{
			FromLocationID:       req.FromLocationID,
			ToLocationID:         req.ToLocationID,
			Creator:              req.Creator,
			ExpectedPrice:        req.ExpectedPrice,
			DistanceKm:           req.DistanceKm,
			EstimatedDurationMin: req.EstimatedDurationMin,
		})
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusCreated, created.ToResponse())
	}
}

// Получение поездки по id
func TravelGetByID(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		found, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, found.ToResponse())
	}
}

// listFilterFromQuery собирает фильтр выборки из query-параметров
func listFilterFromQuery(c *gin.Context) (travel.ListFilter, bool) {
	filter := travel.ListFilter{}

	if raw := c.Query("creator"); raw != "" {
		creator, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат параметра creator"})
			return filter, false
		}
		filter.Creator = &creator
	}
	if raw := c.Query("driver_id"); raw != "" {
		driverID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат параметра driver_id"})
			return filter, false
		}
		id := uint(driverID)
		filter.DriverID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TravelStatus(raw)
		if !models.ValidTravelStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый статус поездки"})
			return filter, false
		}
		filter.Status = &status
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	return filter, true
}

// Список поездок с фильтрацией
func TravelList(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := listFilterFromQuery(c)
		if !ok {
			return
		}

		travels, err := svc.List(c.Request.Context(), filter)
		if err != nil {
			travelError(c, err)
			return
		}

		response := make([]models.TravelResponse, 0, len(travels))
		for i := range travels {
			response = append(response, travels[i].ToResponse())
		}
		c.JSON(http.StatusOK, response)
	}
}

// Обновление статуса поездки
func TravelUpdateStatus(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req struct {
			Status models.TravelStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		updated, err := svc.UpdateStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.ToResponse())
	}
}

// Назначение водителя на поездку
func TravelAssignDriver(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req struct {
			DriverID uint `json:"driver_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		updated, err := svc.AssignDriver(c.Request.Context(), id, req.DriverID)
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.ToResponse())
	}
}

// Добавление пассажиров в поездку
func TravelAddPassengers(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req struct {
			PassengerIDs []int64 `json:"passenger_ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if len(req.PassengerIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Поле passenger_ids обязательно"})
			return
		}

		updated, err := svc.AddPassengers(c.Request.Context(), id, req.PassengerIDs)
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.ToResponse())
	}
}

// Оценка поездки
func TravelRate(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req struct {
			Rating  int    `json:"rating" binding:"required"`
			RatedBy string `json:"rated_by" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		updated, err := svc.Rate(c.Request.Context(), id, req.Rating, travel.RatedBy(req.RatedBy))
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.ToResponse())
	}
}

// Завершение поездки
func TravelComplete(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req struct {
			FinalPrice *float64 `json:"final_price"`
		}
		// Пустое тело допустимо — final_price необязателен
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		updated, err := svc.Complete(c.Request.Context(), id, req.FinalPrice)
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.ToResponse())
	}
}

// Отмена поездки
func TravelCancel(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		updated, err := svc.Cancel(c.Request.Context(), id)
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.ToResponse())
	}
}

// Статистика по всем поездкам
func TravelStats(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			travelError(c, err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// Поездки по создателю
func TravelsByCreator(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("creator_id")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Параметр creator_id обязателен"})
			return
		}
		creator, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат параметра creator_id"})
			return
		}

		travels, err := svc.List(c.Request.Context(), travel.ListFilter{Creator: &creator})
		if err != nil {
			travelError(c, err)
			return
		}

		response := make([]models.TravelResponse, 0, len(travels))
		for i := range travels {
			response = append(response, travels[i].ToResponse())
		}
		c.JSON(http.StatusOK, response)
	}
}

// Поездки по водителю
func TravelsByDriver(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("driver_id")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Параметр driver_id обязателен"})
			return
		}
		driverID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат параметра driver_id"})
			return
		}
		id := uint(driverID)

		travels, err := svc.List(c.Request.Context(), travel.ListFilter{DriverID: &id})
		if err != nil {
			travelError(c, err)
			return
		}

		response := make([]models.TravelResponse, 0, len(travels))
		for i := range travels {
			response = append(response, travels[i].ToResponse())
		}
		c.JSON(http.StatusOK, response)
	}
}

// Незавершенные поездки
func TravelsActive(svc *travel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		travels, err := svc.List(c.Request.Context(), travel.ListFilter{OnlyActive: true})
		if err != nil {
			travelError(c, err)
			return
		}

		response := make([]models.TravelResponse, 0, len(travels))
		for i := range travels {
			response = append(response, travels[i].ToResponse())
		}
		c.JSON(http.StatusOK, response)
	}
}
