package routes

import (
	"github.com/bovaqulov/ridemain/internal/handlers"
	"github.com/bovaqulov/ridemain/internal/middleware"
	"github.com/bovaqulov/ridemain/internal/services/location"
	"github.com/bovaqulov/ridemain/internal/services/travel"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services — сервисы, разделяемые обработчиками
type Services struct {
	Travel   *travel.Service
	Location *location.Store
}

func SetupRoutes(api *gin.RouterGroup, db *gorm.DB, svc Services) {
	// Публичные маршруты (только чтение)
	api.GET("/travels", handlers.TravelList(svc.Travel))
	api.GET("/travels/stats", handlers.TravelStats(svc.Travel))
	api.GET("/travels/by-creator", handlers.TravelsByCreator(svc.Travel))
	api.GET("/travels/by-driver", handlers.TravelsByDriver(svc.Travel))
	api.GET("/travels/active", handlers.TravelsActive(svc.Travel))
	api.GET("/travels/:id", handlers.TravelGetByID(svc.Travel))

	api.GET("/passengers/stats", handlers.PassengerStats(db))
	api.GET("/passengers/active", handlers.PassengerGetActive(db))
	api.GET("/passengers/:telegram_id", handlers.PassengerGetByTelegramID(db))

	api.GET("/drivers/stats", handlers.DriverStats(db))
	api.GET("/drivers/:telegram_id", handlers.DriverGetByTelegramID(db))
	api.GET("/drivers/:telegram_id/roads", handlers.DriverGetRoads(db))

	api.GET("/cars", handlers.CarList(db))
	api.GET("/cars/:id", handlers.CarGetByID(db))

	api.GET("/locations/user-locations/:telegram_id", handlers.LocationUserLocations(svc.Location))
	api.GET("/locations/user-latest/:telegram_id", handlers.LocationUserLatest(svc.Location))
	api.GET("/locations/:id", handlers.LocationGetByID(svc.Location))

	// Защищенные маршруты (требуют административного токена)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth())
	{
		// Жизненный цикл поездок
		protected.POST("/travels", handlers.TravelCreate(svc.Travel))
		protected.POST("/travels/:id/update-status", handlers.TravelUpdateStatus(svc.Travel))
		protected.POST("/travels/:id/assign-driver", handlers.TravelAssignDriver(svc.Travel))
		protected.POST("/travels/:id/add-passengers", handlers.TravelAddPassengers(svc.Travel))
		protected.POST("/travels/:id/rate", handlers.TravelRate(svc.Travel))
		protected.POST("/travels/:id/complete", handlers.TravelComplete(svc.Travel))
		protected.POST("/travels/:id/cancel", handlers.TravelCancel(svc.Travel))

		// Реестр пассажиров
		protected.POST("/passengers", handlers.PassengerCreate(db))
		protected.PUT("/passengers/:telegram_id", handlers.PassengerUpdate(db))
		protected.DELETE("/passengers/:telegram_id", handlers.PassengerDelete(db))
		protected.POST("/passengers/:telegram_id/update-rating", handlers.PassengerUpdateRating(db))
		protected.POST("/passengers/:telegram_id/increment-trips", handlers.PassengerIncrementTrips(db))
		protected.POST("/passengers/:telegram_id/toggle-active", handlers.PassengerToggleActive(db))
		protected.POST("/passengers/bulk-update-status", handlers.PassengerBulkUpdateStatus(db))

		// Реестр водителей
		protected.POST("/drivers", handlers.DriverCreate(db))
		protected.PUT("/drivers/:telegram_id", handlers.DriverUpdate(db))
		protected.DELETE("/drivers/:telegram_id", handlers.DriverDelete(db))
		protected.POST("/drivers/:telegram_id/update-status", handlers.DriverUpdateStatus(db))
		protected.POST("/drivers/:telegram_id/update-rating", handlers.DriverUpdateRating(db))
		protected.POST("/drivers/:telegram_id/verify", handlers.DriverVerify(db))
		protected.POST("/drivers/:telegram_id/assign-car", handlers.DriverAssignCar(db))
		protected.POST("/drivers/:telegram_id/location", handlers.DriverUpdateLocation(db, svc.Location))
		protected.POST("/drivers/:telegram_id/roads", handlers.DriverSetRoad(db))

		// Машины
		protected.POST("/cars", handlers.CarCreate(db))

		// Локации
		protected.POST("/locations/create-user-location", handlers.LocationCreateUserLocation(svc.Location))
		protected.DELETE("/locations/delete-user-locations/:telegram_id", handlers.LocationDeleteUserLocations(svc.Location))
		protected.PUT("/locations/:id/availability", handlers.LocationSetAvailability(svc.Location))
	}
}
