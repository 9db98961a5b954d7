package models

import (
	"time"
)

type CarType string

const (
	CarTypeEconomy  CarType = "economy"
	CarTypeStandard CarType = "standard"
	CarTypeBusiness CarType = "business"
)

// ValidCarType проверяет значение типа машины
func ValidCarType(t CarType) bool {
	switch t {
	case CarTypeEconomy, CarTypeStandard, CarTypeBusiness:
		return true
	}
	return false
}

// Car — машина водителя. Госномер уникален.
type Car struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	Model        string    `json:"model" gorm:"type:varchar(100);not null"`
	CarType      CarType   `json:"car_type" gorm:"type:varchar(20);default:'standard'"`
	Color        string    `json:"color" gorm:"type:varchar(50)"`
	Year         *int      `json:"year,omitempty" gorm:"default:null"`
	LicensePlate string    `json:"license_plate" gorm:"type:varchar(20);unique;not null"`
	Capacity     int       `json:"capacity" gorm:"default:4"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"   // Свободен и принимает заказы
	DriverStatusInactive DriverStatus = "inactive" // Не работает
	DriverStatusBusy     DriverStatus = "busy"     // Выполняет поездку
	DriverStatusOffline  DriverStatus = "offline"  // Не в сети
)

func ValidDriverStatus(s DriverStatus) bool {
	switch s {
	case DriverStatusActive, DriverStatusInactive, DriverStatusBusy, DriverStatusOffline:
		return true
	}
	return false
}

// Driver — водитель. Идентифицируется внешним Telegram ID.
type Driver struct {
	ID                uint         `json:"id" gorm:"primaryKey"`
	TelegramID        int64        `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Name              string       `json:"name" gorm:"type:varchar(100);not null"`
	Contact           string       `json:"contact" gorm:"type:varchar(20);index;not null"`
	CarID             *uint        `json:"car_id,omitempty" gorm:"default:null"`
	Car               *Car         `json:"car,omitempty" gorm:"foreignKey:CarID;constraint:OnDelete:SET NULL"`
	Status            DriverStatus `json:"status" gorm:"type:varchar(20);default:'inactive';index"`
	Rating            float64      `json:"rating" gorm:"default:5.0;index"`
	TotalTrips        int          `json:"total_trips" gorm:"default:0"`
	IsVerified        bool         `json:"is_verified" gorm:"default:false;index"`
	CurrentLocationID *uint        `json:"current_location_id,omitempty" gorm:"default:null"`
	CurrentLocation   *Location    `json:"current_location,omitempty" gorm:"foreignKey:CurrentLocationID;constraint:OnDelete:SET NULL"`
	CreatedAt         time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// DriverRoad — заявленный маршрут водителя (откуда и куда он готов ехать).
type DriverRoad struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	DriverID          uint      `json:"driver_id" gorm:"not null;index:idx_driver_roads_driver_active"`
	Driver            Driver    `json:"-" gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
	FromLocationID    *uint     `json:"from_location_id,omitempty" gorm:"default:null;index:idx_driver_roads_from_to"`
	FromLocation      *Location `json:"from_location,omitempty" gorm:"foreignKey:FromLocationID;constraint:OnDelete:SET NULL"`
	ToLocationID      *uint     `json:"to_location_id,omitempty" gorm:"default:null;index:idx_driver_roads_from_to"`
	ToLocation        *Location `json:"to_location,omitempty" gorm:"foreignKey:ToLocationID;constraint:OnDelete:SET NULL"`
	CurrentLocationID *uint     `json:"current_location_id,omitempty" gorm:"default:null"`
	CurrentLocation   *Location `json:"current_location,omitempty" gorm:"foreignKey:CurrentLocationID;constraint:OnDelete:SET NULL"`
	IsActive          bool      `json:"is_active" gorm:"default:true;index:idx_driver_roads_driver_active"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// DriverSimpleResponse — сокращенное представление водителя для вложенных ответов
type DriverSimpleResponse struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Contact string  `json:"contact"`
	Rating  float64 `json:"rating"`
}

func (d *Driver) ToSimpleResponse() DriverSimpleResponse {
	return DriverSimpleResponse{
		ID:      d.ID,
		Name:    d.Name,
		Contact: d.Contact,
		Rating:  d.Rating,
	}
}

// DriverStatsResponse — агрегированная статистика по водителям
type DriverStatsResponse struct {
	TotalDrivers    int64    `json:"total_drivers"`
	ActiveDrivers   int64    `json:"active_drivers"`
	VerifiedDrivers int64    `json:"verified_drivers"`
	AverageRating   *float64 `json:"average_rating"`
	TotalTrips      *int64   `json:"total_trips"`
}
