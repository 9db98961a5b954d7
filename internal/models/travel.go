package models

import (
	"time"
)

type TravelStatus string

const (
	TravelStatusCreated         TravelStatus = "created"          // Заявка создана
	TravelStatusSearchingDriver TravelStatus = "searching_driver" // Идет поиск водителя
	TravelStatusDriverFound     TravelStatus = "driver_found"     // Водитель найден
	TravelStatusArrived         TravelStatus = "arrived"          // Водитель прибыл
	TravelStatusStarted         TravelStatus = "started"          // Поездка началась
	TravelStatusCompleted       TravelStatus = "completed"        // Поездка завершена
	TravelStatusCancelled       TravelStatus = "cancelled"        // Поездка отменена
	TravelStatusFailed          TravelStatus = "failed"           // Поездка не состоялась
)

// ValidTravelStatus проверяет, что значение входит в перечисление статусов
func ValidTravelStatus(s TravelStatus) bool {
	switch s {
	case TravelStatusCreated, TravelStatusSearchingDriver, TravelStatusDriverFound,
		TravelStatusArrived, TravelStatusStarted, TravelStatusCompleted,
		TravelStatusCancelled, TravelStatusFailed:
		return true
	}
	return false
}

// IsTerminalTravelStatus — completed, cancelled и failed являются конечными
func IsTerminalTravelStatus(s TravelStatus) bool {
	return s == TravelStatusCompleted || s == TravelStatusCancelled || s == TravelStatusFailed
}

// ActiveTravelStatuses — статусы незавершенных поездок
var ActiveTravelStatuses = []TravelStatus{
	TravelStatusCreated,
	TravelStatusSearchingDriver,
	TravelStatusDriverFound,
	TravelStatusArrived,
	TravelStatusStarted,
}

// Travel — одна поездка от создания до конечного статуса.
// Ссылки на локации и водителя обнуляются при их удалении, сама запись
// поездки не удаляется.
type Travel struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	FromLocationID       *uint      `json:"from_location_id,omitempty" gorm:"default:null"`
	FromLocation         *Location  `json:"from_location,omitempty" gorm:"foreignKey:FromLocationID;constraint:OnDelete:SET NULL"`
	ToLocationID         *uint      `json:"to_location_id,omitempty" gorm:"default:null"`
	ToLocation           *Location  `json:"to_location,omitempty" gorm:"foreignKey:ToLocationID;constraint:OnDelete:SET NULL"`
	Creator              int64      `json:"creator" gorm:"index:idx_travels_creator_created;not null"` // Telegram ID создателя
	DriverID             *uint      `json:"driver_id,omitempty" gorm:"default:null;index:idx_travels_driver_created"`
	Driver               *Driver    `json:"driver,omitempty" gorm:"foreignKey:DriverID;constraint:OnDelete:SET NULL"`
	ExpectedPrice        *float64   `json:"expected_price,omitempty" gorm:"default:null"`
	FinalPrice           *float64   `json:"final_price,omitempty" gorm:"default:null"`
	DistanceKm           *float64   `json:"distance_km,omitempty" gorm:"default:null"`
	EstimatedDurationMin *int       `json:"estimated_duration_min,omitempty" gorm:"default:null"`
	StartedAt            *time.Time `json:"started_at,omitempty" gorm:"default:null"`
	CompletedAt          *time.Time `json:"completed_at,omitempty" gorm:"default:null"`
	CreatedAt            time.Time  `json:"created_at" gorm:"autoCreateTime;index:idx_travels_creator_created;index:idx_travels_driver_created"`

	Info *TravelInfo `json:"info,omitempty" gorm:"foreignKey:TravelID"`
}

// DurationMinutes — фактическая длительность поездки в минутах
func (t *Travel) DurationMinutes() *int64 {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return nil
	}
	minutes := int64(t.CompletedAt.Sub(*t.StartedAt).Minutes())
	return &minutes
}

// TravelInfo — данные жизненного цикла поездки. Создается в одной
// транзакции с Travel и удаляется каскадно вместе с ней.
type TravelInfo struct {
	ID              uint         `json:"id" gorm:"primaryKey"`
	TravelID        uint         `json:"travel_id" gorm:"uniqueIndex;not null"`
	Travel          *Travel      `json:"-" gorm:"foreignKey:TravelID;constraint:OnDelete:CASCADE"`
	Passengers      []Passenger  `json:"-" gorm:"many2many:travel_info_passengers"`
	HasFemale       bool         `json:"has_female" gorm:"default:false"`
	Status          TravelStatus `json:"status" gorm:"type:varchar(20);default:'created';index"`
	SpecialRequests string       `json:"special_requests" gorm:"type:text"`
	DriverRating    *int         `json:"driver_rating,omitempty" gorm:"default:null"`
	PassengerRating *int         `json:"passenger_rating,omitempty" gorm:"default:null"`
	CreatedAt       time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TravelInfoResponse — данные жизненного цикла в составе ответа
type TravelInfoResponse struct {
	ID              uint                      `json:"id"`
	HasFemale       bool                      `json:"has_female"`
	Status          TravelStatus              `json:"status"`
	SpecialRequests string                    `json:"special_requests"`
	DriverRating    *int                      `json:"driver_rating"`
	PassengerRating *int                      `json:"passenger_rating"`
	Passengers      []PassengerSimpleResponse `json:"passengers"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// TravelResponse — полное представление поездки с данными жизненного цикла
type TravelResponse struct {
	ID                   uint                  `json:"id"`
	FromLocation         *LocationResponse     `json:"from_location"`
	ToLocation           *LocationResponse     `json:"to_location"`
	Creator              int64                 `json:"creator"`
	Driver               *DriverSimpleResponse `json:"driver"`
	ExpectedPrice        *float64              `json:"expected_price"`
	FinalPrice           *float64              `json:"final_price"`
	DistanceKm           *float64              `json:"distance_km"`
	EstimatedDurationMin *int                  `json:"estimated_duration_min"`
	StartedAt            *time.Time            `json:"started_at"`
	CompletedAt          *time.Time            `json:"completed_at"`
	CreatedAt            time.Time             `json:"created_at"`
	DurationMinutes      *int64                `json:"duration_minutes"`
	Info                 *TravelInfoResponse   `json:"info,omitempty"`
}

// ToResponse собирает полный ответ по поездке вместе с загруженными связями
func (t *Travel) ToResponse() TravelResponse {
	resp := TravelResponse{
		ID:                   t.ID,
		Creator:              t.Creator,
		ExpectedPrice:        t.ExpectedPrice,
		FinalPrice:           t.FinalPrice,
		DistanceKm:           t.DistanceKm,
		EstimatedDurationMin: t.EstimatedDurationMin,
		StartedAt:            t.StartedAt,
		CompletedAt:          t.CompletedAt,
		CreatedAt:            t.CreatedAt,
		DurationMinutes:      t.DurationMinutes(),
	}

	if t.FromLocation != nil {
		from := t.FromLocation.ToResponse()
		resp.FromLocation = &from
	}
	if t.ToLocation != nil {
		to := t.ToLocation.ToResponse()
		resp.ToLocation = &to
	}
	if t.Driver != nil {
		driver := t.Driver.ToSimpleResponse()
		resp.Driver = &driver
	}
	if t.Info != nil {
		passengers := make([]PassengerSimpleResponse, 0, len(t.Info.Passengers))
		for i := range t.Info.Passengers {
			passengers = append(passengers, t.Info.Passengers[i].ToSimpleResponse())
		}
		resp.Info = &TravelInfoResponse{
			ID:              t.Info.ID,
			HasFemale:       t.Info.HasFemale,
			Status:          t.Info.Status,
			SpecialRequests: t.Info.SpecialRequests,
			DriverRating:    t.Info.DriverRating,
			PassengerRating: t.Info.PassengerRating,
			Passengers:      passengers,
			CreatedAt:       t.Info.CreatedAt,
			UpdatedAt:       t.Info.UpdatedAt,
		}
	}

	return resp
}

// TravelStatsResponse — агрегированная статистика по всем поездкам
type TravelStatsResponse struct {
	TotalTravels     int64    `json:"total_travels"`
	CompletedTravels int64    `json:"completed_travels"`
	CancelledTravels int64    `json:"cancelled_travels"`
	TotalRevenue     *float64 `json:"total_revenue"`
	AverageRating    *float64 `json:"average_rating"`
}
