package models

import (
	"time"
)

// Passenger — пассажир. Идентифицируется внешним Telegram ID.
// Пол задается явным флагом IsFemale при регистрации.
type Passenger struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TelegramID int64     `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"type:varchar(100);not null"`
	Contact    string    `json:"contact" gorm:"type:varchar(20);unique;not null"`
	Rating     float64   `json:"rating" gorm:"default:5.0"`
	TotalTrips int       `json:"total_trips" gorm:"default:0"`
	IsActive   bool      `json:"is_active" gorm:"default:true;index"`
	IsFemale   bool      `json:"is_female" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PassengerSimpleResponse — сокращенное представление пассажира для вложенных ответов
type PassengerSimpleResponse struct {
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Contact    string `json:"contact"`
}

func (p *Passenger) ToSimpleResponse() PassengerSimpleResponse {
	return PassengerSimpleResponse{
		TelegramID: p.TelegramID,
		Name:       p.Name,
		Contact:    p.Contact,
	}
}

// PassengerStatsResponse — агрегированная статистика по пассажирам
type PassengerStatsResponse struct {
	TotalPassengers  int64    `json:"total_passengers"`
	ActivePassengers int64    `json:"active_passengers"`
	AverageRating    *float64 `json:"average_rating"`
	TotalTrips       *int64   `json:"total_trips"`
}
