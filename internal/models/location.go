package models

import (
	"time"
)

// Location — каноническая географическая точка.
// Пара (lat, lng) уникальна: одинаковые координаты не создаются повторно.
type Location struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	Lat         float64   `json:"lat" gorm:"not null;uniqueIndex:idx_locations_lat_lng"`
	Lng         float64   `json:"lng" gorm:"not null;uniqueIndex:idx_locations_lat_lng"`
	IsAvailable bool      `json:"is_available" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserLocation — отметка местоположения пользователя Telegram.
type UserLocation struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	User       int64     `json:"user" gorm:"column:user;index;not null"` // Telegram ID
	LocationID uint      `json:"location_id" gorm:"not null"`
	Location   Location  `json:"location" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	Accuracy   *float64  `json:"accuracy,omitempty" gorm:"default:null"`
	LivePeriod *int      `json:"live_period,omitempty" gorm:"default:null"`
	Heading    *int      `json:"heading,omitempty" gorm:"default:null"` // Направление (0-360)
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// LocationResponse — сокращенное представление точки для вложенных ответов
type LocationResponse struct {
	ID   uint    `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (l *Location) ToResponse() LocationResponse {
	return LocationResponse{
		ID:   l.ID,
		Name: l.Name,
		Lat:  l.Lat,
		Lng:  l.Lng,
	}
}
