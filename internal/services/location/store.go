package location

import (
	"context"
	"errors"

	"github.com/bovaqulov/ridemain/internal/db"
	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/bovaqulov/ridemain/internal/services/geocode"
	"gorm.io/gorm"
)

var (
	// ErrNotFound — локация не найдена
	ErrNotFound = errors.New("локация не найдена")
)

// Store — хранилище географических точек с дедупликацией по координатам.
// Сравнение координат точное, без округления.
type Store struct {
	db       *gorm.DB
	geocoder *geocode.Client
}

// NewStore создает хранилище локаций
func NewStore(database *gorm.DB, geocoder *geocode.Client) *Store {
	return &Store{db: database, geocoder: geocoder}
}

// GetByID возвращает локацию по первичному ключу
func (s *Store) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).First(&loc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

// GetOrCreate находит локацию по точному совпадению (lat, lng) или создает
// новую. Возвращает признак того, что запись была создана этим вызовом.
// При гонке двух одинаковых созданий выигрывает ровно одно, проигравший
// получает уже существующую запись.
func (s *Store) GetOrCreate(ctx context.Context, lat, lng float64, name string) (*models.Location, bool, error) {
	return s.getOrCreate(s.db.WithContext(ctx), ctx, lat, lng, name)
}

func (s *Store) getOrCreate(tx *gorm.DB, ctx context.Context, lat, lng float64, name string) (*models.Location, bool, error) {
	var loc models.Location

	err := tx.Where("lat = ? AND lng = ?", lat, lng).First(&loc).Error
	if err == nil {
		return &loc, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if name == "" && s.geocoder != nil {
		name = s.geocoder.ReverseGeocode(ctx, lat, lng)
	}
	if name == "" {
		name = geocode.FallbackName(lat, lng)
	}

	loc = models.Location{
		Name:        name,
		Lat:         lat,
		Lng:         lng,
		IsAvailable: true,
	}

	if err := tx.Create(&loc).Error; err != nil {
		// Параллельное создание той же точки: забираем выигравшую запись
		if db.IsUniqueViolation(err) {
			var existing models.Location
			if selErr := tx.Where("lat = ? AND lng = ?", lat, lng).First(&existing).Error; selErr != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	return &loc, true, nil
}

// SetAvailability переключает доступность точки
func (s *Store) SetAvailability(ctx context.Context, id uint, available bool) (*models.Location, error) {
	var loc models.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		loc.IsAvailable = available
		return tx.Save(&loc).Error
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// UserLocationInput — данные отметки местоположения пользователя
type UserLocationInput struct {
	TelegramID int64
	Name       string
	Lat        float64
	Lng        float64
	Accuracy   *float64
	LivePeriod *int
	Heading    *int
}

// CreateUserLocation создает отметку местоположения пользователя, при
// необходимости создавая саму локацию. Обе записи создаются в одной
// транзакции.
func (s *Store) CreateUserLocation(ctx context.Context, input UserLocationInput) (*models.UserLocation, bool, error) {
	var userLoc models.UserLocation
	var created bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loc, wasCreated, err := s.getOrCreate(tx, ctx, input.Lat, input.Lng, input.Name)
		if err != nil {
			return err
		}
		created = wasCreated

		userLoc = models.UserLocation{
			User:       input.TelegramID,
			LocationID: loc.ID,
			Accuracy:   input.Accuracy,
			LivePeriod: input.LivePeriod,
			Heading:    input.Heading,
		}
		if err := tx.Create(&userLoc).Error; err != nil {
			return err
		}

		userLoc.Location = *loc
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &userLoc, created, nil
}

// UserLocations возвращает все отметки пользователя, новые первыми
func (s *Store) UserLocations(ctx context.Context, telegramID int64) ([]models.UserLocation, error) {
	var locations []models.UserLocation
	err := s.db.WithContext(ctx).
		Where(`"user" = ?`, telegramID).
		Preload("Location").
		Order("created_at DESC").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

// LatestUserLocation возвращает последнюю отметку пользователя или nil
func (s *Store) LatestUserLocation(ctx context.Context, telegramID int64) (*models.UserLocation, error) {
	var userLoc models.UserLocation
	err := s.db.WithContext(ctx).
		Where(`"user" = ?`, telegramID).
		Preload("Location").
		Order("created_at DESC").
		First(&userLoc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &userLoc, nil
}

// DeleteUserLocations удаляет все отметки пользователя и возвращает их число
func (s *Store) DeleteUserLocations(ctx context.Context, telegramID int64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where(`"user" = ?`, telegramID).
		Delete(&models.UserLocation{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
