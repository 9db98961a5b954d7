package travel

import (
	"context"
	"errors"
	"time"

	"github.com/bovaqulov/ridemain/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTravelNotFound   = errors.New("поездка не найдена")
	ErrLocationNotFound = errors.New("локация не найдена")
	ErrDriverNotFound   = errors.New("водитель не найден")
	ErrInvalidStatus    = errors.New("недопустимый статус поездки")
	ErrInvalidRating    = errors.New("оценка должна быть от 1 до 5")
	ErrInvalidRatedBy   = errors.New("rated_by должен быть driver или passenger")
)

// RatedBy — сторона, выставившая оценку
type RatedBy string

const (
	RatedByDriver    RatedBy = "driver"
	RatedByPassenger RatedBy = "passenger"
)

// Service управляет жизненным циклом поездки: статусами, составом
// пассажиров, оценками и производными флагами. Каждая операция выполняется
// в одной транзакции — частично примененных переходов не бывает.
type Service struct {
	db *gorm.DB
}

// NewService создает менеджер жизненного цикла поездок
func NewService(database *gorm.DB) *Service {
	return &Service{db: database}
}

// CreateInput — данные для создания поездки
type CreateInput struct {
	FromLocationID       uint
	ToLocationID         uint
	Creator              int64
	ExpectedPrice        *float64
	DistanceKm           *float64
	EstimatedDurationMin *int
}

// Create создает поездку вместе с данными жизненного цикла. Travel и
// TravelInfo создаются в одной транзакции: поездки без TravelInfo не бывает.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Travel, error) {
	var travelID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from, to models.Location
		if err := tx.First(&from, input.FromLocationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}
			return err
		}
		if err := tx.First(&to, input.ToLocationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}
			return err
		}

		travel := models.Travel{
			FromLocationID:       &from.ID,
			ToLocationID:         &to.ID,
			Creator:              input.Creator,
			ExpectedPrice:        input.ExpectedPrice,
			DistanceKm:           input.DistanceKm,
			EstimatedDurationMin: input.EstimatedDurationMin,
		}
		if err := tx.Create(&travel).Error; err != nil {
			return err
		}

		info := models.TravelInfo{
			TravelID: travel.ID,
			Status:   models.TravelStatusCreated,
		}
		if err := tx.Create(&info).Error; err != nil {
			return err
		}

		travelID = travel.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, travelID)
}

// Get возвращает поездку со всеми связями
func (s *Service) Get(ctx context.Context, id uint) (*models.Travel, error) {
	var travel models.Travel
	err := s.db.WithContext(ctx).
		Preload("FromLocation").
		Preload("ToLocation").
		Preload("Driver").
		Preload("Info").
		Preload("Info.Passengers").
		First(&travel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTravelNotFound
		}
		return nil, err
	}
	return &travel, nil
}

// load читает строки Travel и TravelInfo без связей для изменения в транзакции
func (s *Service) load(tx *gorm.DB, id uint) (*models.Travel, *models.TravelInfo, error) {
	var travel models.Travel
	if err := tx.First(&travel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTravelNotFound
		}
		return nil, nil, err
	}

	var info models.TravelInfo
	if err := tx.Where("travel_id = ?", id).First(&info).Error; err != nil {
		return nil, nil, err
	}

	return &travel, &info, nil
}

// applyStatus записывает статус и его побочные эффекты. Временные метки
// выставляются только один раз: повторный переход в started или completed
// не перезаписывает уже установленное время.
func applyStatus(travel *models.Travel, info *models.TravelInfo, status models.TravelStatus, now time.Time) {
	info.Status = status

	switch status {
	case models.TravelStatusStarted:
		if travel.StartedAt == nil {
			travel.StartedAt = &now
		}
	case models.TravelStatusCompleted:
		if travel.CompletedAt == nil {
			travel.CompletedAt = &now
		}
	}
}

// UpdateStatus переводит поездку в новый статус. Таблица переходов не
// ограничивается — допустим любой статус из перечисления, проверяется
// только само значение.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status models.TravelStatus) (*models.Travel, error) {
	if !models.ValidTravelStatus(status) {
		return nil, ErrInvalidStatus
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		travel, info, err := s.load(tx, id)
		if err != nil {
			return err
		}

		applyStatus(travel, info, status, time.Now())

		if err := tx.Save(info).Error; err != nil {
			return err
		}
		return tx.Save(travel).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// AssignDriver назначает водителя на поездку. Статус жизненного цикла при
// этом не меняется.
func (s *Service) AssignDriver(ctx context.Context, id uint, driverID uint) (*models.Travel, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		travel, _, err := s.load(tx, id)
		if err != nil {
			return err
		}

		var driver models.Driver
		if err := tx.First(&driver, driverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDriverNotFound
			}
			return err
		}

		travel.DriverID = &driver.ID
		return tx.Save(travel).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// AddPassengers добавляет пассажиров в состав поездки по их Telegram ID.
// Неизвестные идентификаторы молча пропускаются, повторное добавление не
// меняет состав. Флаг has_female выставляется по явному признаку пассажира
// и обратно не сбрасывается.
func (s *Service) AddPassengers(ctx context.Context, id uint, telegramIDs []int64) (*models.Travel, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, info, err := s.load(tx, id)
		if err != nil {
			return err
		}

		var passengers []models.Passenger
		if err := tx.Where("telegram_id IN ?", telegramIDs).Find(&passengers).Error; err != nil {
			return err
		}
		if len(passengers) == 0 {
			return nil
		}

		if err := tx.Model(info).Association("Passengers").Append(&passengers); err != nil {
			return err
		}

		if !info.HasFemale {
			for i := range passengers {
				if passengers[i].IsFemale {
					info.HasFemale = true
					break
				}
			}
			if info.HasFemale {
				if err := tx.Save(info).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Rate записывает оценку поездки. Оценка водителя сохраняется в
// passenger_rating, оценка пассажира — в driver_rating: так исторически
// устроен контракт API, и клиенты на него полагаются.
func (s *Service) Rate(ctx context.Context, id uint, rating int, ratedBy RatedBy) (*models.Travel, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if ratedBy != RatedByDriver && ratedBy != RatedByPassenger {
		return nil, ErrInvalidRatedBy
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, info, err := s.load(tx, id)
		if err != nil {
			return err
		}

		if ratedBy == RatedByDriver {
			info.PassengerRating = &rating
		} else {
			info.DriverRating = &rating
		}

		return tx.Save(info).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Complete принудительно завершает поездку независимо от текущего статуса.
// Время завершения выставляется только если оно еще не задано.
func (s *Service) Complete(ctx context.Context, id uint, finalPrice *float64) (*models.Travel, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		travel, info, err := s.load(tx, id)
		if err != nil {
			return err
		}

		applyStatus(travel, info, models.TravelStatusCompleted, time.Now())

		if finalPrice != nil {
			travel.FinalPrice = finalPrice
		}

		if err := tx.Save(info).Error; err != nil {
			return err
		}
		return tx.Save(travel).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Cancel отменяет поездку. Временные метки и цены не трогаются.
func (s *Service) Cancel(ctx context.Context, id uint) (*models.Travel, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, info, err := s.load(tx, id)
		if err != nil {
			return err
		}

		info.Status = models.TravelStatusCancelled
		return tx.Save(info).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Stats считает агрегированную статистику по всем поездкам
func (s *Service) Stats(ctx context.Context) (*models.TravelStatsResponse, error) {
	database := s.db.WithContext(ctx)
	stats := models.TravelStatsResponse{}

	if err := database.Model(&models.Travel{}).Count(&stats.TotalTravels).Error; err != nil {
		return nil, err
	}

	statusCount := func(status models.TravelStatus) (int64, error) {
		var count int64
		err := database.Model(&models.TravelInfo{}).
			Where("status = ?", status).
			Count(&count).Error
		return count, err
	}

	var err error
	if stats.CompletedTravels, err = statusCount(models.TravelStatusCompleted); err != nil {
		return nil, err
	}
	if stats.CancelledTravels, err = statusCount(models.TravelStatusCancelled); err != nil {
		return nil, err
	}

	if err := database.Model(&models.Travel{}).
		Select("SUM(final_price)").
		Row().Scan(&stats.TotalRevenue); err != nil {
		return nil, err
	}

	if err := database.Model(&models.TravelInfo{}).
		Select("AVG(driver_rating)").
		Row().Scan(&stats.AverageRating); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ListFilter — параметры выборки поездок
type ListFilter struct {
	Creator    *int64
	DriverID   *uint
	Status     *models.TravelStatus
	OnlyActive bool
	Limit      int
	Offset     int
}

// List возвращает поездки по фильтру, новые первыми
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Travel, error) {
	query := s.db.WithContext(ctx).
		Preload("FromLocation").
		Preload("ToLocation").
		Preload("Driver").
		Preload("Info").
		Preload("Info.Passengers").
		Order("travels.created_at DESC")

	if filter.Creator != nil {
		query = query.Where("travels.creator = ?", *filter.Creator)
	}
	if filter.DriverID != nil {
		query = query.Where("travels.driver_id = ?", *filter.DriverID)
	}
	if filter.Status != nil || filter.OnlyActive {
		query = query.Joins("JOIN travel_infos ON travel_infos.travel_id = travels.id")
		if filter.Status != nil {
			query = query.Where("travel_infos.status = ?", *filter.Status)
		}
		if filter.OnlyActive {
			query = query.Where("travel_infos.status IN ?", models.ActiveTravelStatuses)
		}
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var travels []models.Travel
	if err := query.Find(&travels).Error; err != nil {
		return nil, err
	}
	return travels, nil
}
