package travel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/bovaqulov/ridemain/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("открытие тестовой базы: %v", err)
	}

	if err := database.AutoMigrate(
		&models.Location{},
		&models.UserLocation{},
		&models.Car{},
		&models.Driver{},
		&models.DriverRoad{},
		&models.Passenger{},
		&models.Travel{},
		&models.TravelInfo{},
	); err != nil {
		t.Fatalf("миграция тестовой базы: %v", err)
	}

	return database
}

func seedLocation(t *testing.T, database *gorm.DB, name string, lat, lng float64) *models.Location {
	t.Helper()

	loc := models.Location{Name: name, Lat: lat, Lng: lng, IsAvailable: true}
	if err := database.Create(&loc).Error; err != nil {
		t.Fatalf("создание локации: %v", err)
	}
	return &loc
}

func seedDriver(t *testing.T, database *gorm.DB, telegramID int64) *models.Driver {
	t.Helper()

	driver := models.Driver{
		TelegramID: telegramID,
		Name:       "Тестовый водитель",
		Contact:    "+77001234567",
		Status:     models.DriverStatusActive,
		Rating:     5.0,
	}
	if err := database.Create(&driver).Error; err != nil {
		t.Fatalf("создание водителя: %v", err)
	}
	return &driver
}

func seedPassenger(t *testing.T, database *gorm.DB, telegramID int64, contact string, isFemale bool) *models.Passenger {
	t.Helper()

	passenger := models.Passenger{
		TelegramID: telegramID,
		Name:       "Тестовый пассажир",
		Contact:    contact,
		IsFemale:   isFemale,
		Rating:     5.0,
		IsActive:   true,
	}
	if err := database.Create(&passenger).Error; err != nil {
		t.Fatalf("создание пассажира: %v", err)
	}
	return &passenger
}

// locSeq разводит координаты: пары (lat, lng) уникальны в пределах базы
var locSeq int64

func createTravel(t *testing.T, svc *Service, database *gorm.DB, creator int64) *models.Travel {
	t.Helper()

	n := float64(atomic.AddInt64(&locSeq, 1)) * 0.001
	from := seedLocation(t, database, "Аэропорт", 43.35+n, 77.04)
	to := seedLocation(t, database, "Вокзал", 43.27+n, 76.94)

	created, err := svc.Create(context.Background(), CreateInput{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		Creator:        creator,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created
}

func TestCreateTravelWithInfo(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)

	created := createTravel(t, svc, database, 100)

	if created.Info == nil {
		t.Fatal("поездка создана без TravelInfo")
	}
	if created.Info.Status != models.TravelStatusCreated {
		t.Fatalf("начальный статус %q, ожидался created", created.Info.Status)
	}
	if created.Info.HasFemale {
		t.Fatal("has_female должен быть false для новой поездки")
	}
	if created.StartedAt != nil || created.CompletedAt != nil {
		t.Fatal("временные метки должны быть пустыми для новой поездки")
	}
	if created.FromLocation == nil || created.FromLocation.Name != "Аэропорт" {
		t.Fatal("локация отправления не загружена")
	}
}

func TestCreateTravelUnknownLocation(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)

	_, err := svc.Create(context.Background(), CreateInput{
		FromLocationID: 777,
		ToLocationID:   778,
		Creator:        100,
	})
	if err != ErrLocationNotFound {
		t.Fatalf("ожидалась ErrLocationNotFound, получено %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)

	if _, err := svc.Get(context.Background(), 42); err != ErrTravelNotFound {
		t.Fatalf("ожидалась ErrTravelNotFound, получено %v", err)
	}
}

func TestUpdateStatusStartedSetsTimestampOnce(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)

	first, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusStarted)
	if err != nil {
		t.Fatalf("UpdateStatus(started): %v", err)
	}
	if first.StartedAt == nil {
		t.Fatal("started_at не выставлен при переходе в started")
	}
	startedAt := *first.StartedAt

	// Повторный переход не должен сдвигать время начала
	if _, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusArrived); err != nil {
		t.Fatalf("UpdateStatus(arrived): %v", err)
	}
	second, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusStarted)
	if err != nil {
		t.Fatalf("повторный UpdateStatus(started): %v", err)
	}
	if second.StartedAt == nil || !second.StartedAt.Equal(startedAt) {
		t.Fatalf("started_at перезаписан: было %v, стало %v", startedAt, second.StartedAt)
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)

	created := createTravel(t, svc, database, 100)

	if _, err := svc.UpdateStatus(context.Background(), created.ID, "teleported"); err != ErrInvalidStatus {
		t.Fatalf("ожидалась ErrInvalidStatus, получено %v", err)
	}
}

func TestUpdateStatusAllowsArbitraryTransitions(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)

	// Переходы не ограничены таблицей: из created сразу в completed и обратно
	if _, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus(completed): %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusSearchingDriver)
	if err != nil {
		t.Fatalf("UpdateStatus(searching_driver): %v", err)
	}
	if updated.Info.Status != models.TravelStatusSearchingDriver {
		t.Fatalf("статус %q, ожидался searching_driver", updated.Info.Status)
	}
	// Метка завершения при этом остается от первого перехода
	if updated.CompletedAt == nil {
		t.Fatal("completed_at сброшен при уходе из completed")
	}
}

func TestAssignDriver(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)
	driver := seedDriver(t, database, 7)

	updated, err := svc.AssignDriver(ctx, created.ID, driver.ID)
	if err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	if updated.DriverID == nil || *updated.DriverID != driver.ID {
		t.Fatal("водитель не назначен")
	}
	// Назначение водителя не трогает статус жизненного цикла
	if updated.Info.Status != models.TravelStatusCreated {
		t.Fatalf("статус изменился на %q при назначении водителя", updated.Info.Status)
	}
}

func TestAssignDriverNotFound(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)

	created := createTravel(t, svc, database, 100)

	if _, err := svc.AssignDriver(context.Background(), created.ID, 999); err != ErrDriverNotFound {
		t.Fatalf("ожидалась ErrDriverNotFound, получено %v", err)
	}
}

func TestAddPassengersIdempotent(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)
	a := seedPassenger(t, database, 201, "+77010000001", false)
	b := seedPassenger(t, database, 202, "+77010000002", false)

	updated, err := svc.AddPassengers(ctx, created.ID, []int64{a.TelegramID, b.TelegramID})
	if err != nil {
		t.Fatalf("AddPassengers: %v", err)
	}
	if len(updated.Info.Passengers) != 2 {
		t.Fatalf("в составе %d пассажиров, ожидалось 2", len(updated.Info.Passengers))
	}

	// Повторное добавление и неизвестный ID не меняют состав
	updated, err = svc.AddPassengers(ctx, created.ID, []int64{b.TelegramID, 999999})
	if err != nil {
		t.Fatalf("повторный AddPassengers: %v", err)
	}
	if len(updated.Info.Passengers) != 2 {
		t.Fatalf("после повторного добавления %d пассажиров, ожидалось 2", len(updated.Info.Passengers))
	}
}

func TestHasFemaleMonotonic(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)
	male := seedPassenger(t, database, 301, "+77020000001", false)
	female := seedPassenger(t, database, 302, "+77020000002", true)
	anotherMale := seedPassenger(t, database, 303, "+77020000003", false)

	updated, err := svc.AddPassengers(ctx, created.ID, []int64{male.TelegramID})
	if err != nil {
		t.Fatalf("AddPassengers: %v", err)
	}
	if updated.Info.HasFemale {
		t.Fatal("has_female выставлен без пассажирки")
	}

	updated, err = svc.AddPassengers(ctx, created.ID, []int64{female.TelegramID})
	if err != nil {
		t.Fatalf("AddPassengers: %v", err)
	}
	if !updated.Info.HasFemale {
		t.Fatal("has_female не выставлен после добавления пассажирки")
	}

	// Добавление мужчин флаг обратно не сбрасывает
	updated, err = svc.AddPassengers(ctx, created.ID, []int64{anotherMale.TelegramID})
	if err != nil {
		t.Fatalf("AddPassengers: %v", err)
	}
	if !updated.Info.HasFemale {
		t.Fatal("has_female сброшен после добавления пассажира")
	}
}

func TestRateMapping(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)

	// Оценка водителя сохраняется в passenger_rating
	updated, err := svc.Rate(ctx, created.ID, 4, RatedByDriver)
	if err != nil {
		t.Fatalf("Rate(driver): %v", err)
	}
	if updated.Info.PassengerRating == nil || *updated.Info.PassengerRating != 4 {
		t.Fatalf("passenger_rating = %v, ожидалось 4", updated.Info.PassengerRating)
	}
	if updated.Info.DriverRating != nil {
		t.Fatal("driver_rating не должен быть затронут оценкой водителя")
	}

	// Оценка пассажира сохраняется в driver_rating
	updated, err = svc.Rate(ctx, created.ID, 5, RatedByPassenger)
	if err != nil {
		t.Fatalf("Rate(passenger): %v", err)
	}
	if updated.Info.DriverRating == nil || *updated.Info.DriverRating != 5 {
		t.Fatalf("driver_rating = %v, ожидалось 5", updated.Info.DriverRating)
	}
	if *updated.Info.PassengerRating != 4 {
		t.Fatal("passenger_rating перезаписан оценкой пассажира")
	}
}

func TestRateValidation(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)

	if _, err := svc.Rate(ctx, created.ID, 0, RatedByDriver); err != ErrInvalidRating {
		t.Fatalf("ожидалась ErrInvalidRating для 0, получено %v", err)
	}
	if _, err := svc.Rate(ctx, created.ID, 6, RatedByDriver); err != ErrInvalidRating {
		t.Fatalf("ожидалась ErrInvalidRating для 6, получено %v", err)
	}
	if _, err := svc.Rate(ctx, created.ID, 3, "dispatcher"); err != ErrInvalidRatedBy {
		t.Fatalf("ожидалась ErrInvalidRatedBy, получено %v", err)
	}
}

func TestCompleteIdempotentTimestamp(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)

	price := 20000.0
	first, err := svc.Complete(ctx, created.ID, &price)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if first.Info.Status != models.TravelStatusCompleted {
		t.Fatalf("статус %q, ожидался completed", first.Info.Status)
	}
	if first.CompletedAt == nil {
		t.Fatal("completed_at не выставлен")
	}
	if first.FinalPrice == nil || *first.FinalPrice != price {
		t.Fatalf("final_price = %v, ожидалось %v", first.FinalPrice, price)
	}
	completedAt := *first.CompletedAt

	// Повторное завершение обновляет цену, но не время завершения
	newPrice := 25000.0
	second, err := svc.Complete(ctx, created.ID, &newPrice)
	if err != nil {
		t.Fatalf("повторный Complete: %v", err)
	}
	if !second.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed_at перезаписан: было %v, стало %v", completedAt, second.CompletedAt)
	}
	if *second.FinalPrice != newPrice {
		t.Fatalf("final_price = %v, ожидалось %v", *second.FinalPrice, newPrice)
	}

	// Завершение без цены оставляет прежнюю
	third, err := svc.Complete(ctx, created.ID, nil)
	if err != nil {
		t.Fatalf("Complete без цены: %v", err)
	}
	if *third.FinalPrice != newPrice {
		t.Fatalf("final_price затерт при завершении без цены: %v", *third.FinalPrice)
	}
}

func TestCancel(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	created := createTravel(t, svc, database, 100)

	cancelled, err := svc.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Info.Status != models.TravelStatusCancelled {
		t.Fatalf("статус %q, ожидался cancelled", cancelled.Info.Status)
	}
	if cancelled.CompletedAt != nil || cancelled.StartedAt != nil {
		t.Fatal("отмена не должна выставлять временные метки")
	}
}

func TestStatsEmpty(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalTravels != 0 {
		t.Fatalf("total_travels = %d, ожидалось 0", stats.TotalTravels)
	}
	if stats.TotalRevenue != nil || stats.AverageRating != nil {
		t.Fatal("агрегаты по пустой базе должны быть null")
	}
}

func TestStats(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	first := createTravel(t, svc, database, 100)
	second := createTravel(t, svc, database, 101)
	createTravel(t, svc, database, 102)

	price1, price2 := 10000.0, 15000.0
	if _, err := svc.Complete(ctx, first.ID, &price1); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Complete(ctx, second.ID, &price2); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Rate(ctx, first.ID, 4, RatedByPassenger); err != nil {
		t.Fatalf("Rate: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalTravels != 3 {
		t.Fatalf("total_travels = %d, ожидалось 3", stats.TotalTravels)
	}
	if stats.CompletedTravels != 2 {
		t.Fatalf("completed_travels = %d, ожидалось 2", stats.CompletedTravels)
	}
	if stats.TotalRevenue == nil || *stats.TotalRevenue != 25000.0 {
		t.Fatalf("total_revenue = %v, ожидалось 25000", stats.TotalRevenue)
	}
	if stats.AverageRating == nil || *stats.AverageRating != 4.0 {
		t.Fatalf("average_rating = %v, ожидалось 4", stats.AverageRating)
	}
}

func TestListFilters(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	mine := createTravel(t, svc, database, 100)
	other := createTravel(t, svc, database, 200)
	driver := seedDriver(t, database, 7)

	if _, err := svc.AssignDriver(ctx, other.ID, driver.ID); err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	if _, err := svc.Complete(ctx, mine.ID, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	creator := int64(100)
	byCreator, err := svc.List(ctx, ListFilter{Creator: &creator})
	if err != nil {
		t.Fatalf("List по создателю: %v", err)
	}
	if len(byCreator) != 1 || byCreator[0].ID != mine.ID {
		t.Fatalf("выборка по создателю вернула %d поездок", len(byCreator))
	}

	byDriver, err := svc.List(ctx, ListFilter{DriverID: &driver.ID})
	if err != nil {
		t.Fatalf("List по водителю: %v", err)
	}
	if len(byDriver) != 1 || byDriver[0].ID != other.ID {
		t.Fatalf("выборка по водителю вернула %d поездок", len(byDriver))
	}

	active, err := svc.List(ctx, ListFilter{OnlyActive: true})
	if err != nil {
		t.Fatalf("List активных: %v", err)
	}
	if len(active) != 1 || active[0].ID != other.ID {
		t.Fatalf("в активных %d поездок, ожидалась 1", len(active))
	}

	completed := models.TravelStatusCompleted
	byStatus, err := svc.List(ctx, ListFilter{Status: &completed})
	if err != nil {
		t.Fatalf("List по статусу: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != mine.ID {
		t.Fatalf("выборка по статусу вернула %d поездок", len(byStatus))
	}
}

// Полный сценарий: создание, назначение водителя, посадка, поездка, завершение
func TestTravelLifecycleScenario(t *testing.T) {
	database := newTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	from := seedLocation(t, database, "Площадь Республики", 43.238949, 76.945465)
	to := seedLocation(t, database, "Медеу", 43.157368, 77.058283)
	driver := seedDriver(t, database, 7)
	passenger := seedPassenger(t, database, 501, "+77030000001", true)

	price := 18000.0
	created, err := svc.Create(ctx, CreateInput{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		Creator:        passenger.TelegramID,
		ExpectedPrice:  &price,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusSearchingDriver); err != nil {
		t.Fatalf("UpdateStatus(searching_driver): %v", err)
	}
	if _, err := svc.AssignDriver(ctx, created.ID, driver.ID); err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusDriverFound); err != nil {
		t.Fatalf("UpdateStatus(driver_found): %v", err)
	}
	if _, err := svc.AddPassengers(ctx, created.ID, []int64{passenger.TelegramID}); err != nil {
		t.Fatalf("AddPassengers: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, models.TravelStatusStarted); err != nil {
		t.Fatalf("UpdateStatus(started): %v", err)
	}

	finalPrice := 25000.0
	done, err := svc.Complete(ctx, created.ID, &finalPrice)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if done.Info.Status != models.TravelStatusCompleted {
		t.Fatalf("финальный статус %q", done.Info.Status)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Fatal("временные метки не выставлены за полный цикл")
	}
	if *done.FinalPrice != finalPrice {
		t.Fatalf("final_price = %v", *done.FinalPrice)
	}
	if !done.Info.HasFemale {
		t.Fatal("has_female не выставлен")
	}
	if len(done.Info.Passengers) != 1 || done.Info.Passengers[0].TelegramID != passenger.TelegramID {
		t.Fatal("состав пассажиров не сохранен")
	}
	if done.Driver == nil || done.Driver.TelegramID != driver.TelegramID {
		t.Fatal("водитель не сохранен")
	}
	if done.DurationMinutes() == nil {
		t.Fatal("длительность не вычисляется при обеих метках")
	}
}
