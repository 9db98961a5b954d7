package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/bovaqulov/ridemain/internal/middleware"
	"googlemaps.github.io/maps"
)

// Client — клиент обратного геокодирования поверх Google Maps API.
// При отсутствии API-ключа работает в отключенном режиме и подставляет
// имя из координат.
type Client struct {
	mapsClient *maps.Client
	cache      *CacheService
	language   string
	enabled    bool
}

// NewClient создает клиент геокодирования. Пустой apiKey отключает
// обращения к внешнему API.
func NewClient(apiKey string, cache *CacheService) (*Client, error) {
	if apiKey == "" {
		return &Client{cache: cache, enabled: false}, nil
	}

	mapsClient, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Google Maps: %w", err)
	}

	return &Client{
		mapsClient: mapsClient,
		cache:      cache,
		language:   "ru",
		enabled:    true,
	}, nil
}

// Enabled сообщает, доступно ли внешнее геокодирование
func (c *Client) Enabled() bool {
	return c.enabled
}

// ReverseGeocode возвращает человекочитаемое имя точки по координатам.
// Результаты кэшируются, ошибки внешнего API не фатальны — в этом случае
// возвращается имя из координат.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	if !c.enabled {
		return FallbackName(lat, lng)
	}

	key := c.cache.GenerateReverseGeocodingKey(lat, lng)

	var cached string
	if found, err := c.cache.Get(ctx, key, &cached); err == nil && found {
		middleware.TrackGeocodeRequest("ok", true, 0)
		return cached
	}

	start := time.Now()
	results, err := c.mapsClient.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: c.language,
	})
	if err != nil || len(results) == 0 {
		middleware.TrackGeocodeRequest("error", false, time.Since(start))
		return FallbackName(lat, lng)
	}

	name := results[0].FormattedAddress
	middleware.TrackGeocodeRequest("ok", false, time.Since(start))

	if err := c.cache.Set(ctx, key, name); err != nil {
		// Кэш не критичен, ошибку не поднимаем
		return name
	}

	return name
}

// FallbackName — имя точки из координат, когда геокодер недоступен
func FallbackName(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
