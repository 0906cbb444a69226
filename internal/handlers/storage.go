package handlers

import (
	"context"
	"mime/multipart"

	"sitediary/internal/uploads"
	"sitediary/internal/weather"
	"sitediary/models"
)

type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateDiary(ctx context.Context, diary *models.SiteDiary) error
	GetDiary(ctx context.Context, id int) (*models.SiteDiary, error)
	UpdateDiary(ctx context.Context, diary *models.SiteDiary) error
	DeleteDiary(ctx context.Context, id int) error
	ListDiaries(ctx context.Context, filters models.Filters) ([]models.SiteDiary, error)
}

// WeatherService источник дневной погоды по координатам
type WeatherService interface {
	Daily(ctx context.Context, lat, lon float64, date string) (*weather.Report, error)
}

// UploadStore хранилище фотографий площадок
type UploadStore interface {
	Save(files []*multipart.FileHeader) ([]uploads.Saved, error)
	Dir() string
}
