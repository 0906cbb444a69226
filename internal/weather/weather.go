package weather

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// ErrNoData прогноз на эту дату недоступен
var ErrNoData = errors.New("no weather data available for this date")

// Report дневная сводка погоды для площадки
type Report struct {
	Temperature       float64 `json:"temperature"`
	WindSpeed         float64 `json:"wind_speed"`
	WindDirection     float64 `json:"wind_direction"`
	WindDirectionText string  `json:"wind_direction_text"`
	ConditionText     string  `json:"condition_text"`
	Date              string  `json:"date"`
	Timezone          string  `json:"timezone"`
}

type forecastResponse struct {
	Timezone string `json:"timezone"`
	Daily    struct {
		Time                     []string  `json:"time"`
		Temperature2mMax         []float64 `json:"temperature_2m_max"`
		WindSpeed10mMax          []float64 `json:"wind_speed_10m_max"`
		WindDirection10mDominant []float64 `json:"wind_direction_10m_dominant"`
	} `json:"daily"`
}

// Client обращается к Open-Meteo. Ни кеша, ни повторов нет.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// Daily возвращает сводку за один день date (YYYY-MM-DD) по координатам
func (c *Client) Daily(ctx context.Context, lat, lon float64, date string) (*Report, error) {
	var out forecastResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":   strconv.FormatFloat(lat, 'f', -1, 64),
			"longitude":  strconv.FormatFloat(lon, 'f', -1, 64),
			"daily":      "temperature_2m_max,wind_speed_10m_max,wind_direction_10m_dominant",
			"timezone":   "auto",
			"start_date": date,
			"end_date":   date,
		}).
		SetResult(&out).
		Get("/v1/forecast")
	if err != nil {
		return nil, errors.Wrap(err, "fetch weather")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch weather: upstream status %d", resp.StatusCode())
	}

	d := out.Daily
	if len(d.Time) == 0 || len(d.Temperature2mMax) == 0 || len(d.WindSpeed10mMax) == 0 || len(d.WindDirection10mDominant) == 0 {
		return nil, ErrNoData
	}

	temp := d.Temperature2mMax[0]
	wind := d.WindSpeed10mMax[0]
	dir := d.WindDirection10mDominant[0]
	return &Report{
		Temperature:       temp,
		WindSpeed:         wind,
		WindDirection:     dir,
		WindDirectionText: WindDirectionText(dir),
		ConditionText:     Condition(temp, wind),
		Date:              d.Time[0],
		Timezone:          out.Timezone,
	}, nil
}

// Condition грубая текстовая оценка по температуре (°C) и ветру (км/ч)
func Condition(temperature, windSpeed float64) string {
	switch {
	case temperature > 30:
		return "Hot & Sunny"
	case temperature > 20 && windSpeed < 15:
		return "Sunny"
	case temperature > 20 && windSpeed >= 15:
		return "Windy & Warm"
	case temperature < 10:
		return "Cold & Cloudy"
	case windSpeed > 30:
		return "Very Windy"
	}
	return "Mild & Cloudy"
}

var directions = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirectionText восьмирумбовое обозначение направления в градусах
func WindDirectionText(degrees float64) string {
	i := int(math.Round(degrees/45)) % 8
	if i < 0 {
		i += 8
	}
	return directions[i]
}
