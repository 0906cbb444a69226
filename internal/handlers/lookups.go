package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sitediary/internal/weather"
	"sitediary/models"
)

// SitesHandler отдает справочник площадок
func (h *Handler) SitesHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, models.Sites)
}

// WeatherHandler обрабатывает GET /weather?site=&date=
func (h *Handler) WeatherHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var issues []models.Issue
	site, ok := models.FindSite(q.Get("site"))
	if !ok {
		issues = append(issues, models.Issue{Path: "site", Message: "Unknown site location"})
	}
	date := q.Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		issues = append(issues, models.Issue{Path: "date", Message: "Expected a date in YYYY-MM-DD format"})
	}
	if len(issues) > 0 {
		writeInvalid(w, &models.ValidationError{Issues: issues})
		return
	}

	if h.Weather == nil {
		h.internalError(w, r, "Weather lookup is not configured", errors.New("weather service is nil"))
		return
	}

	report, err := h.Weather.Daily(r.Context(), site.Lat, site.Lon, date)
	if err != nil {
		if errors.Is(err, weather.ErrNoData) {
			writeError(w, http.StatusNotFound, CodeNotFound, "No weather data available for this date")
			return
		}
		h.Log.Error("weather lookup failed",
			zap.Error(err),
			zap.String("site", site.ID),
			zap.String("date", date),
		)
		writeError(w, http.StatusBadGateway, CodeInternalServer, "Failed to fetch weather data")
		return
	}

	writeData(w, http.StatusOK, report)
}
