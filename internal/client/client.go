package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"sitediary/internal/weather"
	"sitediary/models"
)

// Префиксы ключей кеша
const (
	DiariesKeyPrefix = "site-diaries"
	DiaryKeyPrefix   = "site-diary/"
)

// APIError ответ сервера с кодом ошибки
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Issues  []models.Issue `json:"issues,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound true для ответа 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client обращается к API дневника и кеширует запросы на чтение
type Client struct {
	http  *resty.Client
	cache *QueryCache
}

func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, cache: NewQueryCache()}
}

// Cache состояние запросов, например для индикатора загрузки
func (c *Client) Cache() *QueryCache {
	return c.cache
}

// DiariesKey ключ списка; параметры в каноничном порядке
func DiariesKey(f models.Filters) string {
	return DiariesKeyPrefix + "?" + f.Values().Encode()
}

func DiaryKey(id int) string {
	return DiaryKeyPrefix + strconv.Itoa(id)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, query map[string][]string, out interface{}) error {
	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&APIError{})
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*APIError)
		if apiErr == nil || (apiErr.Code == "" && apiErr.Message == "") {
			apiErr = &APIError{Message: strings.TrimSpace(resp.String())}
			if apiErr.Message == "" {
				apiErr.Message = resp.Status()
			}
		}
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(env.Data, out), "decode response")
}

// ListDiaries список записей по фильтрам, через кеш
func (c *Client) ListDiaries(ctx context.Context, f models.Filters) ([]models.SiteDiary, error) {
	return fetchAs(ctx, c.cache, DiariesKey(f), func(ctx context.Context) ([]models.SiteDiary, error) {
		var out []models.SiteDiary
		if err := c.do(ctx, http.MethodGet, "/diary", nil, f.Values(), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// GetDiary запись по id через кеш. Отсутствующая запись дает (nil, nil)
// и не кешируется: ее может создать другой клиент.
func (c *Client) GetDiary(ctx context.Context, id int) (*models.SiteDiary, error) {
	d, err := fetchAs(ctx, c.cache, DiaryKey(id), func(ctx context.Context) (*models.SiteDiary, error) {
		var out models.SiteDiary
		if err := c.do(ctx, http.MethodGet, "/diary/"+strconv.Itoa(id), nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if IsNotFound(err) {
		return nil, nil
	}
	return d, err
}

func (c *Client) CreateDiary(ctx context.Context, p models.DiaryPayload) (*models.SiteDiary, error) {
	var out models.SiteDiary
	if err := c.do(ctx, http.MethodPost, "/diary", p, nil, &out); err != nil {
		return nil, err
	}
	c.invalidateDiaries()
	return &out, nil
}

// UpdateDiary отправляет полный набор полей записи p.ID
func (c *Client) UpdateDiary(ctx context.Context, p models.UpdatePayload) (*models.SiteDiary, error) {
	if p.ID == nil {
		return nil, models.NewValidationError("id", "Id is required")
	}
	var out models.SiteDiary
	if err := c.do(ctx, http.MethodPatch, "/diary/"+strconv.Itoa(*p.ID), p, nil, &out); err != nil {
		return nil, err
	}
	c.invalidateDiaries()
	return &out, nil
}

// DeleteDiary возвращает сообщение сервера
func (c *Client) DeleteDiary(ctx context.Context, id int) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/diary/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return "", err
	}
	c.invalidateDiaries()
	return out.Message, nil
}

func (c *Client) Sites(ctx context.Context) ([]models.Site, error) {
	var out []models.Site
	if err := c.do(ctx, http.MethodGet, "/sites", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Weather сводка погоды для площадки на дату YYYY-MM-DD, без кеша
func (c *Client) Weather(ctx context.Context, site, date string) (*weather.Report, error) {
	var out weather.Report
	query := map[string][]string{"site": {site}, "date": {date}}
	if err := c.do(ctx, http.MethodGet, "/weather", nil, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// после любой мутации списки и карточки перечитываются
func (c *Client) invalidateDiaries() {
	c.cache.InvalidatePrefix(DiariesKeyPrefix)
	c.cache.InvalidatePrefix(DiaryKeyPrefix)
}
