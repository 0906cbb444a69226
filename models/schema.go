package models

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
)

// Issue описывает одно нарушение схемы: путь к полю и сообщение
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError возвращается, когда входные данные не прошли схему
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Path == "" {
			parts = append(parts, is.Message)
			continue
		}
		parts = append(parts, is.Path+": "+is.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// NewValidationError собирает ошибку из одного нарушения
func NewValidationError(path, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Path: path, Message: message}}}
}

// AsValidationError достает список нарушений из цепочки ошибок
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Тело запроса на создание записи
type DiaryPayload struct {
	Date              string    `json:"date" validate:"required"`
	SiteLocation      string    `json:"siteLocation" validate:"required,site"`
	Weather           string    `json:"weather"`
	Description       string    `json:"description" validate:"required"`
	CurrentPhase      string    `json:"currentPhase" validate:"required"`
	WorkCompleted     string    `json:"workCompleted"`
	HasDelaysOrIssues bool      `json:"hasDelaysOrIssues"`
	DelaysOrIssues    string    `json:"delaysOrIssues"`
	Labor             string    `json:"labor"`
	Equipment         string    `json:"equipment"`
	Materials         string    `json:"materials"`
	Visitors          []Visitor `json:"visitors" validate:"dive"`
	Images            []string  `json:"images" validate:"dive,url"`
}

// Тело запроса на обновление: полный набор полей плюс id
type UpdatePayload struct {
	ID *int `json:"id"`
	DiaryPayload
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("site", func(fl validator.FieldLevel) bool {
		_, ok := FindSite(fl.Field().String())
		return ok
	})
	return v
}

var requiredMessages = map[string]string{
	"date":         "Date is required",
	"siteLocation": "Site location is required",
	"description":  "Description is required",
	"currentPhase": "Current phase is required",
	"name":         "Name is required",
	"type":         "Visitor type is required",
}

// Validate проверяет тело создания
func (p DiaryPayload) Validate() error {
	var issues []Issue

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			issues = append(issues, Issue{Path: issuePath(fe.Namespace()), Message: issueMessage(fe)})
		}
	}
	issues = append(issues, p.crossFieldIssues()...)

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Validate проверяет тело обновления
func (p UpdatePayload) Validate() error {
	var issues []Issue
	switch {
	case p.ID == nil:
		issues = append(issues, Issue{Path: "id", Message: "Id is required"})
	case *p.ID <= 0:
		issues = append(issues, Issue{Path: "id", Message: "Id must be a positive integer"})
	}
	if err := p.DiaryPayload.Validate(); err != nil {
		ve, ok := AsValidationError(err)
		if !ok {
			return err
		}
		issues = append(issues, ve.Issues...)
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// crossFieldIssues правила, которые не выражаются тегами
func (p DiaryPayload) crossFieldIssues() []Issue {
	var issues []Issue
	if p.HasDelaysOrIssues && strings.TrimSpace(p.DelaysOrIssues) == "" {
		issues = append(issues, Issue{Path: "delaysOrIssues", Message: "Please provide details for delays or issues"})
	}
	if p.Date != "" {
		if _, err := ParseDiaryDate(p.Date); err != nil {
			issues = append(issues, Issue{Path: "date", Message: "Invalid date"})
		}
	}
	return issues
}

// ToDiary переносит проверенные поля в сущность (без id и меток времени)
func (p DiaryPayload) ToDiary() (SiteDiary, error) {
	date, err := ParseDiaryDate(p.Date)
	if err != nil {
		return SiteDiary{}, NewValidationError("date", "Invalid date")
	}
	visitors := Visitors{}
	visitors = append(visitors, p.Visitors...)
	images := pq.StringArray{}
	images = append(images, p.Images...)

	return SiteDiary{
		Date:              date,
		SiteLocation:      p.SiteLocation,
		Weather:           p.Weather,
		Description:       p.Description,
		CurrentPhase:      p.CurrentPhase,
		WorkCompleted:     p.WorkCompleted,
		HasDelaysOrIssues: p.HasDelaysOrIssues,
		DelaysOrIssues:    p.DelaysOrIssues,
		Labor:             p.Labor,
		Equipment:         p.Equipment,
		Materials:         p.Materials,
		Visitors:          visitors,
		Images:            images,
	}, nil
}

// PayloadFromDiary обратное преобразование, нужно клиенту для правки записи
func PayloadFromDiary(d SiteDiary) UpdatePayload {
	id := d.ID
	return UpdatePayload{
		ID: &id,
		DiaryPayload: DiaryPayload{
			Date:              d.Date.UTC().Format(time.RFC3339Nano),
			SiteLocation:      d.SiteLocation,
			Weather:           d.Weather,
			Description:       d.Description,
			CurrentPhase:      d.CurrentPhase,
			WorkCompleted:     d.WorkCompleted,
			HasDelaysOrIssues: d.HasDelaysOrIssues,
			DelaysOrIssues:    d.DelaysOrIssues,
			Labor:             d.Labor,
			Equipment:         d.Equipment,
			Materials:         d.Materials,
			Visitors:          append([]Visitor{}, d.Visitors...),
			Images:            append([]string{}, d.Images...),
		},
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDiaryDate принимает RFC3339 или YYYY-MM-DD; значения без зоны считаются UTC
func ParseDiaryDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// issuePath превращает "DiaryPayload.visitors[0].name" в "visitors.0.name"
func issuePath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
		return "Required"
	case "oneof":
		return "Invalid enum value. Expected '" + strings.ReplaceAll(fe.Param(), " ", "' | '") + "'"
	case "url":
		return "Valid image URL is required"
	case "site":
		return "Unknown site location"
	}
	return "Invalid value"
}
