package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Сущность записи дневника площадки
type SiteDiary struct {
	ID                int            `db:"id" json:"id"`
	Date              time.Time      `db:"date" json:"date"`
	SiteLocation      string         `db:"site_location" json:"siteLocation"`
	Weather           string         `db:"weather" json:"weather"`
	Description       string         `db:"description" json:"description"`
	CurrentPhase      string         `db:"current_phase" json:"currentPhase"`
	WorkCompleted     string         `db:"work_completed" json:"workCompleted"`
	HasDelaysOrIssues bool           `db:"has_delays_or_issues" json:"hasDelaysOrIssues"`
	DelaysOrIssues    string         `db:"delays_or_issues" json:"delaysOrIssues"`
	Labor             string         `db:"labor" json:"labor"`
	Equipment         string         `db:"equipment" json:"equipment"`
	Materials         string         `db:"materials" json:"materials"`
	Visitors          Visitors       `db:"visitors" json:"visitors"`
	Images            pq.StringArray `db:"images" json:"images"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// Типы посетителей
const (
	VisitorTypeVisitor    = "visitor"
	VisitorTypeInspection = "inspection"
	VisitorTypeDelivery   = "delivery"
)

// VisitorTypeLabels подписи для отображения
var VisitorTypeLabels = map[string]string{
	VisitorTypeVisitor:    "Site Visitor",
	VisitorTypeInspection: "Inspector",
	VisitorTypeDelivery:   "Delivery",
}

// Посетитель (встроен в запись, отдельной таблицы нет).
// Для type=delivery поле Purpose содержит позиции/количество.
type Visitor struct {
	Type    string `json:"type" validate:"required,oneof=visitor inspection delivery"`
	Name    string `json:"name" validate:"required"`
	Company string `json:"company"`
	Purpose string `json:"purpose"`
}

// Visitors хранится в колонке JSONB
type Visitors []Visitor

// Value отдает строку: []byte драйвер pq передал бы как bytea
func (v Visitors) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Visitor(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *Visitors) Scan(src interface{}) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*v = Visitors{}
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("visitors: unsupported scan type %T", src)
	}
	out := Visitors{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalJSON всегда отдает массив, а не null
func (v Visitors) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Visitor(v))
}

// Площадка из фиксированного справочника
type Site struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var Sites = []Site{
	{ID: "site-1", Name: "Main Construction Site", Lat: -33.8688, Lon: 151.2093},
	{ID: "site-2", Name: "Philippines HQ", Lat: 14.5995, Lon: 120.9842},
	{ID: "site-3", Name: "Melbourne VIC Office", Lat: -37.8136, Lon: 144.9631},
}

// FindSite ищет площадку по идентификатору
func FindSite(id string) (Site, bool) {
	for _, s := range Sites {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

// SiteName возвращает название площадки или сам идентификатор
func SiteName(id string) string {
	if s, ok := FindSite(id); ok {
		return s.Name
	}
	return id
}
