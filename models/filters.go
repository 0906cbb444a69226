package models

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Виды ресурсов для фильтра наличия
type ResourceKind string

const (
	ResourceWeather   ResourceKind = "weather"
	ResourceVisitors  ResourceKind = "visitors"
	ResourceLabor     ResourceKind = "labor"
	ResourceEquipment ResourceKind = "equipment"
	ResourceMaterials ResourceKind = "materials"
	ResourcePhotos    ResourceKind = "photos"
)

var ResourceKinds = []ResourceKind{
	ResourceWeather, ResourceVisitors, ResourceLabor, ResourceEquipment, ResourceMaterials, ResourcePhotos,
}

// Поля сортировки
const (
	OrderByCreatedAt    = "createdAt"
	OrderByDate         = "date"
	OrderByCurrentPhase = "currentPhase"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const dayLayout = "2006-01-02"

// Filters параметры списка. Пустые строки и nil означают "не задано".
type Filters struct {
	Date      string
	Location  *time.Location
	Site      string
	Phase     string
	HasIssues *bool
	Search    string
	Resources []ResourceKind
	OrderBy   string
	Order     string
}

// ParseFilters разбирает query-параметры списка.
// defaultLoc используется для date, если запрос не передал tz.
// phase дополняет базовые фильтры (site, search, hasIssues, date, resources)
// точным сравнением без учета регистра; без phase список фильтруется только ими.
func ParseFilters(q url.Values, defaultLoc *time.Location) (Filters, error) {
	f := Filters{
		Date:    strings.TrimSpace(q.Get("date")),
		Site:    q.Get("site"),
		Phase:   q.Get("phase"),
		Search:  q.Get("search"),
		OrderBy: OrderByCreatedAt,
		Order:   OrderDesc,
	}
	var issues []Issue

	if f.Date != "" {
		if _, err := time.Parse(dayLayout, f.Date); err != nil {
			issues = append(issues, Issue{Path: "date", Message: "Expected a date in YYYY-MM-DD format"})
		}
	}

	f.Location = defaultLoc
	if tz := q.Get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			issues = append(issues, Issue{Path: "tz", Message: "Unknown time zone"})
		} else {
			f.Location = loc
		}
	}

	if v := q.Get("hasIssues"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			issues = append(issues, Issue{Path: "hasIssues", Message: "Expected boolean"})
		} else {
			f.HasIssues = &b
		}
	}

	if v := q.Get("resources"); v != "" {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			kind := ResourceKind(tok)
			if !kind.Valid() {
				issues = append(issues, Issue{Path: "resources", Message: "Unknown resource type '" + tok + "'"})
				continue
			}
			f.Resources = append(f.Resources, kind)
		}
	}

	if v := q.Get("orderBy"); v != "" {
		switch v {
		case OrderByCreatedAt, OrderByDate, OrderByCurrentPhase:
			f.OrderBy = v
		default:
			issues = append(issues, Issue{Path: "orderBy", Message: "Invalid enum value. Expected 'createdAt' | 'date' | 'currentPhase'"})
		}
	}
	if v := q.Get("order"); v != "" {
		switch v {
		case OrderAsc, OrderDesc:
			f.Order = v
		default:
			issues = append(issues, Issue{Path: "order", Message: "Invalid enum value. Expected 'asc' | 'desc'"})
		}
	}

	if len(issues) > 0 {
		return Filters{}, &ValidationError{Issues: issues}
	}
	return f, nil
}

// Values обратное преобразование в query, ключи в каноничном порядке
func (f Filters) Values() url.Values {
	q := url.Values{}
	if f.Date != "" {
		q.Set("date", f.Date)
		if f.Location != nil {
			q.Set("tz", f.Location.String())
		}
	}
	if f.Site != "" {
		q.Set("site", f.Site)
	}
	if f.Phase != "" {
		q.Set("phase", f.Phase)
	}
	if f.HasIssues != nil {
		q.Set("hasIssues", strconv.FormatBool(*f.HasIssues))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if len(f.Resources) > 0 {
		toks := make([]string, len(f.Resources))
		for i, r := range f.Resources {
			toks[i] = string(r)
		}
		q.Set("resources", strings.Join(toks, ","))
	}
	if f.OrderBy != "" {
		q.Set("orderBy", f.OrderBy)
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}
	return q
}

func (r ResourceKind) Valid() bool {
	for _, k := range ResourceKinds {
		if k == r {
			return true
		}
	}
	return false
}

// DateWindow границы календарного дня в зоне запроса: [start, end), end это следующая полночь
func (f Filters) DateWindow() (start, end time.Time, ok bool) {
	if f.Date == "" {
		return time.Time{}, time.Time{}, false
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(dayLayout, f.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1)
	return start, end, true
}

// Match то же условие, что строит SQL-фильтр, для хранилища в памяти
func (f Filters) Match(d SiteDiary) bool {
	if f.Site != "" && d.SiteLocation != f.Site {
		return false
	}
	if f.Phase != "" && !strings.EqualFold(d.CurrentPhase, f.Phase) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.CurrentPhase), needle) &&
			!strings.Contains(strings.ToLower(d.Description), needle) {
			return false
		}
	}
	if f.HasIssues != nil && d.HasDelaysOrIssues != *f.HasIssues {
		return false
	}
	if start, end, ok := f.DateWindow(); ok {
		if d.Date.Before(start) || !d.Date.Before(end) {
			return false
		}
	}
	if len(f.Resources) > 0 {
		found := false
		for _, r := range f.Resources {
			if HasResource(d, r) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// HasResource сообщает, заполнен ли ресурс данного вида
func HasResource(d SiteDiary, kind ResourceKind) bool {
	switch kind {
	case ResourceWeather:
		return d.Weather != ""
	case ResourceVisitors:
		return len(d.Visitors) > 0
	case ResourceLabor:
		return d.Labor != ""
	case ResourceEquipment:
		return d.Equipment != ""
	case ResourceMaterials:
		return d.Materials != ""
	case ResourcePhotos:
		return len(d.Images) > 0
	}
	return false
}

// SortDiaries сортирует по одному полю; равные элементы сохраняют исходный порядок
func SortDiaries(list []SiteDiary, orderBy, order string) {
	desc := order == OrderDesc
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var less, greater bool
		switch orderBy {
		case OrderByDate:
			less, greater = a.Date.Before(b.Date), a.Date.After(b.Date)
		case OrderByCurrentPhase:
			less, greater = a.CurrentPhase < b.CurrentPhase, a.CurrentPhase > b.CurrentPhase
		default:
			less, greater = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.After(b.CreatedAt)
		}
		if desc {
			return greater
		}
		return less
	})
}
