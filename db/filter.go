package db

import (
	"fmt"
	"strings"

	"sitediary/models"
)

const diaryColumns = `id, date, site_location, weather, description, current_phase, work_completed,
        has_delays_or_issues, delays_or_issues, labor, equipment, materials, visitors, images,
        created_at, updated_at`

var orderColumns = map[string]string{
	models.OrderByCreatedAt:    "created_at",
	models.OrderByDate:         "date",
	models.OrderByCurrentPhase: "current_phase",
}

// Условие "ресурс заполнен" для каждого вида
var resourcePredicates = map[models.ResourceKind]string{
	models.ResourceWeather:   "weather <> ''",
	models.ResourceVisitors:  "jsonb_array_length(visitors) > 0",
	models.ResourceLabor:     "labor <> ''",
	models.ResourceEquipment: "equipment <> ''",
	models.ResourceMaterials: "materials <> ''",
	models.ResourcePhotos:    "cardinality(images) > 0",
}

// BuildListQuery собирает SELECT по фильтрам.
// Условия объединяются через AND; search и resources внутри себя через OR.
func BuildListQuery(f models.Filters) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Site != "" {
		conds = append(conds, "site_location = "+arg(f.Site))
	}
	if f.Phase != "" {
		conds = append(conds, "LOWER(current_phase) = LOWER("+arg(f.Phase)+")")
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf("(current_phase ILIKE %s OR description ILIKE %s)", p, p))
	}
	if f.HasIssues != nil {
		conds = append(conds, "has_delays_or_issues = "+arg(*f.HasIssues))
	}
	if start, end, ok := f.DateWindow(); ok {
		conds = append(conds, "date >= "+arg(start)+" AND date < "+arg(end))
	}
	if len(f.Resources) > 0 {
		seen := make(map[models.ResourceKind]bool, len(f.Resources))
		var ors []string
		for _, r := range f.Resources {
			pred, ok := resourcePredicates[r]
			if !ok || seen[r] {
				continue
			}
			seen[r] = true
			ors = append(ors, pred)
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	query := "SELECT " + diaryColumns + " FROM site_diary"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	col, ok := orderColumns[f.OrderBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if f.Order == models.OrderAsc {
		dir = "ASC"
	}
	query += " ORDER BY " + col + " " + dir
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
