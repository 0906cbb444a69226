package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"sitediary/models"
)

const (
	SheetName   = "Site Diary"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header колонки выгрузки
var Header = []string{
	"ID",
	"Date",
	"Site",
	"Weather",
	"Current Phase",
	"Description",
	"Work Completed",
	"Delays / Issues",
	"Labor",
	"Equipment",
	"Materials",
	"Visitors",
	"Photos",
	"Created At",
	"Updated At",
}

var colWidths = []float64{8, 12, 24, 16, 18, 40, 40, 40, 24, 24, 24, 30, 10, 20, 20}

// Workbook строит xlsx со всеми переданными записями в исходном порядке
func Workbook(diaries []models.SiteDiary, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, errors.Wrap(err, "create sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "delete default sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "header style")
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "cell style")
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, colWidths[i]); err != nil {
			return nil, err
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, d := range diaries {
		row := []interface{}{
			d.ID,
			d.Date.In(loc).Format("2006-01-02"),
			models.SiteName(d.SiteLocation),
			d.Weather,
			d.CurrentPhase,
			d.Description,
			d.WorkCompleted,
			issuesCell(d),
			d.Labor,
			d.Equipment,
			d.Materials,
			visitorsCell(d.Visitors),
			len(d.Images),
			d.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			d.UpdatedAt.In(loc).Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+2)
		}
	}
	if len(diaries) > 0 {
		last := fmt.Sprintf("%s%d", lastCol, len(diaries)+1)
		if err := f.SetCellStyle(SheetName, "A2", last, wrapStyle); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

// FileName имя файла выгрузки на момент now
func FileName(now time.Time) string {
	return fmt.Sprintf("site-diary-%s.xlsx", now.Format("20060102-150405"))
}

func issuesCell(d models.SiteDiary) string {
	if !d.HasDelaysOrIssues {
		return ""
	}
	return d.DelaysOrIssues
}

func visitorsCell(vs models.Visitors) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		label := models.VisitorTypeLabels[v.Type]
		if label == "" {
			label = v.Type
		}
		s := fmt.Sprintf("%s (%s)", v.Name, label)
		if v.Company != "" {
			s += ", " + v.Company
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
