// Package export renders monthly reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/warp/absence-ledger/generic"
	"github.com/warp/absence-ledger/timeoff"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet  = "Riepilogo"
	AbsencesSheet = "Assenze"
)

var italianMonths = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// MonthName returns the Italian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return italianMonths[m-1]
}

// WriteMonthlyReport writes a two-sheet workbook: the report summary and
// the month's absences in date order.
func WriteMonthlyReport(w io.Writer, report timeoff.MonthlyReport, absences []timeoff.Absence) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeSummary(f, bold, report); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeAbsences(f, bold, report, absences); err != nil {
		return fmt.Errorf("absences sheet: %w", err)
	}

	return f.Write(w)
}

func writeSummary(f *excelize.File, bold int, report timeoff.MonthlyReport) error {
	rows := [][]interface{}{
		{fmt.Sprintf("Report %s %d", MonthName(report.Month), report.Year)},
		{},
		{"Giorni lavorativi", report.WorkingDays},
		{"Buoni pasto spettanti", report.MealTickets.Eligible},
		{"Detrazioni", report.MealTickets.Deductions},
		{"Buoni pasto", report.MealTickets.Total},
		{},
		{"Tipo", "Ore"},
	}
	for _, t := range timeoff.AllTypes() {
		rows = append(rows, []interface{}{t.String(), report.Totals.Get(t).InexactFloat64()})
	}
	rows = append(rows, []interface{}{"Totale", report.TotalHours.InexactFloat64()})

	if err := setRows(f, SummarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A8", "B8", bold); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 26)
}

func writeAbsences(f *excelize.File, bold int, report timeoff.MonthlyReport, absences []timeoff.Absence) error {
	if _, err := f.NewSheet(AbsencesSheet); err != nil {
		return err
	}

	period := generic.MonthPeriod(report.Year, report.Month)
	rows := [][]interface{}{{"Data", "Tipo", "Ore"}}
	for _, day := range period.Days() {
		for _, a := range absences {
			if a.Date.Equal(day) {
				rows = append(rows, []interface{}{a.Date.String(), a.Type.String(), a.Hours.InexactFloat64()})
			}
		}
	}

	if err := setRows(f, AbsencesSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(AbsencesSheet, "A1", "C1", bold); err != nil {
		return err
	}
	return f.SetColWidth(AbsencesSheet, "A", "B", 24)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
