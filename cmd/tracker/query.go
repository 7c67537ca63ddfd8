package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/absence-ledger/export"
	"github.com/warp/absence-ledger/generic"
	"github.com/warp/absence-ledger/timeoff"
)

func newStatsCmd(a *app) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-type hour statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := timeoff.ReferenceAt(generic.Today())
			if view != "" {
				viewed, err := generic.ParseDate(view)
				if err != nil {
					return err
				}
				ref.Viewed = viewed
			}

			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			snap, err := ledger.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), timeoff.ComputeStats(snap.Absences, snap.HourBank, ref), ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "Viewed day YYYY-MM-DD; its month sets the accrual (default today)")
	return cmd
}

func printStats(out io.Writer, stats timeoff.Stats, ref timeoff.Reference) {
	fmt.Fprintf(out, "Today %s, viewing %s %d, %d working days left this year\n\n",
		ref.Today, export.MonthName(ref.Viewed.Month()), ref.Viewed.Year(),
		timeoff.RemainingWorkingDaysInYear(ref.Today))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TYPE\tCONSUMED\tPLANNED\tAVAILABLE\tRESIDUAL\tBALANCE\tDAYS\t")
	for _, t := range timeoff.AllTypes() {
		s := stats.Get(t)
		if t.IsDisplayOnly() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\t\n", t, s.Consumed, s.Planned)
			continue
		}
		balance := s.Balance.String()
		if s.IsOverdrawn() {
			balance += "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			t, s.Consumed, s.Planned, s.TotalAvailable, s.Residual, balance, s.BalanceDays().StringFixed(1))
	}
	tw.Flush()
}

func newReportCmd(a *app) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "report YEAR MONTH",
		Short: "Show the report of one month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonthArgs(args[0], args[1])
			if err != nil {
				return err
			}
			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			absences, err := ledger.Absences(cmd.Context())
			if err != nil {
				return err
			}
			report := timeoff.BuildMonthlyReport(absences, year, month)

			if xlsxPath != "" {
				return writeXLSX(xlsxPath, report, absences)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the report to this .xlsx file instead of stdout")
	return cmd
}

func printReport(out io.Writer, r timeoff.MonthlyReport) {
	fmt.Fprintf(out, "%s %d\n", export.MonthName(r.Month), r.Year)
	fmt.Fprintf(out, "Working days:  %d\n", r.WorkingDays)
	fmt.Fprintf(out, "Meal tickets:  %d (eligible %d, deductions %d)\n\n",
		r.MealTickets.Total, r.MealTickets.Eligible, r.MealTickets.Deductions)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range timeoff.AllTypes() {
		fmt.Fprintf(tw, "%s\t%s\n", t, r.Totals.Get(t))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\n", r.TotalHours)
	tw.Flush()
}

func writeXLSX(path string, report timeoff.MonthlyReport, absences []timeoff.Absence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteMonthlyReport(f, report, absences); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newHolidaysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays YEAR",
		Short: "List the public holidays of a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil || year < 1 {
				return fmt.Errorf("invalid year %q", args[0])
			}
			out := cmd.OutOrStdout()
			for _, h := range timeoff.HolidaysInYear(year) {
				fmt.Fprintf(out, "%s  %-9s  %s\n", h.Date, h.Date.Weekday(), h.Name)
			}
			return nil
		},
	}
}

func parseYearMonthArgs(y, m string) (int, time.Month, error) {
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("invalid year %q", y)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", m)
	}
	return year, time.Month(month), nil
}
