// Package render writes the two CSV reports over a finished aggregation.
//
// Both writers are pure over their inputs: they read the aggregator's
// records and emit rows, nothing else. Fields are assumed comma-free
// (syscall names, app names, status constants), so the csv writer never
// needs to quote and the output is plain comma-delimited text.
package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"syscover/internal/aggregate"
	"syscover/internal/sheet"
)

// appHeader is the historical column set of the application report.
// Column order is fixed; total precedes the nine bucket counts.
var appHeader = []string{
	"app", "total", "okay", "not_impl", "reg_miss", "incomplete",
	"stubbed", "planned", "broken", "in_progress", "absent",
}

// appBuckets pairs the header's count columns with their statuses, in
// column order (reg_miss before incomplete, unlike the enum order).
var appBuckets = []sheet.Status{
	sheet.Okay, sheet.NotImpl, sheet.RegMiss, sheet.Incomplete,
	sheet.Stubbed, sheet.Planned, sheet.Broken, sheet.InProgress,
	sheet.Absent,
}

// AppReport writes per-application status counts as CSV: one header
// row, then one row per application in load order. total is the sum of
// all nine bucket counts, computed before the row is written.
func AppReport(w io.Writer, apps []*aggregate.ApplicationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(appHeader); err != nil {
		return err
	}
	for _, app := range apps {
		counts := make([]int, len(appBuckets))
		total := 0
		for i, s := range appBuckets {
			counts[i] = app.Count(s)
			total += counts[i]
		}
		row := make([]string, 0, len(appHeader))
		row = append(row, app.Name, strconv.Itoa(total))
		for _, c := range counts {
			row = append(row, strconv.Itoa(c))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// syscallHeader is the fixed column set of the popularity report.
var syscallHeader = []string{"syscall", "status", "num_apps"}

// SyscallReport writes per-syscall usage counts as CSV: one row per
// status-table record in sheet order, then one row per undefined
// syscall in first-reference order with a fixed ABSENT status.
func SyscallReport(w io.Writer, syscalls []*aggregate.SyscallRecord, undefined []*aggregate.UndefinedSyscallRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(syscallHeader); err != nil {
		return err
	}
	for _, sc := range syscalls {
		if err := cw.Write([]string{sc.Name, string(sc.Status), strconv.Itoa(len(sc.Apps))}); err != nil {
			return err
		}
	}
	for _, u := range undefined {
		if err := cw.Write([]string{u.Name, string(sheet.Absent), strconv.Itoa(len(u.Apps))}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
