// Package aggregate joins the syscall status table with per-application
// usage reports.
//
// One Aggregator value owns all state for a run: the syscall records
// seeded from the spreadsheet, the per-application status buckets, and
// the table of symbols no spreadsheet row defines. Maps carry the data;
// insertion-order slices beside them carry the report order, because the
// reports must iterate in load order and Go maps do not.
package aggregate

import (
	"syscover/internal/sheet"
)

// SyscallRecord tracks one status-table entry and the applications that
// reference it, in load order.
type SyscallRecord struct {
	ID     int
	Name   string
	Status sheet.Status
	Apps   []string
}

// ApplicationRecord partitions an application's referenced syscalls by
// status. Symbols absent from the status table land in the ABSENT
// bucket.
type ApplicationRecord struct {
	Name    string
	Buckets map[sheet.Status][]string
}

// Count returns the bucket length for one status.
func (r *ApplicationRecord) Count(s sheet.Status) int {
	return len(r.Buckets[s])
}

// UndefinedSyscallRecord tracks a symbol referenced by applications but
// absent from the status table, e.g. 32-bit syscalls the status
// document does not cover.
type UndefinedSyscallRecord struct {
	Name string
	Apps []string
}

// Aggregator owns the three joined mappings for the duration of one run.
type Aggregator struct {
	syscalls     map[string]*SyscallRecord
	syscallOrder []string

	apps     map[string]*ApplicationRecord
	appOrder []string

	undefined      map[string]*UndefinedSyscallRecord
	undefinedOrder []string
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		syscalls:  make(map[string]*SyscallRecord),
		apps:      make(map[string]*ApplicationRecord),
		undefined: make(map[string]*UndefinedSyscallRecord),
	}
}

// AddSheet seeds syscall records from status-table rows. A name that
// appears twice keeps the later row's id and status in the earlier
// row's position (dictionary semantics: last row wins).
func (a *Aggregator) AddSheet(records []sheet.Record) {
	for _, r := range records {
		if existing, ok := a.syscalls[r.Name]; ok {
			existing.ID = r.ID
			existing.Status = r.Status
			existing.Apps = nil
			continue
		}
		a.syscalls[r.Name] = &SyscallRecord{ID: r.ID, Name: r.Name, Status: r.Status}
		a.syscallOrder = append(a.syscallOrder, r.Name)
	}
}

// AddApplication buckets every symbol the application references and
// back-fills the per-syscall application lists. A known symbol joins
// the bucket for its current status; an unknown symbol joins the ABSENT
// bucket and the undefined-syscalls table. Re-adding an application
// name replaces its record without duplicating its report position.
func (a *Aggregator) AddApplication(name string, symbols []string) {
	rec := &ApplicationRecord{
		Name:    name,
		Buckets: make(map[sheet.Status][]string, len(sheet.AllStatuses)),
	}
	for _, s := range sheet.AllStatuses {
		rec.Buckets[s] = []string{}
	}

	for _, sym := range symbols {
		if sc, ok := a.syscalls[sym]; ok {
			rec.Buckets[sc.Status] = append(rec.Buckets[sc.Status], sym)
			sc.Apps = append(sc.Apps, name)
			continue
		}
		rec.Buckets[sheet.Absent] = append(rec.Buckets[sheet.Absent], sym)
		u, ok := a.undefined[sym]
		if !ok {
			u = &UndefinedSyscallRecord{Name: sym}
			a.undefined[sym] = u
			a.undefinedOrder = append(a.undefinedOrder, sym)
		}
		u.Apps = append(u.Apps, name)
	}

	if _, ok := a.apps[name]; !ok {
		a.appOrder = append(a.appOrder, name)
	}
	a.apps[name] = rec
}

// Syscalls returns the status-table records in sheet order.
func (a *Aggregator) Syscalls() []*SyscallRecord {
	out := make([]*SyscallRecord, 0, len(a.syscallOrder))
	for _, name := range a.syscallOrder {
		out = append(out, a.syscalls[name])
	}
	return out
}

// Lookup returns the syscall record for name, or nil if the status
// table does not define it.
func (a *Aggregator) Lookup(name string) *SyscallRecord {
	return a.syscalls[name]
}

// Applications returns application records in load order.
func (a *Aggregator) Applications() []*ApplicationRecord {
	out := make([]*ApplicationRecord, 0, len(a.appOrder))
	for _, name := range a.appOrder {
		out = append(out, a.apps[name])
	}
	return out
}

// Application returns the record for one application name, or nil.
func (a *Aggregator) Application(name string) *ApplicationRecord {
	return a.apps[name]
}

// Undefined returns undefined-syscall records in first-reference order.
func (a *Aggregator) Undefined() []*UndefinedSyscallRecord {
	out := make([]*UndefinedSyscallRecord, 0, len(a.undefinedOrder))
	for _, name := range a.undefinedOrder {
		out = append(out, a.undefined[name])
	}
	return out
}

// UsageCounts returns name → number of referencing applications for
// every sheet syscall and every undefined syscall. Sheet syscalls no
// application uses appear with a zero count.
func (a *Aggregator) UsageCounts() map[string]int {
	counts := make(map[string]int, len(a.syscalls)+len(a.undefined))
	for name, rec := range a.syscalls {
		counts[name] = len(rec.Apps)
	}
	for name, rec := range a.undefined {
		counts[name] = len(rec.Apps)
	}
	return counts
}
