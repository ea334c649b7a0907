// Package usage loads per-application syscall usage reports.
//
// Each report is a JSON document produced by a syscall analysis
// toolchain, one file per application. A document carries up to two
// optional sections — static_data (binary analysis) and dynamic_data
// (runtime trace) — each holding a system_calls collection of syscall
// symbols. Both sections union into one symbol set per application.
package usage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ParseError describes a structurally invalid application report. It is
// fatal for the whole run; there is no partial-results mode.
type ParseError struct {
	File    string
	Section string // offending section name; empty for whole-document errors
	Err     error
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("usage: %s: section %q: %v", e.File, e.Section, e.Err)
	}
	return fmt.Sprintf("usage: %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SymbolSet is a decoded system_calls collection. The analysis toolchain
// emits either an object keyed by symbol (values are counts or details)
// or a bare array of symbol strings; both shapes decode to the symbol
// list in document order.
type SymbolSet struct {
	Symbols []string
}

func (s *SymbolSet) UnmarshalJSON(data []byte) error {
	trim := bytes.TrimLeft(data, " \t\r\n")
	if len(trim) == 0 {
		return errors.New("system_calls: empty value")
	}
	switch trim[0] {
	case '{':
		// Keyed object: the keys are the symbols. Decoded token-wise so
		// document order survives (json.Unmarshal into a map would not).
		dec := json.NewDecoder(bytes.NewReader(trim))
		if _, err := dec.Token(); err != nil { // opening brace
			return fmt.Errorf("system_calls: %w", err)
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("system_calls: %w", err)
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("system_calls: non-string key %v", tok)
			}
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("system_calls: value for %q: %w", key, err)
			}
			s.Symbols = append(s.Symbols, key)
		}
		return nil
	case '[':
		var arr []string
		if err := json.Unmarshal(trim, &arr); err != nil {
			return fmt.Errorf("system_calls: %w", err)
		}
		s.Symbols = arr
		return nil
	default:
		return errors.New("system_calls: must be an object or an array of strings")
	}
}

// Section is one extraction method's results within a report.
type Section struct {
	SystemCalls *SymbolSet `json:"system_calls"`
}

// Report is one per-application JSON document. Both sections are
// optional; an absent section contributes zero symbols.
type Report struct {
	StaticData  *Section `json:"static_data"`
	DynamicData *Section `json:"dynamic_data"`
}

// Symbols returns the union of both sections' symbols, duplicates
// collapsed, in first-seen order. The aggregator defines no sort of its
// own, so this order is what it processes.
func (r *Report) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, sec := range []*Section{r.StaticData, r.DynamicData} {
		if sec == nil || sec.SystemCalls == nil {
			continue
		}
		for _, sym := range sec.SystemCalls.Symbols {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

// Parse decodes one application report. A section that is present but
// lacks the system_calls key is a structural error: the toolchain always
// writes it, so its absence means a malformed report, not an empty one.
func Parse(file string, data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ParseError{File: file, Err: err}
	}
	for _, s := range []struct {
		name string
		sec  *Section
	}{
		{"static_data", r.StaticData},
		{"dynamic_data", r.DynamicData},
	} {
		if s.sec != nil && s.sec.SystemCalls == nil {
			return nil, &ParseError{File: file, Section: s.name, Err: errors.New(`missing "system_calls" key`)}
		}
	}
	return &r, nil
}

// Application pairs a parsed report with the name derived from its
// filename (suffix stripped).
type Application struct {
	Name   string
	Report *Report
}

// WalkDir reads every report under root whose filename ends in suffix
// (matched case-sensitively), recursing into subdirectories. Files are
// visited in lexical order within each directory. Any read or parse
// failure aborts the walk.
func WalkDir(root, suffix string) ([]Application, error) {
	var apps []Application
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("usage: read %s: %w", path, err)
		}
		rep, err := Parse(path, data)
		if err != nil {
			return err
		}
		apps = append(apps, Application{
			Name:   strings.TrimSuffix(d.Name(), suffix),
			Report: rep,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}
