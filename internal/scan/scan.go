// Package scan extracts system-call usage from a Go source tree and
// writes an application report in the same JSON schema the usage loader
// reads — the "static data" half of the analysis toolchain.
//
// A call site counts when its selector base is the syscall or unix
// package; the Go wrapper name is lowercased to the kernel symbol
// convention the status table uses ("Openat" → "openat").
package scan

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// syscallPackages are the selector bases counted as syscall call sites.
var syscallPackages = map[string]bool{
	"syscall": true,
	"unix":    true,
}

// Result maps syscall symbol → call-site count for one source tree.
type Result map[string]int

// Dir analyzes every non-test .go file under root. Packages are loaded
// with go/packages where possible; files the loader cannot place fall
// back to a bare syntax parse, which is enough for call-site counting.
func Dir(root string) (Result, error) {
	filesByDir, err := collectGoFiles(root)
	if err != nil {
		return nil, fmt.Errorf("scan: walk %s: %w", root, err)
	}

	res := make(Result)
	for _, dir := range sortedKeys(filesByDir) {
		files := filesByDir[dir]
		sort.Strings(files)

		pkg, fset, _ := loadPackageForDir(dir)
		for _, absPath := range files {
			file := syntaxFor(pkg, fset, absPath)
			if file == nil {
				file, err = parser.ParseFile(token.NewFileSet(), absPath, nil, 0)
				if err != nil {
					return nil, fmt.Errorf("scan: parse %s: %w", absPath, err)
				}
			}
			collectCalls(file, res)
		}
	}
	return res, nil
}

// File analyzes a single Go source file.
func File(path string) (Result, error) {
	file, err := parser.ParseFile(token.NewFileSet(), path, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("scan: parse %s: %w", path, err)
	}
	res := make(Result)
	collectCalls(file, res)
	return res, nil
}

// reportDoc is the on-disk report shape: the object-keyed system_calls
// collection under static_data.
type reportDoc struct {
	StaticData struct {
		SystemCalls Result `json:"system_calls"`
	} `json:"static_data"`
}

// WriteReport writes res as <app><suffix> in outDir and returns the
// written path.
func WriteReport(res Result, app, suffix, outDir string) (string, error) {
	var doc reportDoc
	doc.StaticData.SystemCalls = res
	data, err := json.MarshalIndent(&doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("scan: marshal report: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("scan: create %s: %w", outDir, err)
	}
	path := filepath.Join(outDir, app+suffix)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("scan: write %s: %w", path, err)
	}
	return path, nil
}

// ---------------------------------------------------------------------------
// File collection
// ---------------------------------------------------------------------------

func collectGoFiles(root string) (map[string][]string, error) {
	filesByDir := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			return nil
		}
		dir := filepath.Dir(path)
		filesByDir[dir] = append(filesByDir[dir], path)
		return nil
	})
	return filesByDir, err
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// Package loading
// ---------------------------------------------------------------------------

func loadPackageForDir(dir string) (*packages.Package, *token.FileSet, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedFiles,
		Dir:  dir,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, nil, err
	}
	if len(pkgs) == 0 {
		return nil, nil, fmt.Errorf("no packages found")
	}
	return pkgs[0], fset, nil
}

// syntaxFor returns the loaded syntax tree for absPath, or nil when the
// package loader did not produce one.
func syntaxFor(pkg *packages.Package, fset *token.FileSet, absPath string) *ast.File {
	if pkg == nil || fset == nil {
		return nil
	}
	for _, f := range pkg.Syntax {
		if fset.Position(f.Pos()).Filename == absPath {
			return f
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Call-site extraction
// ---------------------------------------------------------------------------

// collectCalls records every syscall-package call expression in file.
func collectCalls(file *ast.File, res Result) {
	ast.Inspect(file, func(n ast.Node) bool {
		ce, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := ce.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok || !syscallPackages[ident.Name] {
			return true
		}
		res[kernelSymbol(sel.Sel.Name)]++
		return true
	})
}

// kernelSymbol converts a Go wrapper name to the lowercase symbol
// convention of the status table.
func kernelSymbol(name string) string {
	return strings.ToLower(name)
}
