package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"syscover/internal/aggregate"
	"syscover/internal/config"
	"syscover/internal/render"
	"syscover/internal/scan"
	"syscover/internal/sheet"
	"syscover/internal/usage"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands []command

func init() {
	commands = []command{
		{
			name:  "report",
			short: "Print syscall coverage reports as CSV",
			usage: "syscover report [-a] [-s]",
			long: `Load the status spreadsheet and the application report directory
(per .syscover/settings.yaml), aggregate them, and print CSV to stdout.

  -a, --apps      per-application status counts
  -s, --syscalls  per-syscall usage across applications

Both flags may be combined; with neither, the data is still loaded and
aggregated but nothing is printed.
`,
			run: runReport,
		},
		{
			name:  "scan",
			short: "Extract syscall usage from a Go source tree",
			usage: "syscover scan [-app name] [-o dir] <dir>",
			long: `Statically analyze the Go sources under <dir> for syscall and unix
package call sites and write an application report JSON in the format
the report loader reads.

  -app name   application name (default: base name of <dir>)
  -o dir      output directory (default: current directory)
`,
			run: runScan,
		},
		{
			name:  "aggregate",
			short: "Write aggregated per-syscall usage counts as JSON",
			usage: "syscover aggregate [-o file]",
			long: `Perform the same load and join as 'report' and write a JSON object
mapping each syscall name to the number of applications using it.

  -o file   output path (default: aggregated.json)
`,
			run: runAggregate,
		},
		{
			name:  "init",
			short: "Create .syscover/settings.yaml interactively",
			usage: "syscover init",
			long: `Prompt for the status spreadsheet path, the application report
directory, and the report filename suffix, then write
.syscover/settings.yaml. Empty answers keep the defaults.

Errors if the settings file already exists.
`,
			run: runInit,
		},
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "syscover — syscall implementation coverage reports\n\n")
	fmt.Fprintf(w, "Usage:\n  syscover <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'syscover help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "syscover: unknown command %q\n\nRun 'syscover help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	// Bare flags keep the original invocation working: `syscover -a -s`
	// is `syscover report -a -s`.
	if strings.HasPrefix(args[0], "-") {
		return runReport(args)
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'syscover help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// report
// ---------------------------------------------------------------------------

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	var apps, syscalls bool
	fs.BoolVar(&apps, "a", false, "print per-application status counts")
	fs.BoolVar(&apps, "apps", false, "print per-application status counts")
	fs.BoolVar(&syscalls, "s", false, "print per-syscall usage counts")
	fs.BoolVar(&syscalls, "syscalls", false, "print per-syscall usage counts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("usage: %s", commandUsage("report"))
	}

	agg, err := loadAndAggregate(".")
	if err != nil {
		return err
	}
	if apps {
		if err := render.AppReport(os.Stdout, agg.Applications()); err != nil {
			return fmt.Errorf("app report: %w", err)
		}
	}
	if syscalls {
		if err := render.SyscallReport(os.Stdout, agg.Syscalls(), agg.Undefined()); err != nil {
			return fmt.Errorf("syscall report: %w", err)
		}
	}
	return nil
}

// loadAndAggregate runs the whole load/join pipeline rooted at dir:
// settings, spreadsheet, report walk, aggregation. Relative input paths
// resolve against dir.
func loadAndAggregate(dir string) (*aggregate.Aggregator, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	records, err := sheet.Load(resolve(dir, cfg.Sheet))
	if err != nil {
		return nil, err
	}
	apps, err := usage.WalkDir(resolve(dir, cfg.Reports), cfg.Suffix)
	if err != nil {
		return nil, err
	}

	agg := aggregate.New()
	agg.AddSheet(records)
	for _, app := range apps {
		agg.AddApplication(app.Name, app.Report.Symbols())
	}
	return agg, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func commandUsage(name string) string {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.usage
		}
	}
	return name
}

// ---------------------------------------------------------------------------
// scan
// ---------------------------------------------------------------------------

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	app := fs.String("app", "", "application name (default: base name of <dir>)")
	out := fs.String("o", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s", commandUsage("scan"))
	}
	root := fs.Arg(0)

	name := *app
	if name == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("scan: resolve %s: %w", root, err)
		}
		name = filepath.Base(abs)
	}

	res, err := scan.Dir(root)
	if err != nil {
		return err
	}
	path, err := scan.WriteReport(res, name, config.DefaultSuffix, *out)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d syscalls)\n", path, len(res))
	return nil
}

// ---------------------------------------------------------------------------
// aggregate
// ---------------------------------------------------------------------------

func runAggregate(args []string) error {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	out := fs.String("o", "aggregated.json", "output path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("usage: %s", commandUsage("aggregate"))
	}

	agg, err := loadAndAggregate(".")
	if err != nil {
		return err
	}
	counts := agg.UsageCounts()
	data, err := json.MarshalIndent(counts, "", "    ")
	if err != nil {
		return fmt.Errorf("aggregate: marshal counts: %w", err)
	}
	if err := os.WriteFile(*out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("aggregate: write %s: %w", *out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d syscalls)\n", *out, len(counts))
	return nil
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: %s", commandUsage("init"))
	}

	questions := []question{
		{key: "sheet", prompt: "Status spreadsheet path", placeholder: config.DefaultSheet},
		{key: "reports", prompt: "Application report directory", placeholder: config.DefaultReports},
		{key: "suffix", prompt: "Report filename suffix", placeholder: config.DefaultSuffix},
	}
	answers, err := promptQuestions(questions)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	s := config.Default()
	if v := answers["sheet"]; v != "" {
		s.Sheet = v
	}
	if v := answers["reports"]; v != "" {
		s.Reports = v
	}
	if v := answers["suffix"]; v != "" {
		s.Suffix = v
	}
	if err := config.Save(".", s); err != nil {
		return err
	}
	fmt.Printf("wrote .syscover/settings.yaml (sheet=%s reports=%s)\n", s.Sheet, s.Reports)
	return nil
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

// question is a single settings prompt.
type question struct {
	key         string
	prompt      string
	placeholder string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.placeholder
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// promptQuestions runs the TUI and returns answers keyed by question key.
func promptQuestions(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		answers[q.key] = final.inputs[i].Value()
	}
	return answers, nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
