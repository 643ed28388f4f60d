package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/robinvdvleuten/capitalg/config"
	"github.com/robinvdvleuten/capitalg/ledger"
	"github.com/robinvdvleuten/capitalg/loader"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/writer"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

type CalculateCmd struct {
	Timezone    string `short:"t" default:"UTC" env:"CAPITALG_TIMEZONE" help:"Tax reporting timezone, e.g. Australia/Sydney."`
	QueueType   string `short:"q" required:"" enum:"fifo,lifo" env:"CAPITALG_QUEUE_TYPE" help:"Capital gains accounting method (${enum})."`
	TaxCurrency string `short:"c" required:"" env:"CAPITALG_TAX_CURRENCY" help:"Currency in which tax is paid."`
	TaxYearEnd  string `short:"d" required:"" env:"CAPITALG_TAX_YEAR_END" help:"The last day of the latest complete tax year (YYYY-MM-DD). Gains of all prior years are calculated as well."`
	FolderPath  string `short:"p" default:"files" type:"path" env:"CAPITALG_FOLDER_PATH" help:"Folder containing the input and output files."`
	Watch       bool   `help:"Recalculate whenever the input files change."`
	Yes         bool   `short:"y" help:"Overwrite existing output files without asking."`
}

// calculation holds the validated settings of a run.
type calculation struct {
	Dir         string
	TaxCurrency string
	Location    *time.Location
	Year        record.TaxYear
	Method      ledger.Method
}

// calculationResult is what a run produced.
type calculationResult struct {
	Transactions int
	Events       []*ledger.GainEvent
	Unallocated  []ledger.Lot
}

// inYear counts the gain events dated inside year.
func (r *calculationResult) inYear(year record.TaxYear) int {
	n := 0
	for _, event := range r.Events {
		if year.Contains(event.Disposal.Date) {
			n++
		}
	}
	return n
}

func (cmd *CalculateCmd) Run(ctx *kong.Context, globals *Globals) error {
	calc, err := cmd.calculation()
	if err != nil {
		return err
	}

	if !cmd.Yes && isTerminal() {
		if existing := existingOutputs(calc.Dir); len(existing) > 0 {
			confirm, err := promptYesNo(fmt.Sprintf("Overwrite %s in %s?", strings.Join(existing, ", "), calc.Dir))
			if err != nil {
				return err
			}
			if !confirm {
				printInfof(ctx.Stdout, "Nothing written")
				return nil
			}
		}
	}

	ok := cmd.run(ctx, globals, calc)
	if !cmd.Watch {
		if !ok {
			return NewCommandError(1)
		}
		return nil
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printInfof(ctx.Stdout, "Watching %s for changes, press Ctrl+C to stop", pathStyle.Render(calc.Dir))
	return watchInputs(sigCtx, calc.Dir, func() {
		_, _ = fmt.Fprintln(ctx.Stdout)
		cmd.run(ctx, globals, calc)
	}, func(err error) {
		printError(ctx.Stderr, err.Error())
	})
}

func (cmd *CalculateCmd) calculation() (calculation, error) {
	if err := config.ValidateCurrency(cmd.TaxCurrency); err != nil {
		return calculation{}, err
	}

	loc, err := record.LoadLocation(cmd.Timezone)
	if err != nil {
		return calculation{}, err
	}

	year, err := record.ParseTaxYear(cmd.TaxYearEnd, loc)
	if err != nil {
		return calculation{}, err
	}

	method, err := ledger.ParseMethod(cmd.QueueType)
	if err != nil {
		return calculation{}, err
	}

	return calculation{
		Dir:         cmd.FolderPath,
		TaxCurrency: strings.ToLower(strings.TrimSpace(cmd.TaxCurrency)),
		Location:    loc,
		Year:        year,
		Method:      method,
	}, nil
}

// run performs one calculation and prints its outcome. It reports whether
// the calculation succeeded.
func (cmd *CalculateCmd) run(ctx *kong.Context, globals *Globals, calc calculation) bool {
	runCtx, reportTelemetry := startTelemetry(context.Background(), globals, fmt.Sprintf("calculate %s", filepath.Base(calc.Dir)), ctx.Stderr)
	defer reportTelemetry()

	printInfof(ctx.Stdout, "Calculating capital gains (%s, %s)", calc.Method, calc.TaxCurrency)

	result, err := runCalculation(runCtx, calc)
	if err != nil {
		renderError(ctx.Stderr, globals, err)
		if !globals.jsonErrors() {
			_, _ = fmt.Fprintln(ctx.Stderr)
			printError(ctx.Stderr, "calculation failed")
		}
		return false
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Processed %d transactions into %d capital gain events, %d in tax year %s",
		result.Transactions, len(result.Events), result.inYear(calc.Year), calc.Year))
	printInfof(ctx.Stdout, "Output files are available in %s", pathStyle.Render(calc.Dir))
	return true
}

// runCalculation loads the folder, matches disposals against acquisitions
// and writes every output file. Outputs are staged next to their final paths
// and only replace the previous run's files once all of them were written.
func runCalculation(ctx context.Context, calc calculation) (*calculationResult, error) {
	ldr := loader.New(calc.TaxCurrency, loader.WithLocation(calc.Location), loader.WithCutoff(calc.Year.End))
	loaded, err := ldr.Load(ctx, calc.Dir)
	if err != nil {
		return nil, err
	}

	outputs := newOutputSet(calc.Dir)
	defer outputs.discard()

	if len(loaded.Transactions) > 0 {
		err := outputs.create(loader.FileFormatted, func(out io.Writer) error {
			return writer.WriteTransactions(out, loaded.Transactions)
		})
		if err != nil {
			return nil, err
		}
	}

	l := ledger.New(&ledger.Config{Method: calc.Method, LongTermDays: ledger.DefaultLongTermDays})
	err = outputs.create(loader.FileEvents, func(events io.Writer) error {
		return outputs.create(loader.FileCostBase, func(costBase io.Writer) error {
			w, err := writer.New(events, costBase)
			if err != nil {
				return err
			}
			if err := l.Process(ctx, loaded.Transactions, w); err != nil {
				return err
			}
			return w.Flush()
		})
	})
	if err != nil {
		return nil, err
	}

	unallocated := l.Unallocated()
	err = outputs.create(loader.FileUnallocated, func(out io.Writer) error {
		return writer.WriteUnallocated(out, unallocated)
	})
	if err != nil {
		return nil, err
	}

	if err := outputs.commit(); err != nil {
		return nil, err
	}

	return &calculationResult{
		Transactions: len(loaded.Transactions),
		Events:       l.Events(),
		Unallocated:  unallocated,
	}, nil
}

// outputSet holds the output files of a run in temporary files inside dir
// until commit moves them over the final names.
type outputSet struct {
	dir    string
	staged map[string]string
}

func newOutputSet(dir string) *outputSet {
	return &outputSet{dir: dir, staged: make(map[string]string)}
}

func (s *outputSet) create(name string, fn func(io.Writer) error) (err error) {
	path := filepath.Join(s.dir, name)
	f, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	s.staged[name] = f.Name()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return fn(f)
}

// commit replaces the outputs in dir with the staged files. An output that
// was not staged is removed so no file of an earlier run is left behind.
func (s *outputSet) commit() error {
	for _, name := range loader.Outputs {
		path := filepath.Join(s.dir, name)
		tmp, ok := s.staged[name]
		if !ok {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
		delete(s.staged, name)
	}
	return nil
}

// discard removes whatever is still staged.
func (s *outputSet) discard() {
	for name, tmp := range s.staged {
		_ = os.Remove(tmp)
		delete(s.staged, name)
	}
}

// existingOutputs lists the output files already present in dir.
func existingOutputs(dir string) []string {
	var existing []string
	for _, name := range loader.Outputs {
		if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, fs.ErrNotExist) {
			existing = append(existing, name)
		}
	}
	return existing
}

// isInputEvent reports whether event changes one of the files a calculation
// reads. Outputs are written to the same folder and must not retrigger it.
func isInputEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	switch filepath.Base(event.Name) {
	case loader.FileTransactions, loader.FileRates:
		return true
	}
	return false
}

// watchInputs calls onChange after the inputs in dir change until ctx is
// done. The folder is watched rather than the files because editors often
// replace a file on save.
func watchInputs(ctx context.Context, dir string, onChange func(), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isInputEvent(event) {
				debounce = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		case <-debounce:
			debounce = nil
			onChange()
		}
	}
}
