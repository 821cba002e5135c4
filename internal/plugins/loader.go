// Package plugins discovers native plugins in a directory and runs their
// entry point once, before the IRC session connects.
//
// A plugin is a Go plugin (go build -buildmode=plugin) exporting
//
//	func Execute() int
//
// The returned status is logged and otherwise ignored. A plugin that fails to
// open, lacks the entry point or panics is reported and skipped; the scan
// always goes on to the next file.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"sort"

	"github.com/dalnet/eirc/internal/logger"
	"github.com/dalnet/eirc/internal/metrics"
)

// EntryPoint is the symbol every plugin must export
const EntryPoint = "Execute"

var (
	ErrOpen       = errors.New("cannot open plugin")
	ErrEntryPoint = errors.New("bad entry point")
	ErrPanic      = errors.New("plugin panicked")
)

// Plugin is the capability a loaded library exposes
type Plugin interface {
	Execute() int
}

// PluginFunc adapts a plain entry point function to Plugin
type PluginFunc func() int

func (f PluginFunc) Execute() int {
	return f()
}

// Library is an opened dynamic library. *plugin.Plugin satisfies it.
type Library interface {
	Lookup(symName string) (plugin.Symbol, error)
}

// Opener loads a library from disk
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(path string) (Library, error)

func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}

// NativeOpener opens Go plugins with the standard library loader
var NativeOpener = OpenerFunc(func(path string) (Library, error) {
	return plugin.Open(path)
})

// NativeSuffix is the platform's dynamic library extension
func NativeSuffix() string {
	switch runtime.GOOS {
	case "darwin", "ios":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// Record is a plugin that was opened and executed
type Record struct {
	Path   string
	Status int
}

// Failure is a plugin that could not be opened or run
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarises one scan
type Report struct {
	Loaded   []Record
	Failures []Failure
}

// Err joins every failure, nil when all plugins ran
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Loader scans a single directory for plugins
type Loader struct {
	dir    string
	suffix string
	opener Opener
	log    logger.Logger

	// Go plugins cannot be unloaded, the handles live as long as the process
	libs []Library
}

// Option configures a Loader
type Option func(*Loader)

// WithOpener replaces the native library loader
func WithOpener(o Opener) Option {
	return func(l *Loader) {
		l.opener = o
	}
}

// WithSuffix overrides the file extension that marks a plugin
func WithSuffix(suffix string) Option {
	return func(l *Loader) {
		l.suffix = suffix
	}
}

// NewLoader creates a loader for dir
func NewLoader(dir string, log logger.Logger, opts ...Option) *Loader {
	l := &Loader{
		dir:    dir,
		suffix: NativeSuffix(),
		opener: NativeOpener,
		log:    log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Candidates lists the files in the directory that look like plugins, sorted by name
func (l *Loader) Candidates() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != l.suffix {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// DiscoverAndRun opens every plugin in the directory and invokes its entry
// point once. Per-plugin failures end up in the report; the returned error
// is only set when the directory itself cannot be listed.
func (l *Loader) DiscoverAndRun() (*Report, error) {
	report := &Report{}

	paths, err := l.Candidates()
	if errors.Is(err, os.ErrNotExist) {
		l.log.Info("Plugin directory does not exist, skipping", "dir", l.dir)
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list plugin directory %s: %w", l.dir, err)
	}

	for _, path := range paths {
		status, err := l.run(path)
		if err != nil {
			metrics.Plugins.WithLabelValues("failed").Inc()
			l.log.Error("Plugin failed", err, "path", path)
			report.Failures = append(report.Failures, Failure{Path: path, Err: err})
			continue
		}

		metrics.Plugins.WithLabelValues("loaded").Inc()
		l.log.Info("Plugin executed", "path", path, "status", status)
		report.Loaded = append(report.Loaded, Record{Path: path, Status: status})
	}

	return report, nil
}

func (l *Loader) run(path string) (int, error) {
	lib, err := l.opener.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	l.libs = append(l.libs, lib)

	sym, err := lib.Lookup(EntryPoint)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEntryPoint, err)
	}

	p, err := asPlugin(sym)
	if err != nil {
		return 0, err
	}

	return invoke(p)
}

// asPlugin accepts an exported func() int, a pointer to one, or any
// exported value implementing Plugin
func asPlugin(sym plugin.Symbol) (Plugin, error) {
	switch v := sym.(type) {
	case func() int:
		return PluginFunc(v), nil
	case *func() int:
		if v == nil || *v == nil {
			return nil, fmt.Errorf("%w: %s is nil", ErrEntryPoint, EntryPoint)
		}
		return PluginFunc(*v), nil
	case Plugin:
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s has type %T, want func() int", ErrEntryPoint, EntryPoint, sym)
}

func invoke(p Plugin) (status int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return p.Execute(), nil
}
