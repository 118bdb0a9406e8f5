// Logo CLI - runs Logo source files and the interactive top level
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/chazu/turtle/device"
	"github.com/chazu/turtle/manifest"
	"github.com/chazu/turtle/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("logo.cli")

func main() {
	interactive := flag.Bool("i", false, "Start the interactive top level after loading files")
	configDir := flag.String("c", "", "Directory holding logo.toml (default: search upward from the working directory)")
	imagePath := flag.String("image", "", "Workspace image to restore at startup and save on exit")
	stats := flag.Bool("stats", false, "Print memory statistics on exit")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides [log] verbosity)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: logo [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Loads each Logo source file in order, then reads instructions from the console.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  logo                       # Start the top level\n")
		fmt.Fprintf(os.Stderr, "  logo shapes.lg             # Run shapes.lg and exit\n")
		fmt.Fprintf(os.Stderr, "  logo -i shapes.lg          # Run shapes.lg, then the top level\n")
		fmt.Fprintf(os.Stderr, "  logo -image ws.img -i      # Keep the workspace between sessions\n")
	}
	flag.Parse()

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := m.Log.Verbosity
	if *verbosity >= 0 {
		level = *verbosity
	}
	commonlog.Configure(level, nil)

	os.Exit(run(m, *interactive, *imagePath, *stats, flag.Args()))
}

func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(".")
	}
	return m, nil
}

func openStorage(m *manifest.Manifest) (device.Storage, func() error, error) {
	switch m.Storage.Backend {
	case manifest.BackendSQLite:
		s, err := device.OpenSQLiteStorage(m.DatabasePath())
		if err != nil {
			return nil, nil, err
		}
		log.Infof("storage: sqlite %s", m.DatabasePath())
		return s, s.Close, nil
	default:
		s, err := device.NewOSStorage(m.RootPath())
		if err != nil {
			return nil, nil, err
		}
		log.Infof("storage: %s", m.RootPath())
		return s, func() error { return nil }, nil
	}
}

func run(m *manifest.Manifest, interactive bool, imagePath string, stats bool, files []string) int {
	store, closeStore, err := openStorage(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		return 1
	}
	defer closeStore()

	toplevel := interactive || len(files) == 0
	machine, err := vm.NewVM(vm.Config{
		ArenaBytes:  m.Memory.ArenaBytes,
		HeapCells:   m.Memory.HeapCells,
		MaxDepth:    m.Memory.MaxDepth,
		Console:     device.NewTerminalConsole(),
		Storage:     store,
		Hardware:    device.NewHost(),
		Prefix:      m.Startup.Prefix,
		Interactive: toplevel && (interactive || isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer machine.Close()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			machine.Signals().RequestInterrupt()
		}
	}()

	if imagePath != "" {
		if err := restoreImage(machine, imagePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
			return 1
		}
	}

	status := 0
	sources := files
	if m.Startup.File != "" {
		sources = append([]string{m.Startup.File}, files...)
	}
	for _, name := range sources {
		r := machine.LoadFile(name)
		if r.Status() == vm.StatusEOF {
			toplevel = false
			break
		}
		if r.Err() != nil || r.Status() != vm.StatusNone {
			machine.Report(r)
			status = 1
			break
		}
	}

	if toplevel && status == 0 {
		machine.Toplevel()
	}

	if imagePath != "" {
		if err := saveImage(machine, imagePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving image: %v\n", err)
			status = 1
		}
	}

	if stats {
		printStats(machine.Stats())
	}
	return status
}

func restoreImage(machine *vm.VM, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Infof("no image at %s, starting empty", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if err := machine.LoadImage(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("restored %s", path)
	return nil
}

func saveImage(machine *vm.VM, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := machine.SaveImage(f); err != nil {
		f.Close()
		return err
	}
	if info, err := f.Stat(); err == nil {
		log.Infof("saved %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}
	return f.Close()
}

func printStats(s vm.Stats) {
	fmt.Fprintf(os.Stderr, "heap:   %s of %s cells free\n",
		humanize.Comma(int64(s.FreeCells)), humanize.Comma(int64(s.Cells)))
	fmt.Fprintf(os.Stderr, "atoms:  %s\n", humanize.Comma(int64(s.Atoms)))
	fmt.Fprintf(os.Stderr, "arena:  %s of %s\n",
		humanize.Bytes(uint64(s.ArenaUsed)), humanize.Bytes(uint64(s.ArenaMax)))
	fmt.Fprintf(os.Stderr, "procedures: %d  globals: %d\n", s.Procedures, s.Globals)
}
