package integration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/turtle/device"
	"github.com/chazu/turtle/manifest"
	"github.com/chazu/turtle/vm"
)

// ---------------------------------------------------------------------------
// Integration test helpers
// ---------------------------------------------------------------------------

// workspace writes files into a fresh directory and returns its path.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// boot builds an interpreter from the logo.toml in dir, the same way the
// logo command does, with a buffer console fed from input.
func boot(t *testing.T, dir, input string) (*vm.VM, *bytes.Buffer) {
	t.Helper()
	m, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}

	var store device.Storage
	switch m.Storage.Backend {
	case manifest.BackendSQLite:
		s, err := device.OpenSQLiteStorage(m.DatabasePath())
		if err != nil {
			t.Fatalf("sqlite storage: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		store = s
	default:
		s, err := device.NewOSStorage(m.RootPath())
		if err != nil {
			t.Fatalf("os storage: %v", err)
		}
		store = s
	}

	console, out := device.NewBufferConsole(input)
	machine, err := vm.NewVM(vm.Config{
		ArenaBytes: m.Memory.ArenaBytes,
		HeapCells:  m.Memory.HeapCells,
		MaxDepth:   m.Memory.MaxDepth,
		Console:    console,
		Storage:    store,
		Hardware:   device.NewSimulated(7),
		Prefix:     m.Startup.Prefix,
	})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	t.Cleanup(func() { machine.Close() })

	if m.Startup.File != "" {
		if r := machine.LoadFile(m.Startup.File); r.Err() != nil {
			t.Fatalf("startup file: %s", vm.FormatError(r.Err()))
		}
	}
	return machine, out
}

func load(t *testing.T, machine *vm.VM, name string) {
	t.Helper()
	if r := machine.LoadFile(name); r.Status() != vm.StatusNone {
		machine.Report(r)
	}
}

// ---------------------------------------------------------------------------
// Programs
// ---------------------------------------------------------------------------

const library = `to fact :n
if :n = 0 [output 1]
output :n * fact :n - 1
end

to fib :n
if :n < 2 [output :n]
output (fib :n - 1) + (fib :n - 2)
end

to squares :l
if emptyp :l [output []]
output fput (first :l) * (first :l) squares butfirst :l
end
`

func TestStartupFileThenProgram(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml":  "[startup]\nfile = \"lib.lg\"\n",
		"lib.lg":     library,
		"program.lg": "print fact 6\nprint fib 10\nshow squares [1 2 3 4]\n",
	})
	machine, out := boot(t, dir, "")
	load(t, machine, "program.lg")

	want := "720\n55\n[1 4 9 16]\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrefixScopesFileNames(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml":      "[startup]\nprefix = \"/src\"\n",
		"src/hello.lg":   "print [hello from src]\n",
		"top.lg":         "print [top]\n",
		"src/nested.lg":  "load \"hello.lg\nprint prefix\n",
		"other/hello.lg": "print [wrong file]\n",
	})
	machine, out := boot(t, dir, "")
	load(t, machine, "nested.lg")
	load(t, machine, "/top.lg")

	want := "hello from src\n/src\ntop\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestProgramWritesHostFile(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml": "[storage]\nroot = \"data\"\n",
		"data/writer.lg": `open "report.txt
setwrite "report.txt
repeat 3 [print repcount * 10]
setwrite []
close "report.txt
`,
	})
	machine, out := boot(t, dir, "")
	load(t, machine, "writer.lg")

	if out.Len() != 0 {
		t.Errorf("unexpected console output %q", out.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "data", "report.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "10\n20\n30\n"; got != want {
		t.Errorf("report.txt = %q, want %q", got, want)
	}
}

func TestSQLiteWorkspacePersists(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml": "[storage]\nbackend = \"sqlite\"\ndatabase = \"flash.db\"\n",
	})

	first, _ := boot(t, dir, "")
	for _, line := range []string{
		"to greet :who",
		"print sentence \"hello :who",
		"end",
		`make "count 3`,
		`save "ws.lg`,
	} {
		first.Report(first.RunLine(line))
	}
	first.Close()

	if _, err := os.Stat(filepath.Join(dir, "flash.db")); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	second, out := boot(t, dir, "")
	load(t, second, "ws.lg")
	second.Report(second.RunLine(`repeat :count [greet "turtle]`))

	want := strings.Repeat("hello turtle\n", 3)
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestImageFileRoundTrip(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml": "",
		"lib.lg":    library,
	})
	imagePath := filepath.Join(dir, "ws.img")

	first, _ := boot(t, dir, "")
	load(t, first, "lib.lg")
	f, err := os.Create(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.SaveImage(f); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	f.Close()

	second, out := boot(t, dir, "")
	f, err = os.Open(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := second.LoadImage(f); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	second.Report(second.RunLine("print fact 5"))
	second.Report(second.RunLine("show procedures"))

	want := "120\n[fact fib squares]\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMemoryLimitsFromConfig(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml": "[memory]\nmax_depth = 20\nheap_cells = 2000\n",
		"lib.lg":    library,
	})
	machine, out := boot(t, dir, "")
	load(t, machine, "lib.lg")
	machine.Report(machine.RunLine("print fact 10"))
	machine.Report(machine.RunLine("print fact 30"))

	if s := machine.Stats(); s.Cells != 2000 {
		t.Errorf("heap cells = %d, want 2000", s.Cells)
	}
	want := "3628800\nStack overflow in fact\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestToplevelSession(t *testing.T) {
	dir := workspace(t, map[string]string{
		"logo.toml": "[startup]\nfile = \"lib.lg\"\n",
		"lib.lg":    library,
	})
	machine, out := boot(t, dir, "print fib 7\nprint :nothing\nshow squares [5]\nbye\nprint 1\n")
	if r := machine.Toplevel(); r.Status() != vm.StatusEOF {
		t.Errorf("Toplevel status = %v", r.Status())
	}

	want := "13\nnothing has no value\n[25]\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
