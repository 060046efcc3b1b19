// Command prefetchinfo is a thin CLI around the prefetch library: it opens
// a .pf file (or, with -batch, every .pf file in a directory) and prints
// the parsed structure. It is an external collaborator of the core parser
// (never consulted for decoding semantics) — the ambient home for this
// repository's CLI-facing dependencies, the way cmd/isoview is for iso-kit.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bgrewell/prefetch-kit"
	"github.com/bgrewell/prefetch-kit/pkg/logging"
	"github.com/bgrewell/prefetch-kit/pkg/option"
	"github.com/bgrewell/prefetch-kit/pkg/volume"
	"github.com/bgrewell/usage"
	"github.com/fatih/color"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

var (
	warnColor  = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
	headColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// displayFile prints one parsed prefetch file's structure.
func displayFile(f *prefetch.File, verbose bool) {
	fmt.Println(headColor("=== Prefetch File ==="))
	fmt.Printf("Executable: %s\n", f.ExecutableFilename())
	fmt.Printf("Format Version: %d\n", f.FormatVersion())
	fmt.Printf("Prefetch Hash: 0x%08X\n", f.PrefetchHash())
	fmt.Printf("Run Count: %d\n", f.RunCount())

	for i := 0; i < 8; i++ {
		ft, err := f.LastRunTime(i)
		if err != nil {
			break
		}
		if ft == 0 {
			continue
		}
		fmt.Printf("Last Run Time[%d]: %s\n", i, ft.ToTime().Format(time.RFC3339))
	}

	fmt.Printf("Filenames: %d\n", f.FilenamesCount())
	fmt.Printf("Volumes: %d\n", f.VolumesCount())

	if verbose {
		fmt.Println(headColor("--- Filenames ---"))
		for i := 0; i < f.FilenamesCount(); i++ {
			name, _ := f.Filename(i)
			fmt.Printf("  %s\n", name)
		}

		fmt.Println(headColor("--- Volumes ---"))
		for i := 0; i < f.VolumesCount(); i++ {
			v, err := f.Volume(i)
			if err != nil {
				continue
			}
			fmt.Printf("  [%d] %s (serial 0x%08X)\n", i, v.DevicePath(), v.SerialNumber())
			for j := 0; j < v.FileReferenceCount(); j++ {
				ref, _ := v.FileReferenceAt(j)
				fmt.Printf("      ref[%d]: mft_entry=%d sequence=%d\n", j, volume.MFTEntry(ref), volume.Sequence(ref))
			}
			for j := 0; j < v.DirectoryStringCount(); j++ {
				dir, _ := v.DirectoryStringAt(j)
				fmt.Printf("      dir[%d]: %s\n", j, dir)
			}
		}

		fmt.Println(headColor("--- Trace Chain ---"))
		for i := 0; i < f.TraceChainCount(); i++ {
			e, _ := f.TraceChainEntry(i)
			if e.IsTerminal() {
				fmt.Printf("  [%d] terminal\n", i)
				continue
			}
			fmt.Printf("  [%d] next=%d block_load_count=%d\n", i, e.NextTableIndex, e.BlockLoadCount)
		}
	}

	for _, w := range f.Warnings() {
		fmt.Println(warnColor(fmt.Sprintf("warning[%s]: %s", w.Kind, w.Message)))
	}
}

func openOne(path string, verbose bool) error {
	opts := []option.Option{}
	if verbose {
		sink := logging.NewSimpleLogger(os.Stdout, logging.LEVEL_TRACE, true)
		opts = append(opts, option.WithLogger(logging.NewLogger(sink)))
	}
	f, err := prefetch.OpenPath(path, opts...)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	displayFile(f, verbose)
	return nil
}

func runBatch(dir string, verbose bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorColor(fmt.Sprintf("failed to read directory %s: %v", dir, err)))
		return 1
	}

	var targets []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pf") {
			targets = append(targets, filepath.Join(dir, e.Name()))
		}
	}

	useSpinner := term.IsTerminal(int(os.Stdout.Fd()))
	var spinner *yacspin.Spinner
	if useSpinner {
		cfg := yacspin.Config{
			Frequency:       100 * time.Millisecond,
			CharSet:         yacspin.CharSets[9],
			Suffix:          " scanning prefetch files",
			SuffixAutoColon: true,
			Message:         "starting",
			StopCharacter:   "✓",
			StopColors:      []string{"fgGreen"},
		}
		var err error
		spinner, err = yacspin.New(cfg)
		if err == nil {
			_ = spinner.Start()
		}
	}

	failures := 0
	for i, path := range targets {
		if spinner != nil {
			_ = spinner.Message(fmt.Sprintf("%d/%d %s", i+1, len(targets), filepath.Base(path)))
		}
		if err := openOne(path, verbose); err != nil {
			failures++
			fmt.Fprintln(os.Stderr, errorColor(err.Error()))
		}
	}

	if spinner != nil {
		_ = spinner.Stop()
	}

	return failures
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("prefetchinfo"),
		usage.WithApplicationDescription("prefetchinfo inspects Windows Prefetch (SCCA) files, printing the executable name, run history, referenced files, volumes and NTFS file references."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print filenames, volumes and trace chain in full", "", nil)
	batch := u.AddBooleanOption("b", "batch", false, "Treat <path> as a directory and parse every .pf file inside it", "", nil)
	path := u.AddArgument(1, "path", "Path to a .pf file, or a directory when -batch is set", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("path must be provided"))
		os.Exit(1)
	}

	if *batch {
		os.Exit(runBatch(*path, *verbose))
	}

	if err := openOne(*path, *verbose); err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
}
