package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/hailam/packfile/internal/adapters/zipstore"
	"github.com/hailam/packfile/internal/editor"
	"github.com/hailam/packfile/internal/ports"
	"github.com/hailam/packfile/internal/sniff"
	"github.com/hailam/packfile/internal/utils"
)

var (
	verbose  bool
	packPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "packfile",
		Short: "Inspect and edit BinPack container files.",
		Long: `packfile reads, edits, and writes BinPack containers, either as
standalone .bin files or inside a ROM image treated as a named file store.
Entries are classified by content (SIR0 family, WAN/WAT sprites, PKDPX and
friends) to pick export extensions, and PKDPX entries can be decompressed
or recompressed on the way in and out.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v",
		env.Bool("PACKFILE_VERBOSE"), "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&packPath, "pack", "p",
		env.Str("PACKFILE_PACK", editor.KnownPackFiles[0]),
		"pack path inside the ROM (for ROM inputs)")

	rootCmd.AddCommand(exportCmd(), importCmd(), infoCmd(), entryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isRomPath reports whether path looks like a ROM image rather than a
// standalone pack file.
func isRomPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nds", ".zip":
		return true
	}
	return false
}

func newService() *editor.Service {
	return editor.NewService(zipstore.Open)
}

func load(svc *editor.Service, path string) (int, error) {
	if isRomPath(path) {
		return svc.LoadRom(path, packPath)
	}
	return svc.LoadFile(path)
}

func withSpinner(prefix string, fn func() error) error {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Prefix = prefix
	sp.Start()
	err := fn()
	sp.Stop()
	return err
}

func exportCmd() *cobra.Command {
	var decompress bool
	cmd := &cobra.Command{
		Use:   "export <input> <output-dir>",
		Short: "Export all entries of a pack to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, outDir := args[0], args[1]
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			svc := newService()
			count, err := load(svc, input)
			if err != nil {
				return err
			}
			log.Debugf("loaded %d entries from %s", count, input)

			var exported int
			err = withSpinner(fmt.Sprintf("Exporting %s... ", input), func() error {
				var err error
				exported, err = svc.ExportAll(outDir, decompress)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d entries to %s/\n", exported, outDir)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&decompress, "decompress", "d", false,
		"decompress PKDPX entries on export")
	return cmd
}

func importCmd() *cobra.Command {
	var source string
	var compress bool
	cmd := &cobra.Command{
		Use:   "import <input-dir> <output>",
		Short: "Build a pack from a directory of entry files",
		Long: `Builds a pack from the files of a directory, read in sorted name
order. A ROM output loads the existing pack from the source image first so
the original header length is preserved, then writes the whole image back
with the pack replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inDir, output := args[0], args[1]
			svc := newService()

			toRom := isRomPath(output)
			if toRom {
				src := source
				if src == "" {
					if _, err := os.Stat(output); err != nil {
						return fmt.Errorf("source ROM required for ROM output (use --source)")
					}
					src = output
				}
				if _, err := svc.LoadRom(src, packPath); err != nil {
					return err
				}
			} else {
				svc.NewEmpty()
			}

			var count int
			err := withSpinner(fmt.Sprintf("Importing %s... ", inDir), func() error {
				var err error
				count, err = svc.ImportAll(inDir, compress)
				return err
			})
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Fprintln(os.Stderr, "Warning: no files found in directory")
				return nil
			}
			if err := svc.SaveAs(output, toRom); err != nil {
				return err
			}
			if toRom {
				fmt.Printf("Injected %d entries into %s (%s)\n", count, output, packPath)
			} else {
				fmt.Printf("Created %s with %d entries\n", output, count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "",
		"source ROM to copy (for ROM output; defaults to the output if it exists)")
	cmd.Flags().BoolVarP(&compress, "compress", "c", false,
		"compress each imported file as PKDPX")
	return cmd
}

func infoCmd() *cobra.Command {
	var inner bool
	cmd := &cobra.Command{
		Use:   "info <input>",
		Short: "List the entries of a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService()
			count, err := load(svc, args[0])
			if err != nil {
				return err
			}
			checksum, err := svc.CurrentChecksum()
			if err != nil {
				return err
			}
			size, err := svc.CurrentSize()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d entries, %s, md5 %s\n",
				args[0], count, utils.FormatSize(size), checksum)

			for i, data := range svc.Entries() {
				kind := sniff.Detect(data)
				label := string(kind)
				if inner && kind == ports.KindPKDPX {
					if k, err := sniff.DetectInner(data); err == nil {
						label = fmt.Sprintf("%s -> %s", kind, k)
					}
				}
				fmt.Printf("  %04d  %-16s %s\n", i, label, utils.FormatSize(len(data)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inner, "inner", false,
		"also classify the contents of PKDPX entries")
	return cmd
}

func entryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Operate on single pack entries",
	}
	cmd.AddCommand(entryExportCmd(), entryImportCmd(), entryAddCmd(), entryRemoveCmd())
	return cmd
}

func parseIndex(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", arg, err)
	}
	return idx, nil
}

// saveBack writes the edited pack to output (defaulting to the input
// path), as a full ROM image when both ends are ROMs.
func saveBack(svc *editor.Service, input, output string) error {
	if output == "" {
		output = input
	}
	asRom := isRomPath(input) && isRomPath(output)
	return svc.SaveAs(output, asRom)
}

func entryExportCmd() *cobra.Command {
	var decompress bool
	cmd := &cobra.Command{
		Use:   "export <pack-file> <index> <output>",
		Short: "Export one entry to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			svc := newService()
			if _, err := load(svc, args[0]); err != nil {
				return err
			}
			data, err := svc.Get(idx, decompress)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[2], data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Exported entry %04d to %s\n", idx, args[2])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&decompress, "decompress", "d", false,
		"decompress the entry if it is PKDPX")
	return cmd
}

func entryImportCmd() *cobra.Command {
	var output string
	var compress bool
	cmd := &cobra.Command{
		Use:   "import <pack-file> <index> <input>",
		Short: "Replace one entry with a file's contents",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}
			svc := newService()
			if _, err := load(svc, args[0]); err != nil {
				return err
			}
			kind, err := svc.Set(idx, data, compress)
			if err != nil {
				return err
			}
			if err := saveBack(svc, args[0], output); err != nil {
				return err
			}
			log.Debugf("entry %d now detected as %s", idx, kind)
			fmt.Printf("Imported %s to entry %04d\n", args[2], idx)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output file (defaults to overwriting the input pack)")
	cmd.Flags().BoolVarP(&compress, "compress", "c", false,
		"compress the file as PKDPX before storing")
	return cmd
}

func entryAddCmd() *cobra.Command {
	var output string
	var index int
	var compress bool
	cmd := &cobra.Command{
		Use:   "add <pack-file> <input>",
		Short: "Add a file to the pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			svc := newService()
			if _, err := load(svc, args[0]); err != nil {
				return err
			}
			idx, err := svc.Insert(index, data, compress)
			if err != nil {
				return err
			}
			if err := saveBack(svc, args[0], output); err != nil {
				return err
			}
			fmt.Printf("Added %s at index %04d\n", args[1], idx)
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", -1,
		"index to insert at (default: end)")
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output file (defaults to overwriting the input pack)")
	cmd.Flags().BoolVarP(&compress, "compress", "c", false,
		"compress the file as PKDPX before storing")
	return cmd
}

func entryRemoveCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "remove <pack-file> <index>",
		Short: "Remove an entry from the pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			svc := newService()
			if _, err := load(svc, args[0]); err != nil {
				return err
			}
			if err := svc.Remove(idx); err != nil {
				return err
			}
			if err := saveBack(svc, args[0], output); err != nil {
				return err
			}
			fmt.Printf("Removed entry %04d\n", idx)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output file (defaults to overwriting the input pack)")
	return cmd
}
