package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/ogier/pflag"
	log "github.com/sirupsen/logrus"

	"github.com/hailam/packfile/internal/adapters/zipstore"
	"github.com/hailam/packfile/internal/editor"
	"github.com/hailam/packfile/internal/sniff"
	"github.com/hailam/packfile/internal/utils"
)

var (
	verbose    = flag.BoolP("verbose", "v", false, "If true, be verbose.")
	packName   = flag.StringP("pack", "p", editor.KnownPackFiles[0], "Pack path inside the ROM.")
	outDir     = flag.StringP("out", "o", "", "Export all entries into this directory.")
	decompress = flag.BoolP("decompress", "d", false, "Decompress PKDPX entries on export.")
)

// Minimal front end: list a pack's entries, or export them all with --out.
// The full CLI lives in cmd/cli.
func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: packfile [flags] <pack-file-or-rom>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	input := flag.Arg(0)

	svc := editor.NewService(zipstore.Open)
	var count int
	var err error
	switch strings.ToLower(filepath.Ext(input)) {
	case ".nds", ".zip":
		count, err = svc.LoadRom(input, *packName)
	default:
		count, err = svc.LoadFile(input)
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Debugf("loaded %d entries", count)

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatal(err)
		}
		exported, err := svc.ExportAll(*outDir, *decompress)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Exported %d entries to %s/\n", exported, *outDir)
		return
	}

	for i, data := range svc.Entries() {
		fmt.Printf("%04d  %-16s %s\n", i, sniff.Detect(data), utils.FormatSize(len(data)))
	}
}
