package stash

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/morlinbrot/pngstash/pkg/ctxlog"
	"github.com/morlinbrot/pngstash/pkg/png"
)

// standardChunkTypes lists the types regular encoders emit, including the
// APNG and EXIF extensions. Anything else in a file is worth reporting.
var standardChunkTypes = map[string]struct{}{
	"IHDR": {}, "PLTE": {}, "IDAT": {}, "IEND": {},
	"tRNS": {}, "gAMA": {}, "cHRM": {}, "sRGB": {}, "iCCP": {},
	"tEXt": {}, "zTXt": {}, "iTXt": {},
	"bKGD": {}, "pHYs": {}, "sBIT": {}, "hIST": {}, "sPLT": {}, "tIME": {},
	"eXIf": {}, "acTL": {}, "fcTL": {}, "fdAT": {},
}

// Finding is a non-standard chunk spotted during a scan.
type Finding struct {
	Path    string
	Type    png.ChunkType
	Length  uint32
	Preview string
}

// ScanOptions control which files a scan covers.
type ScanOptions struct {
	// Roots are the files and directories to scan.
	Roots []string
	// Recursive descends into subdirectories of root directories.
	Recursive bool
	// OnStart receives the number of files about to be inspected.
	OnStart func(total int)
	// OnFile is called once per inspected file.
	OnFile func(path string)
}

// Scan looks through .png files under the given roots and reports every
// chunk whose type is not part of the standard set. Files that cannot be
// read or parsed are logged and skipped.
func Scan(ctx context.Context, opts ScanOptions) ([]Finding, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := listFiles(opts.Roots, opts.Recursive)
	if err != nil {
		return nil, err
	}

	if opts.OnStart != nil {
		opts.OnStart(len(files))
	}

	var findings []Finding
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		if opts.OnFile != nil {
			opts.OnFile(path)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			continue
		}

		file, err := png.ParseFile(raw)
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("skipping file that does not parse")
			continue
		}

		for _, chunk := range file.Chunks() {
			if _, ok := standardChunkTypes[chunk.Type().String()]; ok {
				continue
			}

			findings = append(findings, Finding{
				Path:    path,
				Type:    chunk.Type(),
				Length:  chunk.Length(),
				Preview: preview(chunk.Data()),
			})
		}
	}

	return findings, nil
}

// listFiles resolves the scan roots to a sorted list of .png files.
// Explicitly named files are always taken, whatever their extension.
func listFiles(roots []string, recursive bool) ([]string, error) {
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, eris.Wrapf(err, "cannot scan %s", root)
		}

		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		if recursive {
			err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}

				if d.IsDir() {
					if d.Name() == ".git" {
						return fs.SkipDir
					}
					return nil
				}

				if isPNGName(d.Name()) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, eris.Wrapf(err, "cannot walk %s", root)
			}

			continue
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, eris.Wrapf(err, "cannot list %s", root)
		}

		for _, entry := range entries {
			if !entry.IsDir() && isPNGName(entry.Name()) {
				files = append(files, filepath.Join(root, entry.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func isPNGName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".png")
}
