package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
)

// ErrNoDemosColumn is returned for a manifest without a "demos" header.
var ErrNoDemosColumn = errors.New("manifest has no demos column")

const demosColumn = "demos"

// #region read
// ReadManifest returns the demos listed in a manifest CSV. The file may carry
// a leading unnamed index column.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return readManifest(f)
}

func readManifest(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoDemosColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == demosColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoDemosColumn
	}

	var demos []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		if demo := strings.TrimSpace(rec[col]); demo != "" {
			demos = append(demos, demo)
		}
	}
	return demos, nil
}

// #endregion read

// #region write
// WriteManifest writes demos with an index column, the layout the batch
// tools have always produced.
func WriteManifest(path string, demos []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"", demosColumn}); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	for i, d := range demos {
		if err := w.Write([]string{strconv.Itoa(i), d}); err != nil {
			f.Close()
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush manifest: %w", err)
	}
	return f.Close()
}

// GenerateManifests lists the *.hdf5 demos in demoDir, drops replays, and
// writes manifest.csv to outDir. When split > 1 it also writes
// manifest_<i>.csv partitions. It returns the paths written.
func GenerateManifests(ctx context.Context, demoDir, outDir string, split int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(demoDir, "*.hdf5"))
	if err != nil {
		return nil, fmt.Errorf("glob demos: %w", err)
	}
	var demos []string
	for _, m := range matches {
		if strings.Contains(filepath.Base(m), "replay") {
			continue
		}
		demos = append(demos, m)
	}
	logging.Infof(ctx, "demos to add to the manifest: %d", len(demos))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	all := filepath.Join(outDir, "manifest.csv")
	if err := WriteManifest(all, demos); err != nil {
		return nil, err
	}
	written := []string{all}
	if split > 1 {
		for i, part := range Partition(demos, split) {
			p := filepath.Join(outDir, fmt.Sprintf("manifest_%d.csv", i))
			if err := WriteManifest(p, part); err != nil {
				return nil, err
			}
			written = append(written, p)
		}
	}
	return written, nil
}

// Partition splits items into n contiguous parts whose sizes differ by at
// most one, larger parts first. Parts may be empty when n > len(items).
func Partition(items []string, n int) [][]string {
	if n <= 0 {
		return nil
	}
	size, extra := len(items)/n, len(items)%n
	parts := make([][]string, n)
	start := 0
	for i := range parts {
		end := start + size
		if i < extra {
			end++
		}
		parts[i] = items[start:end]
		start = end
	}
	return parts
}

// #endregion write
