package loader

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/lucasjlepore/fit-tracker/internal/monitoring"
)

const (
	sensorLogPrefix = "sensorlog_"
	unzippedSuffix  = "_unzipped"
	positionKind    = "pos"
)

// Session is one recorded activity and the files it was assembled from.
type Session struct {
	Key    string
	Folder string
	Files  []string
	Track  fittracker.Track
}

// LoadSessions scans each folder (and archives extracted next to it) for
// sensor logs and FIT files. CSV logs are grouped by their trailing
// <date>_<time> name component; every FIT file is a session of its own.
// Sessions without a readable position log are skipped with a log line.
func LoadSessions(folders []string) ([]Session, error) {
	var sessions []Session
	seen := make(map[string]bool)

	for _, folder := range folders {
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			monitoring.Logf("loader: skipping %s: not a directory", folder)
			continue
		}
		if err := ensureUnzipped(folder); err != nil {
			return nil, err
		}

		roots, err := scanRoots(folder)
		if err != nil {
			return nil, err
		}
		csvs, fits, err := collectFiles(roots)
		if err != nil {
			return nil, err
		}

		groups := groupBySession(csvs)
		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			sessKey := folder + " | " + k
			if seen[sessKey] {
				continue
			}
			seen[sessKey] = true

			files := groups[k]
			track, err := readKind(files, positionKind)
			if err != nil {
				monitoring.Logf("loader: session %s: %v", sessKey, err)
				continue
			}
			sessions = append(sessions, Session{Key: sessKey, Folder: folder, Files: files, Track: track})
		}

		for _, path := range fits {
			sessKey := folder + " | " + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if seen[sessKey] {
				continue
			}
			seen[sessKey] = true

			track, err := LoadFITFile(path)
			if err != nil {
				monitoring.Logf("loader: session %s: %v", sessKey, err)
				continue
			}
			sessions = append(sessions, Session{Key: sessKey, Folder: folder, Files: []string{path}, Track: track})
		}
	}
	return sessions, nil
}

// SessionKey derives the grouping key from a sensor log file name, e.g.
// sensorlog_pos_20240101_101500.csv -> 20240101_101500.
func SessionKey(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return stem
	}
	return parts[len(parts)-2] + "_" + parts[len(parts)-1]
}

func groupBySession(csvs []string) map[string][]string {
	groups := make(map[string][]string)
	for _, path := range csvs {
		key := SessionKey(path)
		groups[key] = append(groups[key], path)
	}
	return groups
}

func readKind(files []string, kind string) (fittracker.Track, error) {
	for _, path := range files {
		base := filepath.Base(path)
		if !strings.Contains(base, "_"+kind+"_") {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", base, err)
		}
		track, err := ReadPositionCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", base, err)
		}
		return track, nil
	}
	return nil, fmt.Errorf("no %s log", kind)
}

func scanRoots(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", folder, err)
	}
	roots := []string{folder}
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), unzippedSuffix) {
			roots = append(roots, filepath.Join(folder, e.Name()))
		}
	}
	return roots, nil
}

func collectFiles(roots []string) (csvs, fits []string, err error) {
	seen := make(map[string]bool)
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, nil, fmt.Errorf("read folder %s: %w", root, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			path := filepath.Join(root, name)
			if seen[path] {
				continue
			}
			lower := strings.ToLower(name)
			switch {
			case strings.HasPrefix(name, sensorLogPrefix) && strings.HasSuffix(lower, ".csv"):
				csvs = append(csvs, path)
			case strings.HasSuffix(lower, ".fit"):
				fits = append(fits, path)
			default:
				continue
			}
			seen[path] = true
		}
	}
	sort.Strings(csvs)
	sort.Strings(fits)
	return csvs, fits, nil
}

// ensureUnzipped extracts every *.zip in folder into <name>_unzipped once.
// A corrupt archive is logged and skipped.
func ensureUnzipped(folder string) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("read folder %s: %w", folder, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".zip") {
			continue
		}
		outDir := filepath.Join(folder, e.Name()+unzippedSuffix)
		if info, err := os.Stat(outDir); err == nil && info.IsDir() {
			continue
		}
		if err := extractZip(filepath.Join(folder, e.Name()), outDir); err != nil {
			monitoring.Logf("loader: extract %s: %v", e.Name(), err)
		}
	}
	return nil
}

func extractZip(src, dst string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	for _, zf := range zr.File {
		target := filepath.Join(dst, zf.Name)
		rel, err := filepath.Rel(dst, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("archive entry %q escapes destination", zf.Name)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(zf, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
