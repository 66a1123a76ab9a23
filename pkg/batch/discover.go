// Package batch converts many files at once: it pairs every input file with an
// output path and runs independent conversions on a bounded set of workers.
package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// OutputExtension is appended to the source file name.
const OutputExtension = ".bin"

// Job is one source/destination pair.
type Job struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// DiscoverOptions control which files Discover picks up.
type DiscoverOptions struct {
	// Extension filters sources by suffix, case-insensitive. Empty keeps all.
	Extension string
	// Recursive walks sub-directories and mirrors them under the output dir.
	Recursive bool
}

// Discover lists regular files under inputDir and maps each to
// outputDir/<relative path>.bin. Hidden files and directories are skipped.
// Jobs come back sorted by source path.
func Discover(inputDir, outputDir string, opts DiscoverOptions) ([]Job, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "input directory %s", inputDir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("input path %s is not a directory", inputDir)
	}

	ext := strings.ToLower(opts.Extension)
	var jobs []Job

	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == inputDir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ext != "" && !strings.HasSuffix(strings.ToLower(d.Name()), ext) {
			return nil
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, Job{
			Source:      path,
			Destination: filepath.Join(outputDir, rel+OutputExtension),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", inputDir)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Source < jobs[j].Source })
	return jobs, nil
}
