package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoFileName is returned when the output path does not name a file.
var ErrNoFileName = errors.New("output path has no file name")

// Paths locates the report files derived from one output path.
type Paths struct {
	Dir      string
	Base     string
	CSV      string
	Markdown string
}

// ResolvePaths derives <dir>/<base>.csv and <dir>/<base>.md from outputPath,
// dropping any extension it carries. The directory defaults to ".".
func ResolvePaths(outputPath string) (Paths, error) {
	if outputPath == "" || strings.HasSuffix(outputPath, "/") || strings.HasSuffix(outputPath, string(filepath.Separator)) {
		return Paths{}, fmt.Errorf("%w: %q", ErrNoFileName, outputPath)
	}
	name := filepath.Base(outputPath)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" || base == "." || base == ".." {
		return Paths{}, fmt.Errorf("%w: %q", ErrNoFileName, outputPath)
	}
	dir := filepath.Dir(outputPath)
	return Paths{
		Dir:      dir,
		Base:     base,
		CSV:      filepath.Join(dir, base+".csv"),
		Markdown: filepath.Join(dir, base+".md"),
	}, nil
}
