package export

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// duplicatePattern matches names with a _duplicate or _duplicate_N suffix before the extension.
var duplicatePattern = regexp.MustCompile(`^(.+)_duplicate(?:_(\d+))?(\.[^.]+)?$`)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// UniqueName returns a file name in dir that does not clobber an existing
// file. A free name is returned unchanged; otherwise "_duplicate" is added
// before the extension, then "_duplicate_2", "_duplicate_3" and so on.
//
// Examples:
//   - "report.csv" -> "report_duplicate.csv" (if report.csv exists)
//   - "report_duplicate.csv" -> "report_duplicate_2.csv" (if that exists)
func UniqueName(dir, name string) string {
	if !fileExists(filepath.Join(dir, name)) {
		return name
	}

	base, next, ext := strings.TrimSuffix(name, filepath.Ext(name)), 0, filepath.Ext(name)
	if m := duplicatePattern.FindStringSubmatch(name); m != nil {
		base, ext = m[1], m[3]
		next = 2
		if m[2] != "" {
			n, _ := strconv.Atoi(m[2])
			next = n + 1
		}
	}

	if next == 0 {
		candidate := base + "_duplicate" + ext
		if !fileExists(filepath.Join(dir, candidate)) {
			return candidate
		}
		next = 2
	}

	for n := next; ; n++ {
		candidate := base + "_duplicate_" + strconv.Itoa(n) + ext
		if !fileExists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}
