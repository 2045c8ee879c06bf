package format

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_.\-]`)
	underscoreRuns  = regexp.MustCompile(`_+`)

	folderSuffixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)bkprogram\d+`),
		regexp.MustCompile(`(?i)\d+_adv\w+`),
		regexp.MustCompile(`[a-zA-Z0-9_]+`),
	}
)

// defaultSuffix is used when nothing usable survives sanitization.
const defaultSuffix = "input"

// SanitizeFilename turns an input file name into an output suffix: the
// extension is dropped, every character outside letters, digits, "_", "-"
// and "." becomes "_", and underscore runs collapse.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return sanitize(stem)
}

func sanitize(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return defaultSuffix
	}
	return s
}

// FolderSuffix derives the output suffix for a CSV folder export. Backup
// folder names such as "BKPROGRAM0042" or "12_advClinic" are preferred;
// otherwise the first alphanumeric run of the folder name is used.
func FolderSuffix(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	for _, re := range folderSuffixPatterns {
		if m := re.FindString(base); m != "" {
			return sanitize(m)
		}
	}
	return sanitize(base)
}
