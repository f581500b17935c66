package git

import (
	"strings"
)

const (
	fieldSep = "|"

	// logFormat renders one metadata line per revision. The subject is last
	// because it may contain the separator itself.
	logFormat  = "--pretty=format:%H" + fieldSep + "%an" + fieldSep + "%ad" + fieldSep + "%s"
	dateFormat = "--date=short"
)

// parseLogLines extracts commit records from `git log` output rendered with
// logFormat. The output may interleave patch text (`log -L` does), so a line
// only counts as metadata when it carries the separator, is not a patch
// header, and starts with a full revision id. Ids already in seen are skipped;
// seen may be nil.
func parseLogLines(out string, seen map[string]struct{}) []Commit {
	if seen == nil {
		seen = map[string]struct{}{}
	}
	var commits []Commit
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\r\n")
		if !isMetadataLine(line) {
			continue
		}
		parts := strings.Split(line, fieldSep)
		if len(parts) < 4 {
			continue
		}
		id := strings.TrimSpace(parts[0])
		if !isHexID(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		commits = append(commits, newCommit(id, parts[1], parts[2], strings.Join(parts[3:], fieldSep)))
	}
	return commits
}

func isMetadataLine(line string) bool {
	if !strings.Contains(line, fieldSep) {
		return false
	}
	for _, marker := range []string{"@@", "+++", "---"} {
		if strings.HasPrefix(line, marker) {
			return false
		}
	}
	return true
}

// isHexID accepts full SHA-1 and SHA-256 object ids.
func isHexID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// parseBlamePorcelain returns the revision that `git blame --porcelain`
// attributes the first blamed line to. ok is false for an uncommitted line,
// which git reports with an all-zero id.
func parseBlamePorcelain(out string) (string, bool) {
	first, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(first)
	if len(fields) == 0 || !isHexID(fields[0]) {
		return "", false
	}
	if strings.Trim(fields[0], "0") == "" {
		return "", false
	}
	return fields[0], true
}
