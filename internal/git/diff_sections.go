package git

import (
	"strconv"
	"strings"
)

// patchSections finds the `diff --git` headers of a patch. `git log -L` emits
// one per revision that touched the line, so a renamed file shows up under
// each of its names.
func patchSections(patch string) []FileSection {
	var sections []FileSection
	lineNo := 0
	for line := range strings.Lines(patch) {
		lineNo++
		if path := DiffHeaderPath(strings.TrimRight(line, "\r\n")); path != "" {
			sections = append(sections, FileSection{Path: path, Line: lineNo})
		}
	}
	return sections
}

// DiffHeaderPath returns the post-image path of a `diff --git a/x b/y`
// header, or "" for any other line.
func DiffHeaderPath(line string) string {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return ""
	}
	tokens := diffLineTokens(strings.TrimSpace(rest))
	if len(tokens) < 2 {
		return ""
	}
	return strings.TrimPrefix(tokens[1], "b/")
}

// diffLineTokens splits on blanks, honoring the C-style quoting git applies to
// paths with unusual characters. Octal escapes decode to the raw bytes.
func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return tokens
		}
		if s[0] != '"' {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			tokens = append(tokens, s[:end])
			s = s[end:]
			continue
		}
		end := 1
		for end < len(s) && s[end] != '"' {
			if s[end] == '\\' {
				end++
			}
			end++
		}
		end = min(end+1, len(s))
		token, err := strconv.Unquote(s[:end])
		if err != nil {
			token = strings.Trim(s[:end], `"`)
		}
		tokens = append(tokens, token)
		s = s[end:]
	}
}
