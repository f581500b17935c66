package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/thiagokokada/gitliner/internal/git"
)

const devNull = "/dev/null"

// UnifiedDiff renders a snapshot pair as a git style unified diff. An absent
// side is labelled /dev/null, an empty present side has no lines at all.
func UnifiedDiff(pair *git.SnapshotPair, contextLines int) (string, error) {
	if contextLines < 0 {
		contextLines = 3
	}
	from, to := "a/"+pair.Path, "b/"+pair.Path
	if !pair.Before.Present {
		from = devNull
	}
	if !pair.After.Present {
		to = devNull
	}
	body, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitContent(pair.Before.Content),
		B:        splitContent(pair.After.Content),
		FromFile: from,
		FromDate: shortRev(pair.Parent),
		ToFile:   to,
		ToDate:   shortRev(pair.Rev),
		Context:  contextLines,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", pair.Path, err)
	}
	header := fmt.Sprintf("diff --git a/%s b/%s\n", pair.Path, pair.Path)
	switch pair.Kind() {
	case "added":
		header += "new file\n"
	case "deleted":
		header += "deleted file\n"
	}
	return header + body, nil
}

const noNewline = "\\ No newline at end of file\n"

// splitContent splits content into newline terminated lines. A last line
// without a newline carries git's marker, so it differs from the same text
// with a newline and the marker follows it in the output.
func splitContent(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(content), "\n")
	last := len(lines) - 1
	if lines[last] == "" {
		return lines[:last]
	}
	lines[last] += "\n" + noNewline
	return lines
}

func shortRev(rev string) string {
	if len(rev) <= git.ShortIDLen {
		return rev
	}
	return rev[:git.ShortIDLen]
}

// Diff prints the title of d followed by its patch, or by the unified diff of
// its snapshot pair when git could not isolate the line.
func (p *Printer) Diff(d git.Diff) error {
	var patch string
	switch {
	case d.Patch != nil:
		patch = string(d.Patch.Patch)
	case d.Pair != nil:
		var err error
		if patch, err = UnifiedDiff(d.Pair, 3); err != nil {
			return err
		}
	default:
		return nil
	}
	p.printf("%s\n\n", p.header.Sprint(d.Title()))
	p.Patch(patch)
	return nil
}

// Patch prints a patch line by line. With colors on, code lines are syntax
// highlighted for the file named by the closest preceding `diff --git` header.
func (p *Printer) Patch(patch string) {
	var (
		lexer chroma.Lexer
		hl    *highlighter
	)
	if p.color {
		hl = newHighlighter(p.palette)
	}
	for line := range strings.Lines(patch) {
		line = strings.TrimRight(line, "\r\n")
		if path := git.DiffHeaderPath(line); path != "" {
			lexer = lexerForPath(path)
		}
		p.printf("%s\n", p.decorate(line, lexer, hl))
	}
}

func (p *Printer) decorate(line string, lexer chroma.Lexer, hl *highlighter) string {
	if !p.color {
		return line
	}
	switch diffLineTag(line) {
	case tagHeader:
		return p.header.Sprint(line)
	case tagHunk:
		return p.hunk.Sprint(line)
	case tagMeta:
		return p.muted.Sprint(line)
	case tagAdd, tagDel:
		c := p.add
		if diffLineTag(line) == tagDel {
			c = p.del
		}
		code, _ := diffLineCode(line)
		if hl == nil || lexer == nil {
			return c.Sprint(line)
		}
		return c.Sprint(line[:1]) + hl.line(lexer, code)
	}
	if rest, ok := strings.CutPrefix(line, "commit "); ok {
		return "commit " + p.id.Sprint(rest)
	}
	if code, ok := diffLineCode(line); ok && hl != nil && lexer != nil {
		return " " + hl.line(lexer, code)
	}
	return line
}

// Artifacts lists materialized files with their size on disk.
func (p *Printer) Artifacts(paths []string) {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			p.printf("%s %s\n", path, p.muted.Sprint("(missing)"))
			continue
		}
		p.printf("%s %s\n", path, p.muted.Sprintf("(%s)", humanize.IBytes(uint64(info.Size()))))
	}
}
