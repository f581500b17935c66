package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const ansiReset = "\x1b[0m"

type highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

func newHighlighter(p colorPalette) *highlighter {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &highlighter{style: styleForPalette(p), formatter: formatter}
}

func styleForPalette(p colorPalette) *chroma.Style {
	if st := styles.Get(p.ChromaName); st != nil {
		return st
	}
	return styles.Fallback
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// line highlights a single line of code. The result never spans lines and
// always ends with a reset so colors do not bleed into the next line.
func (h *highlighter) line(lexer chroma.Lexer, code string) string {
	if h == nil || lexer == nil || code == "" {
		return code
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, iterator); err != nil {
		return code
	}
	out := strings.ReplaceAll(b.String(), "\n", "")
	if !strings.HasSuffix(out, ansiReset) {
		out += ansiReset
	}
	return out
}

// diffLineCode strips the marker column from a hunk body line. Header lines
// and "\ No newline" notes are not code.
func diffLineCode(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	switch line[0] {
	case '+', '-', ' ':
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			return "", false
		}
		return line[1:], true
	default:
		return "", false
	}
}

type lineTag int

const (
	tagNone lineTag = iota
	tagHeader
	tagHunk
	tagAdd
	tagDel
	tagMeta
)

func diffLineTag(line string) lineTag {
	switch {
	case strings.HasPrefix(line, "diff --git"):
		return tagHeader
	case strings.HasPrefix(line, "@@"):
		return tagHunk
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"),
		strings.HasPrefix(line, "index "), strings.HasPrefix(line, "new file"),
		strings.HasPrefix(line, "deleted file"), strings.HasPrefix(line, `\ `):
		return tagMeta
	case strings.HasPrefix(line, "+"):
		return tagAdd
	case strings.HasPrefix(line, "-"):
		return tagDel
	default:
		return tagNone
	}
}
