package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/thiagokokada/gitliner/internal/git"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q (want table, json or csv)", raw)
	}
}

// HistoryHeader describes the page being printed. Offset is the number of
// records shown on earlier pages so row numbers keep counting across pages.
// Filter is the query the records were narrowed by; totals then no longer
// describe what is shown and are left out.
type HistoryHeader struct {
	Path   string
	Line   int
	Offset int
	Filter string
}

// History writes one page of a line or file history in the given format.
func (p *Printer) History(format Format, h HistoryHeader, page git.Page) error {
	switch format {
	case FormatJSON:
		return writeJSON(p.w, NewHistoryDocument(h, page))
	case FormatCSV:
		return writeHistoryCSV(p.w, h, page)
	default:
		return p.historyTable(h, page)
	}
}

func hasChanges(items []git.Commit) bool {
	for _, c := range items {
		if c.Changes.OK {
			return true
		}
	}
	return false
}

// messageWidth leaves room for the fixed columns and the table borders.
func (p *Printer) messageWidth(withChanges bool) int {
	fixed := 60
	if withChanges {
		fixed += 30
	}
	available := p.width - fixed
	if available < 20 {
		return 20
	}
	if available > 100 {
		return 100
	}
	return available
}

func (p *Printer) historyTable(h HistoryHeader, page git.Page) error {
	target := h.Path
	if h.Line > 0 {
		target = fmt.Sprintf("%s:%d", h.Path, h.Line)
	}
	if len(page.Items) == 0 {
		if h.Filter != "" {
			p.printf("%s\n", p.muted.Sprintf("No commits matching %q for %s", h.Filter, target))
			return nil
		}
		p.printf("%s\n", p.muted.Sprintf("No history for %s", target))
		return nil
	}

	table := tablewriter.NewWriter(p.w)
	defer func() { _ = table.Close() }()

	withChanges := hasChanges(page.Items)
	headers := []string{"#", "Commit", "Date", "Author", "Message"}
	if withChanges {
		headers = append(headers, "Changes")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	msgWidth := p.messageWidth(withChanges)
	id := p.id.SprintFunc()
	data := make([][]string, 0, len(page.Items))
	for i, c := range page.Items {
		row := []string{
			strconv.Itoa(h.Offset + i + 1),
			id(c.ShortID),
			c.Date,
			truncate(c.Author, 24),
			truncate(c.Message, msgWidth),
		}
		if withChanges {
			row = append(row, changesCell(c.Changes))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	shown := h.Offset + len(page.Items)
	switch {
	case h.Filter != "" && page.HasMore:
		p.printf("%s\n", p.muted.Sprintf("%s: %d commits matching %q, more available", target, len(page.Items), h.Filter))
	case h.Filter != "":
		p.printf("%s\n", p.muted.Sprintf("%s: %d commits matching %q", target, len(page.Items), h.Filter))
	case page.TotalKnown:
		p.printf("%s\n", p.muted.Sprintf("%s: showing %d of %d commits", target, shown, page.Total))
	case page.HasMore:
		p.printf("%s\n", p.muted.Sprintf("%s: showing %d commits, more available", target, shown))
	default:
		p.printf("%s\n", p.muted.Sprintf("%s: %d commits", target, shown))
	}
	return nil
}

// changesCell keeps the last line of a --stat summary, which is the
// "N files changed" total.
func changesCell(ch git.Changes) string {
	if !ch.OK {
		return ""
	}
	summary := strings.TrimSpace(ch.Summary)
	if i := strings.LastIndexByte(summary, '\n'); i >= 0 {
		summary = strings.TrimSpace(summary[i+1:])
	}
	return summary
}

type CommitDocument struct {
	Index   int    `json:"index"`
	ShortID string `json:"short_id"`
	FullID  string `json:"full_id"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Changes string `json:"changes,omitempty"`
}

// HistoryDocument is the JSON shape of a history page.
type HistoryDocument struct {
	Path    string           `json:"path"`
	Line    int              `json:"line,omitempty"`
	Filter  string           `json:"filter,omitempty"`
	Commits []CommitDocument `json:"commits"`
	HasMore bool             `json:"has_more"`
	Total   *int             `json:"total,omitempty"`
}

func NewHistoryDocument(h HistoryHeader, page git.Page) HistoryDocument {
	out := HistoryDocument{
		Path:    h.Path,
		Line:    h.Line,
		Filter:  h.Filter,
		Commits: make([]CommitDocument, len(page.Items)),
		HasMore: page.HasMore,
	}
	for i, c := range page.Items {
		out.Commits[i] = CommitDocument{
			Index:   h.Offset + i + 1,
			ShortID: c.ShortID,
			FullID:  c.FullID,
			Author:  c.Author,
			Date:    c.Date,
			Message: c.Message,
		}
		if c.Changes.OK {
			out.Commits[i].Changes = c.Changes.Summary
		}
	}
	if page.TotalKnown && h.Filter == "" {
		total := page.Total
		out.Total = &total
	}
	return out
}

func writeHistoryCSV(w io.Writer, h HistoryHeader, page git.Page) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "full_id", "date", "author", "message"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, c := range page.Items {
		row := []string{strconv.Itoa(h.Offset + i + 1), c.FullID, c.Date, c.Author, c.Message}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// DiffDocument is the JSON shape of a diff. A snapshot pair is rendered to a
// unified diff so both shapes carry a patch.
type DiffDocument struct {
	Title     string   `json:"title"`
	Path      string   `json:"path"`
	Rev       string   `json:"rev"`
	Kind      string   `json:"kind"`
	Patch     string   `json:"patch"`
	Artifacts []string `json:"artifacts"`
}

func NewDiffDocument(d git.Diff) (DiffDocument, error) {
	out := DiffDocument{Title: d.Title(), Artifacts: d.Artifacts()}
	switch {
	case d.Patch != nil:
		out.Path, out.Rev, out.Kind = d.Patch.Path, d.Patch.Rev, "line"
		out.Patch = string(d.Patch.Patch)
	case d.Pair != nil:
		patch, err := UnifiedDiff(d.Pair, 3)
		if err != nil {
			return DiffDocument{}, err
		}
		out.Path, out.Rev, out.Kind = d.Pair.Path, d.Pair.Rev, d.Pair.Kind()
		out.Patch = patch
	}
	if out.Artifacts == nil {
		out.Artifacts = []string{}
	}
	return out, nil
}

func (p *Printer) DiffJSON(d git.Diff) error {
	doc, err := NewDiffDocument(d)
	if err != nil {
		return err
	}
	return writeJSON(p.w, doc)
}
