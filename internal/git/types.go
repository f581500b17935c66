package git

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrArtifactIO        = errors.New("artifact i/o failure")
	ErrPathNotInRevision = errors.New("path does not exist in revision or its parent")
)

// ShortIDLen is the length of the display prefix of a revision id.
const ShortIDLen = 8

// Changes holds the best-effort `git show --stat` summary of a commit. OK is
// false when the statistics were not computed or the query failed.
type Changes struct {
	Summary string
	OK      bool
}

// Commit is one revision in a line or file history. FullID is what every
// follow-up query must use; ShortID is for display only.
type Commit struct {
	ShortID string
	FullID  string
	Author  string
	Date    string
	Message string
	Changes Changes
}

func newCommit(fullID, author, date, message string) Commit {
	return Commit{
		ShortID: shortID(fullID),
		FullID:  fullID,
		Author:  author,
		Date:    date,
		Message: message,
	}
}

func shortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// Page is one fetched slice of a history. Total is only meaningful when
// TotalKnown is set, which is the case for file history.
type Page struct {
	Items      []Commit
	HasMore    bool
	Total      int
	TotalKnown bool
}

// PageState accumulates pages for one (path, line) target.
type PageState struct {
	Page     int // next page to fetch
	PageSize int
	Records  []Commit
	HasMore  bool
}

func NewPageState(pageSize int) *PageState {
	return &PageState{PageSize: pageSize, HasMore: true}
}

// Append adds a fetched page and advances the cursor. Records already present
// are skipped so the accumulated list never repeats a revision.
func (s *PageState) Append(p Page) int {
	seen := make(map[string]struct{}, len(s.Records))
	for _, c := range s.Records {
		seen[c.FullID] = struct{}{}
	}
	added := 0
	for _, c := range p.Items {
		if _, ok := seen[c.FullID]; ok {
			continue
		}
		seen[c.FullID] = struct{}{}
		s.Records = append(s.Records, c)
		added++
	}
	s.Page++
	s.HasMore = p.HasMore
	return added
}

// Snapshot is the content of a path at one revision. A snapshot that is not
// Present means the path did not exist there, which differs from an empty file.
type Snapshot struct {
	Rev      string
	Present  bool
	Content  []byte
	Artifact string
}

type SnapshotPair struct {
	Before Snapshot
	After  Snapshot
	Title  string
	Path   string // relative to the repository root
	Rev    string
	Parent string
}

// Kind names the change the pair represents.
func (p *SnapshotPair) Kind() string {
	switch {
	case !p.Before.Present:
		return "added"
	case !p.After.Present:
		return "deleted"
	case len(p.After.Content) == 0 && len(p.Before.Content) > 0:
		return "emptied"
	default:
		return "modified"
	}
}

func (p *SnapshotPair) Artifacts() []string {
	var out []string
	for _, s := range []Snapshot{p.Before, p.After} {
		if s.Artifact != "" {
			out = append(out, s.Artifact)
		}
	}
	return out
}

// LinePatch is the `git log -L` patch of a single line for one revision.
type LinePatch struct {
	Path     string
	Rev      string
	Line     int
	Patch    []byte
	Artifact string
	Title    string
	Sections []FileSection
}

// FileSection marks where the patch of one file starts, 1-based.
type FileSection struct {
	Path string
	Line int
}

// Diff is the result of a line scoped diff request: the narrow line patch
// when git could isolate it, otherwise the full snapshot pair.
type Diff struct {
	Patch *LinePatch
	Pair  *SnapshotPair
}

func (d Diff) Title() string {
	switch {
	case d.Patch != nil:
		return d.Patch.Title
	case d.Pair != nil:
		return d.Pair.Title
	}
	return ""
}

func (d Diff) Artifacts() []string {
	switch {
	case d.Patch != nil && d.Patch.Artifact != "":
		return []string{d.Patch.Artifact}
	case d.Pair != nil:
		return d.Pair.Artifacts()
	}
	return nil
}
