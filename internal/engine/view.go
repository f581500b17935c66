package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/thiagokokada/gitliner/internal/git"
)

// ErrStale is returned for a fetch whose target was replaced while it ran.
// Its result was dropped.
var ErrStale = errors.New("stale response dropped")

// Target is what a view shows: the history of Line in Path, or the history
// of the whole file when Line is 0.
type Target struct {
	Path string
	Line int
}

// View accumulates the pages of one target at a time. Selecting a new target
// while a fetch is in flight makes that fetch return ErrStale instead of
// touching the view.
type View struct {
	e        *Engine
	pageSize int

	mu         sync.Mutex
	generation int
	target     Target
	state      *git.PageState
}

func (e *Engine) NewView(pageSize int) *View {
	if pageSize <= 0 {
		pageSize = git.DefaultPageSize
	}
	return &View{e: e, pageSize: pageSize, state: git.NewPageState(pageSize)}
}

// Select switches to target and loads its first page.
func (v *View) Select(ctx context.Context, target Target) (git.Page, error) {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.target = target
	v.state = git.NewPageState(v.pageSize)
	v.mu.Unlock()
	return v.load(ctx, gen, target, 0)
}

// LoadMore fetches the next page of the current target. It returns an empty
// page once the history is exhausted.
func (v *View) LoadMore(ctx context.Context) (git.Page, error) {
	v.mu.Lock()
	gen, target, st := v.generation, v.target, v.state
	if gen == 0 || !st.HasMore {
		v.mu.Unlock()
		return git.Page{Items: []git.Commit{}}, nil
	}
	page := st.Page
	v.mu.Unlock()
	return v.load(ctx, gen, target, page)
}

func (v *View) load(ctx context.Context, gen int, target Target, page int) (git.Page, error) {
	var (
		p   git.Page
		err error
	)
	if target.Line > 0 {
		p, err = v.e.LineHistory(ctx, target.Path, target.Line, page, v.pageSize)
	} else {
		p, err = v.e.FileHistory(ctx, target.Path, page, v.pageSize)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	// A newer Select, or a concurrent LoadMore that already appended this
	// page, owns the view now.
	if gen != v.generation || v.state.Page != page {
		return git.Page{}, ErrStale
	}
	if err != nil {
		return git.Page{}, err
	}
	v.state.Append(p)
	return p, nil
}

func (v *View) Target() Target {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.target
}

// Records returns every record loaded for the current target, in order.
func (v *View) Records() []git.Commit {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]git.Commit(nil), v.state.Records...)
}

func (v *View) HasMore() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.HasMore
}
