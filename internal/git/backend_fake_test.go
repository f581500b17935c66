package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gitbackend "github.com/thiagokokada/gitliner/internal/git/backend"
)

// fakeBackend answers git invocations by subcommand. Handlers receive the full
// argument list.
type fakeBackend struct {
	repoPath string

	mu       sync.Mutex
	handlers map[string]func(args []string) (string, error)
	calls    [][]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{repoPath: "/repo", handlers: map[string]func([]string) (string, error){}}
}

func (f *fakeBackend) on(sub string, fn func(args []string) (string, error)) *fakeBackend {
	f.handlers[sub] = fn
	return f
}

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) Run(_ context.Context, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	fn := f.handlers[args[0]]
	f.mu.Unlock()
	if fn == nil {
		return "", fmt.Errorf("unexpected git %s call", strings.Join(args, " "))
	}
	return fn(args)
}

func (f *fakeBackend) RunBytes(ctx context.Context, args ...string) ([]byte, error) {
	out, err := f.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (f *fakeBackend) callsTo(sub string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, c := range f.calls {
		if c[0] == sub {
			out = append(out, c)
		}
	}
	return out
}

func queryFailed(args []string, stderr string) error {
	return &gitbackend.QueryError{Args: args, ExitCode: 128, Stderr: stderr, Err: errors.New("exit status 128")}
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

// fakeTree is an in-memory repository: parents by revision and file contents
// by revision and path.
type fakeTree struct {
	parents map[string]string
	files   map[string]map[string]string

	existsErr error
}

func (t *fakeTree) Parent(_ context.Context, rev string) (string, bool, error) {
	parent, ok := t.parents[rev]
	if !ok {
		return "", false, fmt.Errorf("unknown revision %q", rev)
	}
	return parent, parent != "", nil
}

func (t *fakeTree) Exists(_ context.Context, rev, path string) (bool, error) {
	if t.existsErr != nil {
		return false, t.existsErr
	}
	_, ok := t.files[rev][path]
	return ok, nil
}

func (t *fakeTree) Blob(_ context.Context, rev, path string) ([]byte, error) {
	content, ok := t.files[rev][path]
	if !ok {
		return nil, fmt.Errorf("%s not in %s", path, rev)
	}
	return []byte(content), nil
}

// fakeArtifacts records artifacts in memory and can fail the n-th Create.
type fakeArtifacts struct {
	mu       sync.Mutex
	files    map[string][]byte
	released []string
	creates  int
	failAt   int
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{files: map[string][]byte{}}
}

func (a *fakeArtifacts) Create(name string, content []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.creates++
	if a.failAt > 0 && a.creates == a.failAt {
		return "", errors.New("disk full")
	}
	p := "/tmp/artifacts/" + name
	a.files[p] = append([]byte(nil), content...)
	return p, nil
}

func (a *fakeArtifacts) Release(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, path)
	a.released = append(a.released, path)
	return nil
}
