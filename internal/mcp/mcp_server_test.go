package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitliner/internal/git"
	mcp_internal "github.com/thiagokokada/gitliner/internal/mcp"
	"github.com/thiagokokada/gitliner/internal/render"
)

const idA = "1111111111111111111111111111111111111111"

type fakeEngine struct {
	lineCalls [][3]int // line, page, pageSize
	diffLines []int
	released  []string
	artifacts []string
	err       error
}

func (f *fakeEngine) LineHistory(_ context.Context, _ string, line, page, pageSize int) (git.Page, error) {
	f.lineCalls = append(f.lineCalls, [3]int{line, page, pageSize})
	if f.err != nil {
		return git.Page{}, f.err
	}
	return git.Page{Items: []git.Commit{{ShortID: idA[:8], FullID: idA, Author: "Alice", Date: "2024-03-01", Message: "Add"}}, HasMore: true}, nil
}

func (f *fakeEngine) FileHistory(_ context.Context, _ string, _, _ int) (git.Page, error) {
	if f.err != nil {
		return git.Page{}, f.err
	}
	return git.Page{Items: []git.Commit{}, Total: 7, TotalKnown: true}, nil
}

func (f *fakeEngine) ShowCommitDiff(_ context.Context, path, rev string) (*git.SnapshotPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &git.SnapshotPair{
		Path:   path,
		Rev:    rev,
		Title:  "Add (11111111) - " + path,
		Before: git.Snapshot{Present: true, Content: []byte("a\n"), Artifact: "/tmp/before"},
		After:  git.Snapshot{Present: true, Content: []byte("b\n"), Artifact: "/tmp/after"},
	}, nil
}

func (f *fakeEngine) ShowLineCommitDiff(_ context.Context, path, rev string, line int) (git.Diff, error) {
	f.diffLines = append(f.diffLines, line)
	if f.err != nil {
		return git.Diff{}, f.err
	}
	return git.Diff{Patch: &git.LinePatch{
		Path:     path,
		Rev:      rev,
		Line:     line,
		Patch:    []byte("diff --git a/a.ts b/a.ts\n+x\n"),
		Artifact: "/tmp/patch.diff",
		Title:    "Add (11111111) - a.ts, line 3",
	}}, nil
}

func (f *fakeEngine) Release(artifact string) error {
	f.released = append(f.released, artifact)
	return f.err
}

func (f *fakeEngine) Artifacts() []string {
	return f.artifacts
}

func call(t *testing.T, e mcp_internal.Engine, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(e, 10)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result, not as errors")
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text
}

func TestGetLineHistory(t *testing.T) {
	e := &fakeEngine{}
	res := call(t, e, "get_line_history", map[string]any{"path": "a.ts", "line": 41.0, "zero_based": true, "page": 2.0})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, [][3]int{{42, 2, 10}}, e.lineCalls, "zero-based line converted, default page size applied")

	var doc render.HistoryDocument
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Equal(t, 42, doc.Line)
	assert.True(t, doc.HasMore)
	require.Len(t, doc.Commits, 1)
	assert.Equal(t, 21, doc.Commits[0].Index)
	assert.Nil(t, doc.Total)
}

func TestGetLineHistoryValidation(t *testing.T) {
	e := &fakeEngine{}

	res := call(t, e, "get_line_history", map[string]any{"path": "a.ts"})
	assert.True(t, res.IsError)

	res = call(t, e, "get_line_history", map[string]any{"path": "a.ts", "line": 1.0, "page": -1.0})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "page must be >= 0")

	res = call(t, e, "get_line_history", map[string]any{"path": "a.ts", "line": 1.0, "page_size": 0.0})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "page_size must be > 0")
	assert.Empty(t, e.lineCalls)
}

func TestEngineErrorsBecomeToolErrors(t *testing.T) {
	e := &fakeEngine{err: fmt.Errorf("wrap: %w", git.ErrPathNotInRevision)}
	res := call(t, e, "show_commit_diff", map[string]any{"path": "a.ts", "rev": idA})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), git.ErrPathNotInRevision.Error())

	res = call(t, e, "get_file_history", map[string]any{"path": "a.ts"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "file history failed")
}

func TestGetFileHistoryReportsTotal(t *testing.T) {
	res := call(t, &fakeEngine{}, "get_file_history", map[string]any{"path": "a.ts"})
	require.False(t, res.IsError, text(t, res))
	var doc render.HistoryDocument
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	require.NotNil(t, doc.Total)
	assert.Equal(t, 7, *doc.Total)
	assert.Empty(t, doc.Commits)
}

func TestShowCommitDiff(t *testing.T) {
	res := call(t, &fakeEngine{}, "show_commit_diff", map[string]any{"path": "a.ts", "rev": idA})
	require.False(t, res.IsError, text(t, res))
	var doc render.DiffDocument
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Equal(t, "modified", doc.Kind)
	assert.Equal(t, []string{"/tmp/before", "/tmp/after"}, doc.Artifacts)
	assert.Contains(t, doc.Patch, "-a\n")
	assert.Contains(t, doc.Patch, "+b\n")
}

func TestShowLineCommitDiff(t *testing.T) {
	res := call(t, &fakeEngine{}, "show_line_commit_diff", map[string]any{"path": "a.ts", "rev": idA, "line": 3.0})
	require.False(t, res.IsError, text(t, res))
	var doc render.DiffDocument
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Equal(t, "line", doc.Kind)
	assert.Equal(t, "Add (11111111) - a.ts, line 3", doc.Title)
	assert.Equal(t, []string{"/tmp/patch.diff"}, doc.Artifacts)
}

func TestShowLineCommitDiffZeroBased(t *testing.T) {
	e := &fakeEngine{}
	res := call(t, e, "show_line_commit_diff", map[string]any{"path": "a.ts", "rev": idA, "line": 2.0, "zero_based": true})
	require.False(t, res.IsError, text(t, res))
	res = call(t, e, "show_line_commit_diff", map[string]any{"path": "a.ts", "rev": idA, "line": 2.0})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, []int{3, 2}, e.diffLines)
}

func TestArtifactTools(t *testing.T) {
	e := &fakeEngine{artifacts: []string{"/tmp/x"}}
	res := call(t, e, "release_artifact", map[string]any{"artifact": "/tmp/x"})
	require.False(t, res.IsError)
	assert.Equal(t, []string{"/tmp/x"}, e.released)

	res = call(t, e, "list_artifacts", map[string]any{})
	require.False(t, res.IsError)
	assert.JSONEq(t, `["/tmp/x"]`, text(t, res))

	res = call(t, &fakeEngine{}, "list_artifacts", nil)
	assert.JSONEq(t, `[]`, text(t, res))
}
