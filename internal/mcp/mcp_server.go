// Package mcp exposes line and file history over the Model Context Protocol.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thiagokokada/gitliner/internal/buildinfo"
	"github.com/thiagokokada/gitliner/internal/git"
)

// Engine is the subset of the history engine the tools call.
type Engine interface {
	LineHistory(ctx context.Context, path string, line, page, pageSize int) (git.Page, error)
	FileHistory(ctx context.Context, path string, page, pageSize int) (git.Page, error)
	ShowCommitDiff(ctx context.Context, path, rev string) (*git.SnapshotPair, error)
	ShowLineCommitDiff(ctx context.Context, path, rev string, line int) (git.Diff, error)
	Release(artifact string) error
	Artifacts() []string
}

// NewMCPServer registers every tool without starting the server.
func NewMCPServer(e Engine, pageSize int) *server.MCPServer {
	s := server.NewMCPServer(
		"gitliner",
		buildinfo.Version(),
		server.WithLogging(),
	)
	if pageSize <= 0 {
		pageSize = git.DefaultPageSize
	}
	h := &toolHandler{engine: e, pageSize: pageSize}

	s.AddTool(mcp.NewTool("get_line_history",
		mcp.WithDescription("List the commits that changed one line of a file, newest first."),
		mcp.WithString("path", mcp.Description("Path of the file, absolute or relative to the server's working directory."), mcp.Required()),
		mcp.WithNumber("line", mcp.Description("Line number, 1-based unless zero_based is set."), mcp.Required()),
		mcp.WithBoolean("zero_based", mcp.Description("Interpret line as a 0-based editor position.")),
		mcp.WithNumber("page", mcp.Description("0-based page index. Defaults to 0.")),
		mcp.WithNumber("page_size", mcp.Description("Commits per page.")),
	), h.handleGetLineHistory)

	s.AddTool(mcp.NewTool("get_file_history",
		mcp.WithDescription("List the commits that changed a file, following renames, with an exact total."),
		mcp.WithString("path", mcp.Description("Path of the file."), mcp.Required()),
		mcp.WithNumber("page", mcp.Description("0-based page index. Defaults to 0.")),
		mcp.WithNumber("page_size", mcp.Description("Commits per page.")),
	), h.handleGetFileHistory)

	s.AddTool(mcp.NewTool("show_commit_diff",
		mcp.WithDescription("Reconstruct a file before and after a commit and return the unified diff."),
		mcp.WithString("path", mcp.Description("Path of the file."), mcp.Required()),
		mcp.WithString("rev", mcp.Description("Full commit id, as returned by the history tools."), mcp.Required()),
	), h.handleShowCommitDiff)

	s.AddTool(mcp.NewTool("show_line_commit_diff",
		mcp.WithDescription("Show how a commit changed one line, falling back to the whole file diff."),
		mcp.WithString("path", mcp.Description("Path of the file."), mcp.Required()),
		mcp.WithString("rev", mcp.Description("Full commit id."), mcp.Required()),
		mcp.WithNumber("line", mcp.Description("Line number, 1-based unless zero_based is set."), mcp.Required()),
		mcp.WithBoolean("zero_based", mcp.Description("Interpret line as a 0-based editor position.")),
	), h.handleShowLineCommitDiff)

	s.AddTool(mcp.NewTool("release_artifact",
		mcp.WithDescription("Delete a temporary file written by a diff tool. Releasing twice is harmless."),
		mcp.WithString("artifact", mcp.Description("Artifact path returned by a diff tool."), mcp.Required()),
	), h.handleReleaseArtifact)

	s.AddTool(mcp.NewTool("list_artifacts",
		mcp.WithDescription("List the temporary files currently held by the server."),
	), h.handleListArtifacts)

	return s
}

// StartMCPServer serves the tools over stdio until the client disconnects.
func StartMCPServer(_ context.Context, e Engine, pageSize int) error {
	return server.ServeStdio(NewMCPServer(e, pageSize))
}
