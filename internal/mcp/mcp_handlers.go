package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/render"
)

type toolHandler struct {
	engine   Engine
	pageSize int
}

func (h *toolHandler) paging(request mcp.CallToolRequest) (int, int, error) {
	page := request.GetInt("page", 0)
	if page < 0 {
		return 0, 0, fmt.Errorf("page must be >= 0, got %d", page)
	}
	pageSize := request.GetInt("page_size", h.pageSize)
	if pageSize <= 0 {
		return 0, 0, fmt.Errorf("page_size must be > 0, got %d", pageSize)
	}
	return page, pageSize, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) handleGetLineHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := request.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetBool("zero_based", false) {
		line++
	}
	page, pageSize, err := h.paging(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.engine.LineHistory(ctx, path, line, page, pageSize)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("line history failed: %v", err)), nil
	}
	return jsonResult(render.NewHistoryDocument(render.HistoryHeader{Path: path, Line: line, Offset: page * pageSize}, result))
}

func (h *toolHandler) handleGetFileHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, pageSize, err := h.paging(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.engine.FileHistory(ctx, path, page, pageSize)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("file history failed: %v", err)), nil
	}
	return jsonResult(render.NewHistoryDocument(render.HistoryHeader{Path: path, Offset: page * pageSize}, result))
}

func (h *toolHandler) handleShowCommitDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rev, err := request.RequireString("rev")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pair, err := h.engine.ShowCommitDiff(ctx, path, rev)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reconstruct failed: %v", err)), nil
	}
	return diffResult(git.Diff{Pair: pair})
}

func (h *toolHandler) handleShowLineCommitDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rev, err := request.RequireString("rev")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := request.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetBool("zero_based", false) {
		line++
	}

	d, err := h.engine.ShowLineCommitDiff(ctx, path, rev, line)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reconstruct failed: %v", err)), nil
	}
	return diffResult(d)
}

func diffResult(d git.Diff) (*mcp.CallToolResult, error) {
	doc, err := render.NewDiffDocument(d)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render diff: %v", err)), nil
	}
	return jsonResult(doc)
}

func (h *toolHandler) handleReleaseArtifact(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artifact, err := request.RequireString("artifact")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.engine.Release(artifact); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("release failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("released %s", artifact)), nil
}

func (h *toolHandler) handleListArtifacts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artifacts := h.engine.Artifacts()
	if artifacts == nil {
		artifacts = []string{}
	}
	return jsonResult(artifacts)
}
