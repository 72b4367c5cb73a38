package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/moosedata/My-Code/internal/report"
)

const defaultHistoryLimit = 10

type historyParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to list, newest first (default 10)"`
}

func (h *handler) historyHandler(ctx context.Context, req *mcp.CallToolRequest, params historyParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	records, err := h.store.List(limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to list runs: %v", err))
	}
	if len(records) == 0 {
		return textResult("No runs recorded.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d):\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "  %s\n", r.Summary())
	}
	return textResult(b.String())
}

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from launcher_history or launcher_doctor"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	record, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	return textResult(report.Format(record))
}
