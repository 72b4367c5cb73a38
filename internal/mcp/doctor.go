package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/moosedata/My-Code/internal/launch"
)

type doctorParams struct{}

func (h *handler) doctorHandler(ctx context.Context, req *mcp.CallToolRequest, _ doctorParams) (*mcp.CallToolResult, any, error) {
	result, err := h.current().Doctor(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("doctor failed: %v", err))
	}

	text := launch.FormatDoctor(result)
	text += fmt.Sprintf("\nInspect with launcher_inspect(run_id=%q).\n", result.Record.ID)
	return textResult(text)
}
