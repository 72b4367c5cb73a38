// Package mcp provides the launcher MCP server, registering the diagnostic
// tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	launcher "github.com/moosedata/My-Code"
	"github.com/moosedata/My-Code/internal/config"
	"github.com/moosedata/My-Code/internal/launch"
	"github.com/moosedata/My-Code/internal/logging"
	"github.com/moosedata/My-Code/internal/report"
	"github.com/moosedata/My-Code/internal/runner"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers. The engine is
// replaced, never mutated, when the client reports a new root.
type handler struct {
	mu     sync.RWMutex
	engine *launch.Engine
	store  report.Store
}

func (h *handler) current() *launch.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// NewServer creates an MCP server with all launcher tools registered.
// The engine's prompt is never used: no tool launches or pauses.
func NewServer(engine *launch.Engine, store report.Store) *mcp.Server {
	if store == nil {
		store = report.Nop{}
	}
	h := &handler{engine: engine, store: store}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateRootFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "launcher", Version: launcher.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "launcher_doctor",
		Description: `Check that the application can be launched: runtime on PATH, required libraries
installed, manifest and entry point present.

Never installs packages or starts the application. The run is recorded for launcher_inspect.`,
	}, h.doctorHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "launcher_history",
		Description: "List recent launcher runs, newest first, with their outcome and terminal status.",
	}, h.historyHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "launcher_inspect",
		Description: `Show every stage of one run: the command, its exit code and any detail.

Use a run_id from launcher_history or launcher_doctor.`,
	}, h.inspectHandler)

	return s
}

// updateRootFromRoots asks the client for MCP roots and retargets the
// engine at the first file root that loads a valid configuration.
func (h *handler) updateRootFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	if err := h.retarget(u.Path); err != nil {
		logging.FromContext(ctx).Warn("ignoring client root", "root", u.Path, "err", err)
	}
}

// retarget swaps in an engine for the application rooted at or above dir.
// Engines already handed to running tools are left untouched.
func (h *handler) retarget(dir string) error {
	loaded, err := config.Load(dir)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := *h.engine
	next.Config = loaded.Config
	next.AppRoot = loaded.AppRoot
	if r, ok := h.engine.Runner.(*runner.Runner); ok {
		nr := *r
		nr.Workspace = loaded.AppRoot
		nr.MaxOutput = loaded.Config.MaxOutputBytes()
		next.Runner = &nr
	}
	h.engine = &next
	return nil
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
