package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kenislabs/arka-gateway/internal/instrumentation"
	"github.com/kenislabs/arka-gateway/internal/logging"
	"github.com/kenislabs/arka-gateway/internal/server"
	"github.com/kenislabs/arka-gateway/internal/worker"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = mcpserver.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with principal binding and
// invocation metrics. The principal is taken from the request arguments
// when the transport did not set one, so every downstream token
// resolution sees the right identity.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		ctx = PrincipalFromArgs(ctx, args)

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}

		principalHash := logging.AnonymizePrincipal(worker.PrincipalFromContext(ctx))
		sc.Metrics().RecordToolInvocationWithPrincipal(ctx, toolName, status, principalHash, duration)

		return result, err
	}
}
