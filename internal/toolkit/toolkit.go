// Package toolkit defines the Tool Registry external collaborator
// (spec.md §6 item 3): `search_tools(query, limit, min_similarity) ->
// [tool_schema]`. Failure yields an empty tool set; planning degrades
// but never crashes.
//
// The registry is reached over gRPC, the transport the teacher's go.mod
// already depends on (google.golang.org/grpc). A real deployment backs
// this with a generated client stub from the tool-registry service's
// .proto; this package defines the thin interface the kernel depends on
// plus a gRPC-backed implementation using grpc.ClientConn.Invoke
// directly, so the kernel never needs the generated stub to compile.
package toolkit

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// ToolSchema is one entry in a search_tools result.
type ToolSchema struct {
	Name        string
	Description string
	Similarity  float64
}

// Registry is the Tool Registry contract.
type Registry interface {
	SearchTools(ctx context.Context, query string, limit int, minSimilarity float64) ([]ToolSchema, error)
}

// searchToolsRequest/Response mirror the wire shape a generated
// tool_registry.proto client would use.
type searchToolsRequest struct {
	Query         string  `json:"query"`
	Limit         int     `json:"limit"`
	MinSimilarity float64 `json:"min_similarity"`
}

type searchToolsResponse struct {
	Tools []ToolSchema `json:"tools"`
}

// GRPCRegistry calls a remote tool-registry service over gRPC.
type GRPCRegistry struct {
	conn    *grpc.ClientConn
	log     *zap.Logger
	timeout time.Duration
}

// NewGRPCRegistry wraps an already-dialed connection. Dialing (with
// whatever transport credentials the deployment requires) is the
// caller's responsibility, matching how the teacher wires its own
// service connections in cmd/octoreflex/main.go.
func NewGRPCRegistry(conn *grpc.ClientConn, log *zap.Logger) *GRPCRegistry {
	return &GRPCRegistry{conn: conn, log: log, timeout: 5 * time.Second}
}

// SearchTools invokes the remote registry's SearchTools RPC. Any error
// (including "no registry configured") yields an empty tool set rather
// than propagating, per spec.md §6.
func (g *GRPCRegistry) SearchTools(ctx context.Context, query string, limit int, minSimilarity float64) ([]ToolSchema, error) {
	if g == nil || g.conn == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &searchToolsRequest{Query: query, Limit: limit, MinSimilarity: minSimilarity}
	resp := &searchToolsResponse{}

	if err := g.conn.Invoke(ctx, "/toolregistry.ToolRegistry/SearchTools", req, resp); err != nil {
		if g.log != nil {
			g.log.Warn("toolkit: search_tools failed, degrading to empty tool set", zap.Error(err))
		}
		return nil, nil
	}
	return resp.Tools, nil
}

// NoopRegistry always returns an empty tool set without attempting any
// RPC; used when no tool registry is configured at all.
type NoopRegistry struct{}

func (NoopRegistry) SearchTools(ctx context.Context, query string, limit int, minSimilarity float64) ([]ToolSchema, error) {
	return nil, nil
}
