// Package retrieval defines the Knowledge Retriever external
// collaborator (spec.md §6 item 2): `retrieve_context(query, domain,
// category, limit) -> text` and `search_raw -> [items]` for
// persona/rules/skills/procedures. Failure returns empty text; Gate-In
// proceeds regardless. Reached over gRPC like internal/toolkit.
package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// RawItem is one entry from search_raw.
type RawItem struct {
	ID       string
	Category string
	Content  string
}

// Retriever is the Knowledge Retriever contract.
type Retriever interface {
	RetrieveContext(ctx context.Context, query, domain, category string, limit int) (string, error)
	SearchRaw(ctx context.Context, query string, limit int) ([]RawItem, error)
}

type retrieveContextRequest struct {
	Query    string `json:"query"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

type retrieveContextResponse struct {
	Text string `json:"text"`
}

type searchRawRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchRawResponse struct {
	Items []RawItem `json:"items"`
}

// GRPCRetriever calls a remote knowledge-retrieval service over gRPC.
type GRPCRetriever struct {
	conn    *grpc.ClientConn
	log     *zap.Logger
	timeout time.Duration
}

// NewGRPCRetriever wraps an already-dialed connection.
func NewGRPCRetriever(conn *grpc.ClientConn, log *zap.Logger) *GRPCRetriever {
	return &GRPCRetriever{conn: conn, log: log, timeout: 5 * time.Second}
}

// RetrieveContext fetches semantic context text for query. Any error
// returns empty text without propagating, per spec.md §6.
func (g *GRPCRetriever) RetrieveContext(ctx context.Context, query, domain, category string, limit int) (string, error) {
	if g == nil || g.conn == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &retrieveContextRequest{Query: query, Domain: domain, Category: category, Limit: limit}
	resp := &retrieveContextResponse{}
	if err := g.conn.Invoke(ctx, "/knowledge.Retriever/RetrieveContext", req, resp); err != nil {
		if g.log != nil {
			g.log.Warn("retrieval: retrieve_context failed, returning empty text", zap.Error(err))
		}
		return "", nil
	}
	return resp.Text, nil
}

// SearchRaw fetches raw persona/rules/skills/procedure items.
func (g *GRPCRetriever) SearchRaw(ctx context.Context, query string, limit int) ([]RawItem, error) {
	if g == nil || g.conn == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &searchRawRequest{Query: query, Limit: limit}
	resp := &searchRawResponse{}
	if err := g.conn.Invoke(ctx, "/knowledge.Retriever/SearchRaw", req, resp); err != nil {
		if g.log != nil {
			g.log.Warn("retrieval: search_raw failed, returning empty set", zap.Error(err))
		}
		return nil, nil
	}
	return resp.Items, nil
}

// NoopRetriever always returns empty results without attempting any RPC.
type NoopRetriever struct{}

func (NoopRetriever) RetrieveContext(ctx context.Context, query, domain, category string, limit int) (string, error) {
	return "", nil
}

func (NoopRetriever) SearchRaw(ctx context.Context, query string, limit int) ([]RawItem, error) {
	return nil, nil
}
