// Package ingress — server.go
//
// Unix domain socket server for submitting traces to the cognitive
// kernel and inspecting its persisted state.
//
// Protocol: one JSON request per connection, one JSON response back.
// Socket path: /run/cogkernel/ingress.sock (configurable).
// Permissions: 0600, owned by the kernel's user.
//
// Commands (JSON request -> JSON response):
//
//	{"cmd":"process","trace_id":"t1","objective":"...","text":"...",
//	 "role":"assistant","tools_allowed":["search"],
//	 "tools_forbidden":["exec"],"required_outputs":["summary"],
//	 "grounding_min":0.7,"confidence_min":0.6}
//	  -> runs one Gate-In/Execute/Gate-Out pass and returns the
//	     resulting ObserverResult.
//
//	{"cmd":"ledger","trace_id":"t1"}
//	  -> returns every persisted decision ledger entry for that trace,
//	     in chronological order. Requires storage to be configured.
//
//	{"cmd":"curve","domain":"finance"}
//	  -> returns the persisted calibration curve for that domain.
//	     Requires storage to be configured.
//
// Grounded on operator.Server's Unix-socket, one-request-per-connection,
// bounded-concurrency, bounded-size shape, adapted from PID state
// commands to trace submission and ledger/curve inspection.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/azzindani/cogkernel/internal/storage"
	"github.com/azzindani/cogkernel/internal/types"
)

const (
	maxConcurrentConns = 16
	maxRequestBytes    = 65536
	connTimeout        = 30 * time.Second
)

// Processor is the contract the ingress server drives; apex.Orchestrator
// satisfies it.
type Processor interface {
	Process(ctx context.Context, req types.SpawnRequest, input types.RawInput) types.ObserverResult
}

// LedgerStore is the subset of storage.DB the ingress server reads from
// for the "ledger" and "curve" inspection commands.
type LedgerStore interface {
	ReadLedger() ([]storage.LedgerEntry, error)
	GetCalibrationCurve(domain string) (*types.CalibrationCurve, error)
}

// Request is the JSON structure for ingress commands.
type Request struct {
	Cmd             string   `json:"cmd"`
	TraceID         string   `json:"trace_id,omitempty"`
	Objective       string   `json:"objective,omitempty"`
	Text            string   `json:"text,omitempty"`
	Role            string   `json:"role,omitempty"`
	ToolsAllowed    []string `json:"tools_allowed,omitempty"`
	ToolsForbidden  []string `json:"tools_forbidden,omitempty"`
	RequiredOutputs []string `json:"required_outputs,omitempty"`
	GroundingMin    float64  `json:"grounding_min,omitempty"`
	ConfidenceMin   float64  `json:"confidence_min,omitempty"`
	Domain          string   `json:"domain,omitempty"`
}

// Response is the JSON structure for ingress command responses.
type Response struct {
	OK     bool                    `json:"ok"`
	Error  string                  `json:"error,omitempty"`
	Result *types.ObserverResult   `json:"result,omitempty"`
	Ledger []storage.LedgerEntry   `json:"ledger,omitempty"`
	Curve  *types.CalibrationCurve `json:"curve,omitempty"`
}

// Server is the ingress Unix domain socket server.
type Server struct {
	socketPath string
	proc       Processor
	store      LedgerStore
	log        *zap.Logger
	sem        chan struct{}
}

// NewServer creates an ingress Server. store may be nil, in which case
// "ledger" and "curve" commands report an error.
func NewServer(socketPath string, proc Processor, store LedgerStore, log *zap.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		proc:       proc,
		store:      store,
		log:        log,
		sem:        make(chan struct{}, maxConcurrentConns),
	}
}

// ListenAndServe starts the ingress socket server. Removes any stale
// socket file before binding. Blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ingress: remove stale socket %q: %w", s.socketPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("ingress: mkdir %q: %w", filepath.Dir(s.socketPath), err)
	}

	lis, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("ingress: listen %q: %w", s.socketPath, err)
	}
	defer lis.Close()

	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		return fmt.Errorf("ingress: chmod %q: %w", s.socketPath, err)
	}

	s.log.Info("ingress socket listening", zap.String("path", s.socketPath))

	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Error("ingress: accept error", zap.Error(err))
				continue
			}
		}

		select {
		case s.sem <- struct{}{}:
		default:
			s.log.Warn("ingress: max connections reached, rejecting")
			_ = conn.Close()
			continue
		}

		go func(c net.Conn) {
			defer func() { <-s.sem }()
			defer c.Close()
			s.handleConn(ctx, c)
		}(conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	buf := make([]byte, maxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		s.log.Warn("ingress: read error", zap.Error(err))
		return
	}

	var req Request
	if err := json.Unmarshal(buf[:n], &req); err != nil {
		s.writeResponse(conn, Response{OK: false, Error: "invalid JSON: " + err.Error()})
		return
	}

	resp := s.dispatch(ctx, req)
	s.writeResponse(conn, resp)
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Cmd {
	case "process":
		return s.cmdProcess(ctx, req)
	case "ledger":
		return s.cmdLedger(req)
	case "curve":
		return s.cmdCurve(req)
	default:
		return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Cmd)}
	}
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(items))
	for _, i := range items {
		out[i] = struct{}{}
	}
	return out
}

func (s *Server) cmdProcess(ctx context.Context, req Request) Response {
	if req.TraceID == "" {
		return Response{OK: false, Error: "trace_id required for process"}
	}
	if req.Objective == "" {
		return Response{OK: false, Error: "objective required for process"}
	}

	spawn := types.SpawnRequest{
		TraceID: req.TraceID,
		Identity: types.Identity{
			Role:           req.Role,
			ToolsAllowed:   toSet(req.ToolsAllowed),
			ToolsForbidden: toSet(req.ToolsForbidden),
			QualityBar: types.QualityBar{
				GroundingMin:  req.GroundingMin,
				ConfidenceMin: req.ConfidenceMin,
			},
			RequiredOutputs: req.RequiredOutputs,
		},
		Objective: req.Objective,
	}
	input := types.RawInput{Text: req.Text}

	result := s.proc.Process(ctx, spawn, input)
	s.log.Info("ingress: trace processed",
		zap.String("trace_id", req.TraceID),
		zap.String("final_phase", string(result.FinalPhase)),
		zap.Int("cycles", result.TotalCycles),
	)
	return Response{OK: true, Result: &result}
}

func (s *Server) cmdLedger(req Request) Response {
	if s.store == nil {
		return Response{OK: false, Error: "no storage configured"}
	}
	if req.TraceID == "" {
		return Response{OK: false, Error: "trace_id required for ledger"}
	}
	all, err := s.store.ReadLedger()
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	var filtered []storage.LedgerEntry
	for _, e := range all {
		if e.TraceID == req.TraceID {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Timestamp.Before(filtered[j].Timestamp) })
	return Response{OK: true, Ledger: filtered}
}

func (s *Server) cmdCurve(req Request) Response {
	if s.store == nil {
		return Response{OK: false, Error: "no storage configured"}
	}
	if req.Domain == "" {
		return Response{OK: false, Error: "domain required for curve"}
	}
	curve, err := s.store.GetCalibrationCurve(req.Domain)
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	if curve == nil {
		return Response{OK: false, Error: fmt.Sprintf("no curve persisted for domain %q", req.Domain)}
	}
	return Response{OK: true, Curve: curve}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{OK: false, Error: "failed to marshal response"})
	}
	data = append(data, '\n')
	_, _ = conn.Write(data)
}
