package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gainjar/core"
	"gainjar/explorer"
	"gainjar/observability"
	telemetry "gainjar/observability/otel"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	shutdownTimeout = 5 * time.Second
)

// EventQuerier serves historical events. *explorer.Index satisfies it.
type EventQuerier interface {
	Events(ctx context.Context, filter explorer.Filter) ([]core.EventRecord, error)
}

// ServerConfig tunes the RPC server.
type ServerConfig struct {
	RateLimit RateLimit
	Events    EventQuerier
	Logger    *slog.Logger
	// Tracing wraps the handler with otelhttp instrumentation.
	Tracing bool
}

type Server struct {
	node    *core.Node
	events  EventQuerier
	limiter *RateLimiter
	logger  *slog.Logger
	tracer  trace.Tracer
	tracing bool
}

func NewServer(node *core.Node, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		node:    node,
		events:  cfg.Events,
		limiter: NewRateLimiter(cfg.RateLimit, logger),
		logger:  logger.With(slog.String("component", "rpc")),
		tracer:  telemetry.Tracer(),
		tracing: cfg.Tracing,
	}
}

// Handler returns the HTTP routes served by the node.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws/events", s.handleEventsWS)
	r.With(s.limiter.Middleware("rpc")).Post("/", s.handle)

	if !s.tracing {
		return r
	}
	return otelhttp.NewHandler(r, "gainjar-rpc")
}

// Start serves the RPC API on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

type methodHandler func(ctx context.Context, params []json.RawMessage) (interface{}, *RPCError)

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"payroll_submit":        s.handlePayrollSubmit,
		"payroll_isAllowed":     s.handlePayrollIsAllowed,
		"payroll_allowedTokens": s.handlePayrollAllowedTokens,
		"payroll_getEmployee":   s.handlePayrollGetEmployee,
		"payroll_listEmployees": s.handlePayrollListEmployees,
		"payroll_balance":       s.handlePayrollBalance,
		"payroll_vaultStatus":   s.handlePayrollVaultStatus,
		"bank_getBalance":       s.handleBankGetBalance,
		"account_nonce":         s.handleAccountNonce,
		"chain_stateRoot":       s.handleChainStateRoot,
		"events_list":           s.handleEventsList,
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)
	module := moduleOf(req.Method)
	ctx, span := s.tracer.Start(r.Context(), req.Method, trace.WithAttributes(
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.method", req.Method),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	start := time.Now()
	result, rpcErr := handler(ctx, req.Params)
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
	}
	observability.ModuleMetrics().Observe(module, req.Method, code, time.Since(start))

	if rpcErr != nil {
		s.logger.Debug("rpc call failed",
			slog.String("method", req.Method),
			slog.String("request_id", requestID),
			slog.Int("code", rpcErr.Code),
			slog.String("error", rpcErr.Message))
		writeError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func moduleOf(method string) string {
	module, _, found := strings.Cut(method, "_")
	if !found {
		return "unknown"
	}
	return module
}
