package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/application"
	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Application error codes. JSON-RPC reserves -32768..-32000 for protocol
// errors, so domain failures use HTTP-like codes scaled by 100.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602

	codeValidation   = 40000
	codeUnauthorized = 40100
	codeNotFound     = 40400
	codeConflict     = 40900
	codeInternal     = 50000
)

type Server struct {
	services *application.Services
	logger   *zap.Logger
	listener net.Listener
	path     string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tokenParams struct {
	Token string `json:"token"`
}

type idParams struct {
	Token string `json:"token"`
	ID    uint   `json:"id"`
}

type listParams struct {
	Token   string `json:"token"`
	TopicID *uint  `json:"topic_id"`
	Query   string `json:"q"`
	Limit   int    `json:"limit"`
}

// Start listens on a unix socket readable only by the owner and serves
// newline-delimited JSON-RPC 2.0 requests until Close.
func Start(path string, services *application.Services, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		services: services,
		logger:   logger.Named("rpc"),
		listener: ln,
		path:     path,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) Path() string { return s.path }

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting, cancels in-flight requests and waits for open
// connections to finish.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.cancel()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || s.ctx.Err() != nil {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}})
			return
		}

		resp := s.handle(s.ctx, req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, req request) response {
	start := time.Now()
	correlationID := uuid.NewString()
	resp := s.dispatch(ctx, req)

	fields := []zap.Field{
		zap.String("correlation_id", correlationID),
		zap.String("method", req.Method),
		zap.Duration("elapsed", time.Since(start)),
	}
	if resp.Error != nil {
		fields = append(fields, zap.Int("code", resp.Error.Code), zap.String("error", resp.Error.Message))
		if resp.Error.Code == codeInternal {
			s.logger.Error("rpc call failed", fields...)
			return resp
		}
	}
	s.logger.Info("rpc call", fields...)
	return resp
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return errorResponse(req.ID, codeInvalidRequest, "invalid request")
	}

	switch req.Method {
	case "auth.register":
		var p struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		u, err := s.services.Auth.Register(ctx, p.Email, p.Password)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"id": u.ID, "email": u.Email})
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "auth.whoami":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		return result(req.ID, map[string]any{"id": identity.User.ID, "email": identity.User.Email})
	case "auth.logout":
		var p tokenParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.services.Auth.Logout(ctx, p.Token); err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"ok": true})
	case "auth.anonymize":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		u, err := s.services.Auth.Anonymize(ctx, identity)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"id": u.ID, "email": u.Email})

	case "topics.search":
		var p listParams
		if !decodeOptionalParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Topics.Search(ctx, p.Query, p.Limit)
		return reply(req.ID, out, err)
	case "topics.get":
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Topics.GetTopic(ctx, p.ID)
		return reply(req.ID, out, err)
	case "topics.create":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Name string `json:"name"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Topics.CreateTopic(ctx, identity, p.Name)
		return reply(req.ID, out, err)
	case "topics.delete":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.services.Topics.DeleteTopic(ctx, identity, p.ID); err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"ok": true})

	case "nodes.list":
		var p listParams
		if !decodeOptionalParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.ListNodes(ctx, p.TopicID, p.Limit)
		return reply(req.ID, out, err)
	case "nodes.get":
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.GetNode(ctx, p.ID)
		return reply(req.ID, out, err)
	case "nodes.create":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			application.CreateNodeInput
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.CreateNode(ctx, identity, p.CreateNodeInput)
		return reply(req.ID, out, err)
	case "nodes.update":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			ID uint `json:"id"`
			application.UpdateNodeInput
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.UpdateNode(ctx, identity, p.ID, p.UpdateNodeInput)
		return reply(req.ID, out, err)
	case "nodes.delete":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.DeleteNode(ctx, identity, p.ID)
		return reply(req.ID, out, err)
	case "nodes.positions":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p application.UpdatePositionsInput
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.services.Graph.UpdatePositions(ctx, identity, p.Positions); err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"updated": len(p.Positions)})

	case "connections.list":
		var p listParams
		if !decodeOptionalParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.ListConnections(ctx, p.TopicID, p.Limit)
		return reply(req.ID, out, err)
	case "connections.get":
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.GetConnection(ctx, p.ID)
		return reply(req.ID, out, err)
	case "connections.create":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			application.CreateConnectionInput
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.CreateConnection(ctx, identity, p.CreateConnectionInput)
		return reply(req.ID, out, err)
	case "connections.update":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			ID uint `json:"id"`
			application.UpdateConnectionInput
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Graph.UpdateConnection(ctx, identity, p.ID, p.UpdateConnectionInput)
		return reply(req.ID, out, err)
	case "connections.delete":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.services.Graph.DeleteConnection(ctx, identity, p.ID); err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"ok": true})

	case "posts.list":
		var p listParams
		if !decodeOptionalParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Posts.ListPosts(ctx, p.TopicID, p.Limit)
		return reply(req.ID, out, err)
	case "posts.get":
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Posts.GetPost(ctx, p.ID)
		return reply(req.ID, out, err)
	case "posts.create":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			application.CreatePostInput
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Posts.CreatePost(ctx, identity, p.CreatePostInput)
		return reply(req.ID, out, err)
	case "posts.delete":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p idParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.services.Posts.DeletePost(ctx, identity, p.ID); err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"ok": true})

	case "interactions.list":
		var p listParams
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if p.TopicID != nil {
			out, err := s.services.Ledger.ListForTopic(ctx, *p.TopicID)
			return reply(req.ID, out, err)
		}
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		out, err := s.services.Ledger.ListForUser(ctx, identity)
		return reply(req.ID, out, err)

	case "references.get":
		var p struct {
			ExternalID string `json:"external_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.services.Resolver.Get(ctx, p.ExternalID)
		return reply(req.ID, out, err)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "method not found")
	}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		TokenName  string `json:"token_name"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	var ttl *time.Duration
	if p.TTLSeconds > 0 {
		d := time.Duration(p.TTLSeconds) * time.Second
		ttl = &d
	}
	u, token, err := s.services.Auth.Login(ctx, p.Email, p.Password, p.TokenName, ttl)
	if err != nil {
		return appError(req.ID, err)
	}
	return result(req.ID, map[string]any{"user_id": u.ID, "email": u.Email, "token": token})
}

func (s *Server) authz(ctx context.Context, req request) (domain.Identity, response, bool) {
	var p tokenParams
	if !decodeParams(req.Params, &p) {
		return domain.Identity{}, invalidParams(req.ID), false
	}
	identity, err := s.services.Auth.Authenticate(ctx, p.Token)
	if err != nil {
		return domain.Identity{}, appError(req.ID, err), false
	}
	return identity, response{}, true
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// decodeOptionalParams accepts a missing params member for read calls.
func decodeOptionalParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

func reply(id any, v any, err error) response {
	if err != nil {
		return appError(id, err)
	}
	return result(id, v)
}

func result(id any, v any) response {
	return response{JSONRPC: "2.0", Result: v, ID: id}
}

func errorResponse(id any, code int, message string) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message}, ID: id}
}

func invalidParams(id any) response {
	return errorResponse(id, codeInvalidParams, "invalid params")
}

func codeFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return codeValidation
	case domain.KindNotFound:
		return codeNotFound
	case domain.KindReference, domain.KindConcurrencyConflict:
		return codeConflict
	case domain.KindAuthorization:
		return codeUnauthorized
	}
	return codeInternal
}

func appError(id any, err error) response {
	code := codeFor(err)
	if code == codeInternal {
		return errorResponse(id, code, "internal error")
	}
	return errorResponse(id, code, err.Error())
}
