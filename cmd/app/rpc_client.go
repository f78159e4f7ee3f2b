package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

type rpcClient struct {
	socket string
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcRespError   `json:"error"`
	ID      any             `json:"id"`
}

type rpcRespError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcRespError) Error() string {
	return fmt.Sprintf("rpc error (%d): %s", e.Code, e.Message)
}

func newRPCClient(socket string) *rpcClient {
	return &rpcClient{socket: socket}
}

func (c *rpcClient) call(ctx context.Context, method string, params any, out any) error {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return err
	}

	var resp rpcResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}
