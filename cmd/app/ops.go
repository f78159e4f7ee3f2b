package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atvirokodosprendimai/topicgraph/internal/application"
	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
)

// call describes one operation on both transports.
type call struct {
	rpcMethod  string
	rpcParams  map[string]any
	httpMethod string
	httpPath   string
	httpBody   any
}

func (cfg cliConfig) do(ctx context.Context, c call, out any) error {
	switch cfg.Transport {
	case "uds":
		params := c.rpcParams
		if params == nil {
			params = map[string]any{}
		}
		if cfg.Token != "" {
			params["token"] = cfg.Token
		}
		return newRPCClient(cfg.Socket).call(ctx, c.rpcMethod, params, out)
	case "http":
		return newAPIClient(cfg.Server, cfg.Token).request(ctx, c.httpMethod, c.httpPath, c.httpBody, out)
	}
	return fmt.Errorf("unknown transport %q, want uds or http", cfg.Transport)
}

// toParams flattens a request struct into RPC params using its JSON tags.
func toParams(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func listQuery(path string, topicID *uint, q string, limit int) string {
	values := url.Values{}
	if topicID != nil {
		values.Set("topic_id", uintToString(*topicID))
	}
	if q != "" {
		values.Set("q", q)
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

func doRegister(ctx context.Context, cfg cliConfig, email, password string, out any) error {
	body := map[string]any{"email": email, "password": password}
	return cfg.do(ctx, call{
		rpcMethod: "auth.register", rpcParams: body,
		httpMethod: http.MethodPost, httpPath: "/api/auth/register", httpBody: body,
	}, out)
}

func doLogin(ctx context.Context, cfg cliConfig, email, password, tokenName string, ttlSeconds int64, out any) error {
	cfg.Token = ""
	body := map[string]any{
		"email":       email,
		"password":    password,
		"token_name":  tokenName,
		"ttl_seconds": ttlSeconds,
	}
	return cfg.do(ctx, call{
		rpcMethod: "auth.login", rpcParams: body,
		httpMethod: http.MethodPost, httpPath: "/api/auth/login", httpBody: body,
	}, out)
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	return cfg.do(ctx, call{rpcMethod: "auth.whoami", httpMethod: http.MethodGet, httpPath: "/api/auth/whoami"}, out)
}

func doLogout(ctx context.Context, cfg cliConfig) error {
	return cfg.do(ctx, call{rpcMethod: "auth.logout", httpMethod: http.MethodPost, httpPath: "/api/auth/logout"}, nil)
}

func doAnonymize(ctx context.Context, cfg cliConfig, out any) error {
	return cfg.do(ctx, call{rpcMethod: "auth.anonymize", httpMethod: http.MethodDelete, httpPath: "/api/auth/me"}, out)
}

func doTopicsSearch(ctx context.Context, cfg cliConfig, q string, limit int, out *[]domain.Topic) error {
	return cfg.do(ctx, call{
		rpcMethod: "topics.search", rpcParams: map[string]any{"q": q, "limit": limit},
		httpMethod: http.MethodGet, httpPath: listQuery("/api/topics", nil, q, limit),
	}, out)
}

func doTopicGet(ctx context.Context, cfg cliConfig, id uint, out *domain.Topic) error {
	return cfg.do(ctx, call{
		rpcMethod: "topics.get", rpcParams: map[string]any{"id": id},
		httpMethod: http.MethodGet, httpPath: "/api/topics/" + uintToString(id),
	}, out)
}

func doTopicCreate(ctx context.Context, cfg cliConfig, name string, out *application.TopicResult) error {
	body := map[string]any{"name": name}
	return cfg.do(ctx, call{
		rpcMethod: "topics.create", rpcParams: body,
		httpMethod: http.MethodPost, httpPath: "/api/topics", httpBody: body,
	}, out)
}

func doTopicDelete(ctx context.Context, cfg cliConfig, id uint) error {
	return cfg.do(ctx, call{
		rpcMethod: "topics.delete", rpcParams: map[string]any{"id": id},
		httpMethod: http.MethodDelete, httpPath: "/api/topics/" + uintToString(id),
	}, nil)
}

func doNodesList(ctx context.Context, cfg cliConfig, topicID *uint, limit int, out *[]domain.Node) error {
	return cfg.do(ctx, call{
		rpcMethod: "nodes.list", rpcParams: map[string]any{"topic_id": topicID, "limit": limit},
		httpMethod: http.MethodGet, httpPath: listQuery("/api/nodes", topicID, "", limit),
	}, out)
}

func doNodeGet(ctx context.Context, cfg cliConfig, id uint, out *domain.Node) error {
	return cfg.do(ctx, call{
		rpcMethod: "nodes.get", rpcParams: map[string]any{"id": id},
		httpMethod: http.MethodGet, httpPath: "/api/nodes/" + uintToString(id),
	}, out)
}

func doNodeCreate(ctx context.Context, cfg cliConfig, in application.CreateNodeInput, out *application.NodeResult) error {
	params, err := toParams(in)
	if err != nil {
		return err
	}
	return cfg.do(ctx, call{
		rpcMethod: "nodes.create", rpcParams: params,
		httpMethod: http.MethodPost, httpPath: "/api/nodes", httpBody: in,
	}, out)
}

func doNodeUpdate(ctx context.Context, cfg cliConfig, id uint, in application.UpdateNodeInput, out *application.NodeResult) error {
	params, err := toParams(in)
	if err != nil {
		return err
	}
	params["id"] = id
	return cfg.do(ctx, call{
		rpcMethod: "nodes.update", rpcParams: params,
		httpMethod: http.MethodPatch, httpPath: "/api/nodes/" + uintToString(id), httpBody: in,
	}, out)
}

func doNodeDelete(ctx context.Context, cfg cliConfig, id uint, out *application.DeleteResult) error {
	return cfg.do(ctx, call{
		rpcMethod: "nodes.delete", rpcParams: map[string]any{"id": id},
		httpMethod: http.MethodDelete, httpPath: "/api/nodes/" + uintToString(id),
	}, out)
}

func doNodesPositions(ctx context.Context, cfg cliConfig, positions []domain.NodePosition, out any) error {
	body := map[string]any{"positions": positions}
	return cfg.do(ctx, call{
		rpcMethod: "nodes.positions", rpcParams: body,
		httpMethod: http.MethodPatch, httpPath: "/api/nodes/positions", httpBody: body,
	}, out)
}

func doConnectionsList(ctx context.Context, cfg cliConfig, topicID *uint, limit int, out *[]domain.Connection) error {
	return cfg.do(ctx, call{
		rpcMethod: "connections.list", rpcParams: map[string]any{"topic_id": topicID, "limit": limit},
		httpMethod: http.MethodGet, httpPath: listQuery("/api/connections", topicID, "", limit),
	}, out)
}

func doConnectionCreate(ctx context.Context, cfg cliConfig, in application.CreateConnectionInput, out *domain.Connection) error {
	params, err := toParams(in)
	if err != nil {
		return err
	}
	return cfg.do(ctx, call{
		rpcMethod: "connections.create", rpcParams: params,
		httpMethod: http.MethodPost, httpPath: "/api/connections", httpBody: in,
	}, out)
}

func doConnectionUpdate(ctx context.Context, cfg cliConfig, id uint, in application.UpdateConnectionInput, out *domain.Connection) error {
	params, err := toParams(in)
	if err != nil {
		return err
	}
	params["id"] = id
	return cfg.do(ctx, call{
		rpcMethod: "connections.update", rpcParams: params,
		httpMethod: http.MethodPatch, httpPath: "/api/connections/" + uintToString(id), httpBody: in,
	}, out)
}

func doConnectionDelete(ctx context.Context, cfg cliConfig, id uint) error {
	return cfg.do(ctx, call{
		rpcMethod: "connections.delete", rpcParams: map[string]any{"id": id},
		httpMethod: http.MethodDelete, httpPath: "/api/connections/" + uintToString(id),
	}, nil)
}

func doPostsList(ctx context.Context, cfg cliConfig, topicID *uint, limit int, out *[]domain.Post) error {
	return cfg.do(ctx, call{
		rpcMethod: "posts.list", rpcParams: map[string]any{"topic_id": topicID, "limit": limit},
		httpMethod: http.MethodGet, httpPath: listQuery("/api/posts", topicID, "", limit),
	}, out)
}

func doPostCreate(ctx context.Context, cfg cliConfig, in application.CreatePostInput, out *application.PostResult) error {
	params, err := toParams(in)
	if err != nil {
		return err
	}
	return cfg.do(ctx, call{
		rpcMethod: "posts.create", rpcParams: params,
		httpMethod: http.MethodPost, httpPath: "/api/posts", httpBody: in,
	}, out)
}

func doPostDelete(ctx context.Context, cfg cliConfig, id uint) error {
	return cfg.do(ctx, call{
		rpcMethod: "posts.delete", rpcParams: map[string]any{"id": id},
		httpMethod: http.MethodDelete, httpPath: "/api/posts/" + uintToString(id),
	}, nil)
}

// doInteractionsList lists the caller's records, or a topic's records when
// topicID is set.
func doInteractionsList(ctx context.Context, cfg cliConfig, topicID *uint, out *[]domain.InteractionRecord) error {
	path := "/api/interactions"
	if topicID != nil {
		path = "/api/topics/" + uintToString(*topicID) + "/interactions"
	}
	return cfg.do(ctx, call{
		rpcMethod: "interactions.list", rpcParams: map[string]any{"topic_id": topicID},
		httpMethod: http.MethodGet, httpPath: path,
	}, out)
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
