package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/application"
	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

// withConfig loads the saved CLI config before running action.
func withConfig(action func(ctx context.Context, c *cli.Command, cfg cliConfig) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return action(ctx, c, cfg)
	}
}

func optionalUint(c *cli.Command, name string) *uint {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Uint(name)
	return &v
}

func optionalString(c *cli.Command, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func optionalFloat(c *cli.Command, name string) *float64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Float(name)
	return &v
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out struct {
						ID    uint   `json:"id"`
						Email string `json:"email"`
					}
					if err := doRegister(ctx, cfg, c.String("email"), c.String("password"), &out); err != nil {
						return err
					}
					fmt.Printf("registered %s (id %d)\n", out.Email, out.ID)
					return nil
				}),
			},
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds", Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Value: defaultServer},
					&cli.StringFlag{Name: "socket", Value: defaultSocket},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "token-name", Value: "cli"},
					&cli.IntFlag{Name: "ttl-seconds", Usage: "token lifetime; 0 uses the server default"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string `json:"token"`
						Email string `json:"email"`
					}
					err := doLogin(ctx, cfg, c.String("email"), c.String("password"), c.String("token-name"), int64(c.Int("ttl-seconds")), &out)
					if err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.Email)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out struct {
						ID    uint   `json:"id"`
						Email string `json:"email"`
					}
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", uintToString(out.ID)}, {"email", out.Email}})
					return nil
				}),
			},
			{
				Name:  "logout",
				Usage: "Revoke and clear the CLI token",
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					_ = doLogout(ctx, cfg)
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				}),
			},
			{
				Name:  "delete-account",
				Usage: "Anonymize the current account; contributions are kept",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "confirm"}},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					if !c.Bool("yes") {
						return fmt.Errorf("refusing to delete account without --yes")
					}
					if err := doAnonymize(ctx, cfg, nil); err != nil {
						return err
					}
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("account anonymized")
					return nil
				}),
			},
		},
	}
}

func topicsCommand() *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "Topic commands",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search topics by name",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q"},
					&cli.IntFlag{Name: "limit", Value: 50},
					jsonFlag(),
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out []domain.Topic
					if err := doTopicsSearch(ctx, cfg, c.String("q"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printTopics(out)
					return nil
				}),
			},
			{
				Name:  "get",
				Usage: "Show one topic",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out domain.Topic
					if err := doTopicGet(ctx, cfg, c.Uint("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printTopic(out)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a topic",
				Flags: []cli.Flag{&cli.StringFlag{Name: "name", Required: true}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out application.TopicResult
					if err := doTopicCreate(ctx, cfg, c.String("name"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWarning(out.Warning)
					printTopic(out.Topic)
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a topic and its graph, posts and interaction records",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					if err := doTopicDelete(ctx, cfg, c.Uint("id")); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				}),
			},
		},
	}
}

func nodesCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "Node commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List nodes",
				Flags: []cli.Flag{&cli.UintFlag{Name: "topic-id"}, &cli.IntFlag{Name: "limit", Value: 200}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out []domain.Node
					if err := doNodesList(ctx, cfg, optionalUint(c, "topic-id"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printNodes(out)
					return nil
				}),
			},
			{
				Name:  "get",
				Usage: "Show one node",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out domain.Node
					if err := doNodeGet(ctx, cfg, c.Uint("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printNode(out)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Add a node to a topic",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "topic-id", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "reference", Usage: "external knowledge-base id, e.g. Q42"},
					&cli.StringFlag{Name: "reference-label"},
					&cli.StringFlag{Name: "reference-description"},
					&cli.StringFlag{Name: "description"},
					&cli.FloatFlag{Name: "x"},
					&cli.FloatFlag{Name: "y"},
					jsonFlag(),
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					in := application.CreateNodeInput{
						TopicID:              c.Uint("topic-id"),
						ManualName:           c.String("name"),
						ReferenceID:          c.String("reference"),
						ReferenceLabel:       c.String("reference-label"),
						ReferenceDescription: c.String("reference-description"),
						Description:          c.String("description"),
						X:                    c.Float("x"),
						Y:                    c.Float("y"),
					}
					var out application.NodeResult
					if err := doNodeCreate(ctx, cfg, in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWarning(out.Warning)
					printNode(out.Node)
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Edit a node; pass --reference \"\" to unlink its reference",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "reference"},
					&cli.StringFlag{Name: "reference-label"},
					&cli.StringFlag{Name: "reference-description"},
					&cli.StringFlag{Name: "description"},
					&cli.FloatFlag{Name: "x"},
					&cli.FloatFlag{Name: "y"},
					jsonFlag(),
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					in := application.UpdateNodeInput{
						ManualName:           optionalString(c, "name"),
						Description:          optionalString(c, "description"),
						ReferenceID:          optionalString(c, "reference"),
						ReferenceLabel:       c.String("reference-label"),
						ReferenceDescription: c.String("reference-description"),
						X:                    optionalFloat(c, "x"),
						Y:                    optionalFloat(c, "y"),
					}
					var out application.NodeResult
					if err := doNodeUpdate(ctx, cfg, c.Uint("id"), in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWarning(out.Warning)
					printNode(out.Node)
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a node and its connections",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out application.DeleteResult
					if err := doNodeDelete(ctx, cfg, c.Uint("id"), &out); err != nil {
						return err
					}
					printWarning(out.Warning)
					fmt.Println("deleted")
					return nil
				}),
			},
			{
				Name:  "move",
				Usage: "Move nodes in one batch",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "pos", Required: true, Usage: "id:x:y, repeatable"},
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					positions, err := parsePositions(c.StringSlice("pos"))
					if err != nil {
						return err
					}
					var out struct {
						Updated int `json:"updated"`
					}
					if err := doNodesPositions(ctx, cfg, positions, &out); err != nil {
						return err
					}
					fmt.Printf("moved %d nodes\n", out.Updated)
					return nil
				}),
			},
		},
	}
}

func parsePositions(values []string) ([]domain.NodePosition, error) {
	out := make([]domain.NodePosition, 0, len(values))
	for _, value := range values {
		parts := strings.Split(strings.TrimSpace(value), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("position %q must be id:x:y", value)
		}
		id, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("position %q: invalid id", value)
		}
		x, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("position %q: invalid x", value)
		}
		y, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("position %q: invalid y", value)
		}
		out = append(out, domain.NodePosition{ID: uint(id), X: x, Y: y})
	}
	return out, nil
}

func connectionsCommand() *cli.Command {
	directionUsage := "UNDIRECTED, FIRST_TO_SECOND or SECOND_TO_FIRST"
	return &cli.Command{
		Name:  "connections",
		Usage: "Connection commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List connections",
				Flags: []cli.Flag{&cli.UintFlag{Name: "topic-id"}, &cli.IntFlag{Name: "limit", Value: 200}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out []domain.Connection
					if err := doConnectionsList(ctx, cfg, optionalUint(c, "topic-id"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printConnections(out)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Connect two nodes of the same topic",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "topic-id", Required: true},
					&cli.UintFlag{Name: "first", Required: true},
					&cli.UintFlag{Name: "second", Required: true},
					&cli.StringFlag{Name: "relation"},
					&cli.StringFlag{Name: "direction", Value: string(domain.DirectionUndirected), Usage: directionUsage},
					jsonFlag(),
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					in := application.CreateConnectionInput{
						TopicID:      c.Uint("topic-id"),
						FirstNodeID:  c.Uint("first"),
						SecondNodeID: c.Uint("second"),
						Relation:     c.String("relation"),
						Direction:    domain.Direction(strings.ToUpper(c.String("direction"))),
					}
					var out domain.Connection
					if err := doConnectionCreate(ctx, cfg, in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printConnections([]domain.Connection{out})
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Edit a connection",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.UintFlag{Name: "first"},
					&cli.UintFlag{Name: "second"},
					&cli.StringFlag{Name: "relation"},
					&cli.StringFlag{Name: "direction", Usage: directionUsage},
					jsonFlag(),
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					in := application.UpdateConnectionInput{
						FirstNodeID:  optionalUint(c, "first"),
						SecondNodeID: optionalUint(c, "second"),
						Relation:     optionalString(c, "relation"),
					}
					if c.IsSet("direction") {
						d := domain.Direction(strings.ToUpper(c.String("direction")))
						in.Direction = &d
					}
					var out domain.Connection
					if err := doConnectionUpdate(ctx, cfg, c.Uint("id"), in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printConnections([]domain.Connection{out})
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a connection",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					if err := doConnectionDelete(ctx, cfg, c.Uint("id")); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				}),
			},
		},
	}
}

func postsCommand() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "Discussion post commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List posts, newest first",
				Flags: []cli.Flag{&cli.UintFlag{Name: "topic-id"}, &cli.IntFlag{Name: "limit", Value: 50}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out []domain.Post
					if err := doPostsList(ctx, cfg, optionalUint(c, "topic-id"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printPosts(out)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Post to a topic",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "topic-id", Required: true},
					&cli.StringFlag{Name: "content", Required: true},
					jsonFlag(),
				},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out application.PostResult
					in := application.CreatePostInput{TopicID: c.Uint("topic-id"), Content: c.String("content")}
					if err := doPostCreate(ctx, cfg, in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWarning(out.Warning)
					printPosts([]domain.Post{out.Post})
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete one of your posts",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					if err := doPostDelete(ctx, cfg, c.Uint("id")); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				}),
			},
		},
	}
}

func interactionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "interactions",
		Usage: "Interaction ledger commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your interaction records, or a topic's with --topic-id",
				Flags: []cli.Flag{&cli.UintFlag{Name: "topic-id"}, jsonFlag()},
				Action: withConfig(func(ctx context.Context, c *cli.Command, cfg cliConfig) error {
					var out []domain.InteractionRecord
					if err := doInteractionsList(ctx, cfg, optionalUint(c, "topic-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printInteractions(out)
					return nil
				}),
			},
		},
	}
}
