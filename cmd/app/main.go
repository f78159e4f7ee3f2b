package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sqliteadapter "github.com/atvirokodosprendimai/topicgraph/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/topicgraph/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/topicgraph/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/topicgraph/internal/application"
	"github.com/atvirokodosprendimai/topicgraph/internal/config"
	"github.com/atvirokodosprendimai/topicgraph/internal/logging"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "topicgraph",
		Usage: "Collaborative topic graph server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			topicsCommand(),
			nodesCommand(),
			connectionsCommand(),
			postsCommand(),
			interactionsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP and JSON-RPC servers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file"},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (overrides config)"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (overrides config)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (overrides config)"},
			&cli.StringFlag{Name: "bootstrap-email", Usage: "first account email when the database has no users"},
			&cli.StringFlag{Name: "bootstrap-password", Usage: "first account password when the database has no users"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if v := c.String("addr"); v != "" {
				cfg.HTTPAddr = v
			}
			if c.IsSet("rpc-socket") {
				cfg.RPCSocket = c.String("rpc-socket")
			}
			if v := c.String("db-path"); v != "" {
				cfg.DBPath = v
			}
			return runServer(ctx, cfg, c.String("bootstrap-email"), c.String("bootstrap-password"))
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, bootstrapEmail, bootstrapPassword string) error {
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	db, err := sqliteadapter.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}
	version, err := sqliteadapter.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath), zap.Int64("schema_version", version))

	repo := sqliteadapter.NewGraphRepository(db)
	collector := metrics.NewCollector("topicgraph")
	services := application.NewServices(repo, logger, collector)
	services.Auth.SetDefaultTokenTTL(cfg.TokenTTLPtr())

	if bootstrapEmail != "" || bootstrapPassword != "" {
		if err := services.Auth.Bootstrap(ctx, bootstrapEmail, bootstrapPassword); err != nil {
			return fmt.Errorf("bootstrap account: %w", err)
		}
	}

	router := httpadapter.NewRouter(services, httpadapter.Options{
		Logger:      logger,
		Metrics:     collector,
		CORSOrigins: cfg.CORSOrigins,
		Ping:        repo.Ping,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	var rpcSrv *rpcadapter.Server
	if cfg.RPCSocket != "" {
		rpcSrv, err = rpcadapter.Start(cfg.RPCSocket, services, logger)
		if err != nil {
			return err
		}
		logger.Info("json-rpc listening", zap.String("socket", cfg.RPCSocket))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTTL)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if rpcSrv != nil {
			err = errors.Join(err, rpcSrv.Close())
		}
		return err
	})
	return g.Wait()
}
