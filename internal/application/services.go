package application

import (
	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"go.uber.org/zap"
)

// Services is the set the HTTP and RPC adapters dispatch to.
type Services struct {
	Auth     *AuthService
	Topics   *TopicService
	Graph    *GraphService
	Posts    *PostService
	Ledger   *Ledger
	Resolver *Resolver
}

func NewServices(repo domain.GraphRepository, logger *zap.Logger, m *metrics.Collector) *Services {
	ledger := NewLedger(repo, logger, m)
	resolver := NewResolver(repo)
	return &Services{
		Auth:     NewAuthService(repo, logger),
		Topics:   NewTopicService(repo, ledger, logger, m),
		Graph:    NewGraphService(repo, resolver, ledger, logger, m),
		Posts:    NewPostService(repo, ledger, logger, m),
		Ledger:   ledger,
		Resolver: resolver,
	}
}
