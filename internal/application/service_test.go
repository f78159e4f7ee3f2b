package application

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingStore counts ledger calls and can fail the next ones on demand.
type recordingStore struct {
	domain.InteractionRepository

	mu       sync.Mutex
	calls    int
	failWith []error
}

func (s *recordingStore) RecordInteraction(ctx context.Context, userID, topicID uint, kind domain.ActionKind) (domain.InteractionRecord, bool, error) {
	s.mu.Lock()
	s.calls++
	var err error
	if len(s.failWith) > 0 {
		err, s.failWith = s.failWith[0], s.failWith[1:]
	}
	s.mu.Unlock()

	if err != nil {
		return domain.InteractionRecord{}, false, err
	}
	return s.InteractionRepository.RecordInteraction(ctx, userID, topicID, kind)
}

func (s *recordingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *recordingStore) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = append(s.failWith, errs...)
}

type testEnv struct {
	repo    *sqlite.GraphRepository
	store   *recordingStore
	metrics *metrics.Collector
	auth    *AuthService
	topics  *TopicService
	graph   *GraphService
	posts   *PostService
	ledger  *Ledger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "app_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := sqlite.NewGraphRepository(db)
	logger := zaptest.NewLogger(t)
	m := metrics.NewCollector("topicgraph")
	store := &recordingStore{InteractionRepository: repo}
	ledger := NewLedger(store, logger, m)

	return &testEnv{
		repo:    repo,
		store:   store,
		metrics: m,
		auth:    NewAuthService(repo, logger),
		topics:  NewTopicService(repo, ledger, logger, m),
		graph:   NewGraphService(repo, NewResolver(repo), ledger, logger, m),
		posts:   NewPostService(repo, ledger, logger, m),
		ledger:  ledger,
	}
}

func (e *testEnv) user(t *testing.T, email string) domain.Identity {
	t.Helper()
	u, err := e.auth.Register(context.Background(), email, "correct horse battery")
	require.NoError(t, err)
	return domain.Identity{User: u}
}

func (e *testEnv) counter(t *testing.T, topicID uint) int64 {
	t.Helper()
	topic, err := e.topics.GetTopic(context.Background(), topicID)
	require.NoError(t, err)
	return topic.InteractionCount
}

// countedFlags recomputes the counter from the interaction records.
func (e *testEnv) countedFlags(t *testing.T, topicID uint) int64 {
	t.Helper()
	records, err := e.ledger.ListForTopic(context.Background(), topicID)
	require.NoError(t, err)
	var n int64
	for _, r := range records {
		for _, kind := range []domain.ActionKind{domain.ActionCreatedTopic, domain.ActionPosted, domain.ActionAddedNode} {
			if kind.Counted() && r.Has(kind) {
				n++
			}
		}
	}
	return n
}

func TestGraphsScenarioCounter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	b := env.user(t, "b@example.com")

	created, err := env.topics.CreateTopic(ctx, a, "Graphs")
	require.NoError(t, err)
	require.Empty(t, created.Warning)
	topicID := created.Topic.ID
	assert.EqualValues(t, 0, env.counter(t, topicID))

	x, err := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topicID, ManualName: "X"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.counter(t, topicID))

	y, err := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topicID, ManualName: "Y"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.counter(t, topicID))

	_, err = env.graph.CreateConnection(ctx, a, CreateConnectionInput{
		TopicID:      topicID,
		FirstNodeID:  x.Node.ID,
		SecondNodeID: y.Node.ID,
		Direction:    domain.DirectionFirstToSecond,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.counter(t, topicID))

	_, err = env.posts.CreatePost(ctx, b, CreatePostInput{TopicID: topicID, Content: "nice graph"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, env.counter(t, topicID))

	assert.Equal(t, env.countedFlags(t, topicID), env.counter(t, topicID))

	records, err := env.ledger.ListForUser(ctx, a)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].CreatedTopic)
	assert.True(t, records[0].AddedNode)
	assert.False(t, records[0].Posted)
	assert.Equal(t, "Graphs", records[0].TopicName)
}

func TestCreateNodeWithoutTopicFailsBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")

	_, err := env.graph.CreateNode(ctx, a, CreateNodeInput{ManualName: "orphan"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "topic_id is required")
	assert.Zero(t, env.store.Calls())

	nodes, err := env.graph.ListNodes(ctx, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestCreateNodeInUnknownTopicIsReferenceError(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")

	_, err := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: 404})
	assert.True(t, errors.Is(err, domain.ErrReference), "got %v", err)
	assert.Zero(t, env.store.Calls())
}

func TestUpdateNodeUnknownIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	name := "renamed"

	_, err := env.graph.UpdateNode(context.Background(), a, 9999, UpdateNodeInput{ManualName: &name})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Zero(t, env.store.Calls())
}

func TestMutationsRequireIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	var nobody domain.Identity

	_, err := env.topics.CreateTopic(ctx, nobody, "Graphs")
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	_, err = env.graph.CreateNode(ctx, nobody, CreateNodeInput{TopicID: 1})
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	err = env.graph.UpdatePositions(ctx, nobody, []domain.NodePosition{{ID: 1}})
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	_, err = env.posts.CreatePost(ctx, nobody, CreatePostInput{TopicID: 1, Content: "hi"})
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	_, err = env.ledger.RecordAction(ctx, 0, 1, domain.ActionPosted)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
}

func TestUpdateNodeCountsAsAddedNode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	b := env.user(t, "b@example.com")
	topic, err := env.topics.CreateTopic(ctx, a, "Graphs")
	require.NoError(t, err)
	node, err := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topic.Topic.ID, ReferenceID: "Q42", ReferenceLabel: "Douglas Adams"})
	require.NoError(t, err)
	assert.Equal(t, "Douglas Adams", node.Node.DisplayName())

	unlink := ""
	updated, err := env.graph.UpdateNode(ctx, b, node.Node.ID, UpdateNodeInput{ReferenceID: &unlink})
	require.NoError(t, err)
	assert.Nil(t, updated.Node.ReferenceID)
	assert.Equal(t, "Node "+itoa(node.Node.ID), updated.Node.DisplayName())
	assert.EqualValues(t, 2, env.counter(t, topic.Topic.ID))

	relink := "Q42"
	updated, err = env.graph.UpdateNode(ctx, b, node.Node.ID, UpdateNodeInput{ReferenceID: &relink})
	require.NoError(t, err)
	require.NotNil(t, updated.Node.Reference)
	assert.Equal(t, "Douglas Adams", updated.Node.Reference.Label)
	assert.EqualValues(t, 2, env.counter(t, topic.Topic.ID))
}

func TestDeleteNodeRecordsBeforeDeleting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	b := env.user(t, "b@example.com")
	topic, _ := env.topics.CreateTopic(ctx, a, "Graphs")
	x, _ := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topic.Topic.ID})
	y, _ := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topic.Topic.ID})
	conn, err := env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: topic.Topic.ID, FirstNodeID: x.Node.ID, SecondNodeID: y.Node.ID})
	require.NoError(t, err)

	res, err := env.graph.DeleteNode(ctx, b, x.Node.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.EqualValues(t, 2, env.counter(t, topic.Topic.ID))

	_, err = env.graph.GetConnection(ctx, conn.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = env.graph.DeleteNode(ctx, b, x.Node.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLedgerFailureIsAWarning(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	topic, err := env.topics.CreateTopic(ctx, a, "Graphs")
	require.NoError(t, err)

	env.store.FailNext(errors.New("disk on fire"))
	res, err := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topic.Topic.ID, ManualName: "X"})
	require.NoError(t, err)
	assert.Contains(t, res.Warning, "disk on fire")

	_, err = env.graph.GetNode(ctx, res.Node.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, env.counter(t, topic.Topic.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerFailures.WithLabelValues(string(domain.ActionAddedNode))))

	env.store.FailNext(errors.New("still on fire"))
	post, err := env.posts.CreatePost(ctx, a, CreatePostInput{TopicID: topic.Topic.ID, Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, post.Warning)
	_, err = env.posts.GetPost(ctx, post.Post.ID)
	assert.NoError(t, err)
}

func TestLedgerRetriesConflictOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	topic, _ := env.topics.CreateTopic(ctx, a, "Graphs")
	calls := env.store.Calls()

	env.store.FailNext(domain.NewConcurrencyConflict("busy", nil))
	res, err := env.ledger.RecordAction(ctx, a.User.ID, topic.Topic.ID, domain.ActionPosted)
	require.NoError(t, err)
	assert.True(t, res.Incremented)
	assert.Equal(t, calls+2, env.store.Calls())

	env.store.FailNext(domain.NewConcurrencyConflict("busy", nil), domain.NewConcurrencyConflict("busy", nil))
	_, err = env.ledger.RecordAction(ctx, a.User.ID, topic.Topic.ID, domain.ActionAddedNode)
	assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict))
	assert.Equal(t, calls+4, env.store.Calls())
	assert.EqualValues(t, 1, env.counter(t, topic.Topic.ID))
}

func TestLedgerRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.RecordAction(context.Background(), 1, 1, domain.ActionKind("EDITED_NODE"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Zero(t, env.store.Calls())
}

func TestConcurrentFirstNodesIncrementOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	topic, err := env.topics.CreateTopic(ctx, a, "Graphs")
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	warnings := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topic.Topic.ID})
			errs[i], warnings[i] = err, res.Warning
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Empty(t, warnings[i])
	}
	assert.EqualValues(t, 1, env.counter(t, topic.Topic.ID))
	assert.Equal(t, env.countedFlags(t, topic.Topic.ID), env.counter(t, topic.Topic.ID))
}

func TestUpdatePositions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	topic, _ := env.topics.CreateTopic(ctx, a, "Graphs")
	x, _ := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: topic.Topic.ID})
	calls := env.store.Calls()

	err := env.graph.UpdatePositions(ctx, a, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	err = env.graph.UpdatePositions(ctx, a, []domain.NodePosition{{ID: x.Node.ID, X: 5, Y: 6}, {ID: 777, X: 1, Y: 1}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	got, _ := env.graph.GetNode(ctx, x.Node.ID)
	assert.Zero(t, got.X)

	require.NoError(t, env.graph.UpdatePositions(ctx, a, []domain.NodePosition{{ID: x.Node.ID, X: 5, Y: 6}}))
	got, _ = env.graph.GetNode(ctx, x.Node.ID)
	assert.Equal(t, 5.0, got.X)
	assert.Equal(t, 6.0, got.Y)
	assert.Equal(t, calls, env.store.Calls())
}

func TestConnectionEndpointsMustShareTopic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	graphs, _ := env.topics.CreateTopic(ctx, a, "Graphs")
	other, _ := env.topics.CreateTopic(ctx, a, "Other")
	x, _ := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: graphs.Topic.ID})
	y, _ := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: graphs.Topic.ID})
	z, _ := env.graph.CreateNode(ctx, a, CreateNodeInput{TopicID: other.Topic.ID})

	_, err := env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: graphs.Topic.ID, FirstNodeID: x.Node.ID, SecondNodeID: z.Node.ID})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: graphs.Topic.ID, FirstNodeID: x.Node.ID})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: graphs.Topic.ID, FirstNodeID: x.Node.ID, SecondNodeID: 5555})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: graphs.Topic.ID, FirstNodeID: x.Node.ID, SecondNodeID: y.Node.ID, Direction: "SIDEWAYS"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	conn, err := env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: graphs.Topic.ID, FirstNodeID: x.Node.ID, SecondNodeID: y.Node.ID, Relation: "cites"})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionUndirected, conn.Direction)

	dup, err := env.graph.CreateConnection(ctx, a, CreateConnectionInput{TopicID: graphs.Topic.ID, FirstNodeID: x.Node.ID, SecondNodeID: y.Node.ID, Relation: "cites"})
	require.NoError(t, err)
	assert.NotEqual(t, conn.ID, dup.ID)

	_, err = env.graph.UpdateConnection(ctx, a, conn.ID, UpdateConnectionInput{SecondNodeID: &z.Node.ID})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	dir := domain.DirectionSecondToFirst
	updated, err := env.graph.UpdateConnection(ctx, a, conn.ID, UpdateConnectionInput{Direction: &dir})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSecondToFirst, updated.Direction)

	_, err = env.graph.UpdateConnection(ctx, a, 9999, UpdateConnectionInput{Direction: &dir})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(env.graph.DeleteConnection(ctx, a, 9999), domain.ErrNotFound))
	require.NoError(t, env.graph.DeleteConnection(ctx, a, conn.ID))

	assert.EqualValues(t, 1, env.counter(t, graphs.Topic.ID))
}

func TestTopicValidationAndSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")

	_, err := env.topics.CreateTopic(ctx, a, "   ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = env.topics.CreateTopic(ctx, a, strings.Repeat("x", 201))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.topics.CreateTopic(ctx, a, "Graph Theory")
	require.NoError(t, err)
	_, err = env.topics.CreateTopic(ctx, a, "Cooking")
	require.NoError(t, err)

	found, err := env.topics.Search(ctx, "GRAPH", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Graph Theory", found[0].Name)

	assert.True(t, errors.Is(env.topics.DeleteTopic(ctx, a, 4242), domain.ErrNotFound))
	require.NoError(t, env.topics.DeleteTopic(ctx, a, found[0].ID))
	all, err := env.topics.Search(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPostRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "a@example.com")
	b := env.user(t, "b@example.com")
	topic, _ := env.topics.CreateTopic(ctx, a, "Graphs")

	_, err := env.posts.CreatePost(ctx, a, CreatePostInput{TopicID: topic.Topic.ID, Content: strings.Repeat("y", 501)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = env.posts.CreatePost(ctx, a, CreatePostInput{TopicID: topic.Topic.ID, Content: "  "})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = env.posts.CreatePost(ctx, a, CreatePostInput{TopicID: 31337, Content: "hello"})
	assert.True(t, errors.Is(err, domain.ErrReference))

	first, err := env.posts.CreatePost(ctx, a, CreatePostInput{TopicID: topic.Topic.ID, Content: "first"})
	require.NoError(t, err)
	_, err = env.posts.CreatePost(ctx, a, CreatePostInput{TopicID: topic.Topic.ID, Content: "second"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.counter(t, topic.Topic.ID))

	list, err := env.posts.ListPosts(ctx, &topic.Topic.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)

	assert.True(t, errors.Is(env.posts.DeletePost(ctx, b, first.Post.ID), domain.ErrAuthorization))
	require.NoError(t, env.posts.DeletePost(ctx, a, first.Post.ID))
	assert.EqualValues(t, 1, env.counter(t, topic.Topic.ID))
}

func TestAuthLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, "not-an-email", "long enough password")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = env.auth.Register(ctx, "a@example.com", "short")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	u, err := env.auth.Register(ctx, " A@Example.com ", "long enough password")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	_, err = env.auth.Register(ctx, "a@example.com", "long enough password")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, _, err = env.auth.Login(ctx, "a@example.com", "wrong password", "cli", nil)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	_, token, err := env.auth.Login(ctx, "a@example.com", "long enough password", "cli", nil)
	require.NoError(t, err)
	identity, err := env.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, identity.User.ID)

	topic, err := env.topics.CreateTopic(ctx, identity, "Graphs")
	require.NoError(t, err)

	anon, err := env.auth.Anonymize(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "deleted-"+itoa(u.ID)+"@invalid", anon.Email)

	_, err = env.auth.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	_, _, err = env.auth.Login(ctx, "a@example.com", "long enough password", "cli", nil)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	kept, err := env.topics.GetTopic(ctx, topic.Topic.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, kept.CreatorID)
}

func TestBootstrapOnlyOnEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.Bootstrap(ctx, "admin@example.com", "long enough password"))
	require.NoError(t, env.auth.Bootstrap(ctx, "other@example.com", "long enough password"))

	_, err := env.repo.GetUserByEmail(ctx, "other@example.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func TestDefaultTokenTTLExpiresTokens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_ = env.user(t, "a@example.com")

	expired := -time.Minute
	env.auth.SetDefaultTokenTTL(&expired)
	_, token, err := env.auth.Login(ctx, "a@example.com", "correct horse battery", "", nil)
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	fresh := time.Hour
	_, token, err = env.auth.Login(ctx, "a@example.com", "correct horse battery", "", &fresh)
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, token)
	assert.NoError(t, err)
}
