// Package graph assembles the five-stage chat pipeline (understand, search,
// gather_context, recommend, respond) as an Eino compose graph and wraps it
// with the session lifecycle: load state, run the turn, persist state.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/partpilot/server/internal/agent/graph/nodes"
	"github.com/partpilot/server/internal/agent/graph/observers"
	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/metrics"
	"github.com/partpilot/server/internal/render"
	"github.com/partpilot/server/internal/retrieval"
	"github.com/partpilot/server/internal/rules"
	"github.com/partpilot/server/internal/semantic"
	logx "github.com/partpilot/server/pkg/logger"
)

// Runner executes one chat turn end to end.
type Runner interface {
	Chat(ctx context.Context, in model.QueryInput) (*model.ConversationState, error)
}

// Config holds everything needed to compose the full chat graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models and pipeline components.
type Config struct {
	ChatModel model.ChatModelConfig
	Session   model.SessionConfig
	Rules     *rules.Rules

	Catalog  model.CatalogStore
	Semantic model.SemanticIndex
	// Sessions may be nil; the runner then serves every turn stateless.
	Sessions model.SessionStore
}

// GraphConfig holds the constructed components the builder wires into nodes.
type GraphConfig struct {
	Classifier *nodes.Classifier
	Retriever  *retrieval.Retriever
	Gatherer   *semantic.Gatherer
	Ranker     *nodes.Ranker
	Responder  *nodes.Responder
}

// GraphBuilder handles the construction of the chat pipeline graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[*model.ConversationState, *model.ConversationState]
}

type graphRunner struct {
	runnable compose.Runnable[*model.ConversationState, *model.ConversationState]
	sessions model.SessionStore
}

// Chat loads the conversation, runs the pipeline and persists the result.
// A session store failure on load downgrades to a stateless turn; a failure
// on save is logged and the reply still returned.
func (r *graphRunner) Chat(ctx context.Context, in model.QueryInput) (*model.ConversationState, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversation id is empty")
	}
	if in.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	start := time.Now()

	state := r.loadState(ctx, in.ConversationID)
	state.BeginTurn(in.Query)

	out, err := r.runnable.Invoke(ctx, state, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, fmt.Errorf("chat pipeline: %w", err)
	}

	r.saveState(ctx, out)

	metrics.ChatTurns.WithLabelValues(out.Intent.String()).Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	return out, nil
}

func (r *graphRunner) loadState(ctx context.Context, conversationID string) *model.ConversationState {
	if r.sessions == nil {
		return model.NewConversationState(conversationID)
	}
	state, err := r.sessions.Load(ctx, conversationID)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("session load failed, starting stateless turn")
		return model.NewConversationState(conversationID)
	}
	if state == nil {
		return model.NewConversationState(conversationID)
	}
	return state
}

func (r *graphRunner) saveState(ctx context.Context, state *model.ConversationState) {
	if r.sessions == nil {
		return
	}
	if err := r.sessions.Save(ctx, state); err != nil {
		logx.Error().
			Err(err).
			Str("conversation_id", state.ConversationID).
			Msg("session save failed")
	}
}

// BuildChatGraph constructs the chat models and pipeline components, builds
// the graph, and returns a Runner.
func BuildChatGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog store is nil")
	}
	if cfg.Semantic == nil {
		return nil, fmt.Errorf("semantic index is nil")
	}
	r := cfg.Rules
	if r == nil {
		r = rules.Default()
	}

	cms, err := nodes.NewChatModels(ctx, cfg.ChatModel, r.Generation)
	if err != nil {
		return nil, err
	}

	renderer := render.New(r, cfg.Catalog.GetInstallationGuide)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Classifier: nodes.NewClassifier(cms.Classify, r, cfg.Session.ContextTurns),
		Retriever:  retrieval.New(cfg.Catalog, r),
		Gatherer:   semantic.New(cfg.Semantic, r.Retrieval.ContextDocs),
		Ranker:     nodes.NewRanker(cms.Rank, r),
		Responder:  nodes.NewResponder(cms.Reply, renderer, cfg.Catalog.GetCompatibility),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Sessions == nil {
		logx.Warn().Msg("no session store configured, serving stateless turns")
	}

	logx.Debug().Msg("Chat graph built successfully")
	return &graphRunner{runnable: runnable, sessions: cfg.Sessions}, nil
}

// BuildGraph constructs and compiles the pipeline graph from ready
// components.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*model.ConversationState, *model.ConversationState], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Classifier == nil || config.Retriever == nil || config.Gatherer == nil ||
		config.Ranker == nil || config.Responder == nil {
		return nil, fmt.Errorf("graph components are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[*model.ConversationState, *model.ConversationState](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds the five stage nodes, each with a trace pre-handler.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeUnderstand,
		nodes.NewUnderstandNode(b.config.Classifier),
		compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeUnderstand)),
	)

	b.graph.AddLambdaNode(nodes.NodeSearch,
		nodes.NewSearchNode(b.config.Retriever),
		compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeSearch)),
	)

	b.graph.AddLambdaNode(nodes.NodeGatherContext,
		nodes.NewGatherContextNode(b.config.Gatherer),
		compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeGatherContext)),
	)

	b.graph.AddLambdaNode(nodes.NodeRecommend,
		nodes.NewRecommendNode(b.config.Ranker),
		compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeRecommend)),
	)

	b.graph.AddLambdaNode(nodes.NodeRespond,
		nodes.NewRespondNode(b.config.Responder),
		compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeRespond)),
	)
}

// addEdges creates the unconditional flow connections between nodes.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeUnderstand},
		{nodes.NodeGatherContext, nodes.NodeRecommend},
		{nodes.NodeRecommend, nodes.NodeRespond},
		{nodes.NodeRespond, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches.
func (b *GraphBuilder) addBranches() error {
	searchBranch := compose.NewGraphBranch(
		nodes.NewSearchCondition(),
		map[string]bool{
			nodes.NodeSearch:  true,
			nodes.NodeRespond: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeUnderstand, searchBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding search branch")
		return fmt.Errorf("error adding search branch: %w", err)
	}

	contextBranch := compose.NewGraphBranch(
		nodes.NewContextCondition(),
		map[string]bool{
			nodes.NodeGatherContext: true,
			nodes.NodeRecommend:     true,
			nodes.NodeRespond:       true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSearch, contextBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding context branch")
		return fmt.Errorf("error adding context branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.ConversationState, *model.ConversationState], error) {
	// The longest path visits five stages; ten steps leaves headroom for
	// branch evaluation without masking a routing cycle.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
