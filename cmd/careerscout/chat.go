package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/agent"
	"github.com/careerscout/careerscout/plugin/ai/agent/tools"
	"github.com/careerscout/careerscout/plugin/ai/cache"
	"github.com/careerscout/careerscout/plugin/ai/hybrid"
	"github.com/careerscout/careerscout/plugin/ai/semcache"
	"github.com/careerscout/careerscout/server/runner/watcher"
	"github.com/careerscout/careerscout/store"
)

func newChatCommand() *cobra.Command {
	var conversationUID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive advisor conversation on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := profile.Load()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), p, conversationUID)
		},
	}
	cmd.Flags().StringVar(&conversationUID, "conversation", "", "resume an existing conversation by UID")
	return cmd
}

func runChat(ctx context.Context, p *profile.Profile, conversationUID string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(p.IsDev())
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	driver, err := newDriver(p)
	if err != nil {
		return err
	}
	st := store.New(driver, p)
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	var exact cache.ExactCache
	if p.RedisAddr == "" {
		logger.Info("no redis address configured, using in-memory exact cache")
		exact = cache.NewMemoryCache(metrics)
	} else {
		exact, err = cache.NewRedisCache(cache.RedisConfig{
			Addr:     p.RedisAddr,
			Password: p.RedisPassword,
			DB:       p.RedisDB,
		}, metrics, logger)
		if err != nil {
			return err
		}
	}
	defer exact.Close()

	var semantic semcache.SemanticCache
	if p.Driver == "postgres" {
		semantic = semcache.NewStoreIndex(driver, p.SemanticTTL, logger, metrics)
	} else {
		logger.Info("sqlite driver has no vector support, using in-memory semantic cache")
		semantic = semcache.NewMemoryIndex(p.SemanticTTL, logger, metrics)
	}

	provider := ai.NewProvider(&ai.Config{
		BaseURL:        p.OpenAIBaseURL,
		APIKey:         p.OpenAIAPIKey,
		ChatModel:      p.ChatModel,
		EmbeddingModel: p.EmbeddingModel,
	})

	coordinator := hybrid.NewCoordinator(exact, semantic, provider, p, logger, metrics)
	toolRegistry := tools.NewRegistry(logger, metrics)
	toolRegistry.Register(tools.NewRoleMatchTool(coordinator, st))
	toolRegistry.Register(tools.NewJobSearchTool(coordinator, st, provider))

	extractor := agent.NewSkillExtractor(provider, provider, semantic, p.ExtractionThreshold, logger, metrics)
	orchestrator := agent.NewOrchestrator(provider, extractor, toolRegistry, logger, metrics)

	conversation, state, err := loadConversation(ctx, st, conversationUID)
	if err != nil {
		return err
	}
	logger.Info("conversation ready", "uid", conversation.UID)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return serveMetrics(ctx, p.MetricsAddr, registry, logger)
	})

	if p.Driver == "postgres" {
		feed := watcher.NewPostgresFeed(p.DSN, logger)
		runner := watcher.NewRunner(feed, semantic, logger, metrics)
		group.Go(func() error {
			defer feed.Close()
			runner.Run(ctx)
			return nil
		})
	}

	group.Go(func() error {
		sweepSemanticCache(ctx, semantic, logger)
		return nil
	})

	group.Go(func() error {
		defer stop()
		return chatLoop(ctx, orchestrator, st, conversation, state, logger)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadConversation resumes a persisted conversation or starts a fresh one.
func loadConversation(ctx context.Context, st *store.Store, uid string) (*store.Conversation, *agent.ConversationState, error) {
	if uid != "" {
		conversation, err := st.GetConversation(ctx, uid)
		if err != nil {
			return nil, nil, err
		}
		if conversation == nil {
			return nil, nil, errors.Errorf("conversation %q not found", uid)
		}
		state, err := agent.UnmarshalState(conversation.State)
		if err != nil {
			return nil, nil, errors.Wrap(err, "stored conversation state is corrupt")
		}
		return conversation, state, nil
	}

	state := &agent.ConversationState{}
	data, err := state.Marshal()
	if err != nil {
		return nil, nil, err
	}
	conversation, err := st.UpsertConversation(ctx, &store.Conversation{State: data})
	if err != nil {
		return nil, nil, err
	}
	return conversation, state, nil
}

// chatLoop reads user turns from stdin until EOF or cancellation, persisting
// conversation state after every turn.
func chatLoop(ctx context.Context, orchestrator *agent.Orchestrator, st *store.Store,
	conversation *store.Conversation, state *agent.ConversationState, logger *slog.Logger) error {
	fmt.Println("careerscout ready. Tell me about your skills (ctrl-d to quit).")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		turn := observability.NewTurnContext(logger, conversation.UID)
		turnCtx := observability.WithTurnContext(ctx, turn)

		reply, err := orchestrator.Turn(turnCtx, state, input)
		if err != nil {
			return err
		}
		turn.Info("turn complete",
			slog.String(observability.LogFieldAgent, state.Active()),
			slog.Int64(observability.LogFieldDuration, turn.DurationMs()))
		fmt.Println(reply)

		data, err := state.Marshal()
		if err != nil {
			return err
		}
		conversation.State = data
		if _, err := st.UpsertConversation(ctx, conversation); err != nil {
			logger.Warn("failed to persist conversation", "uid", conversation.UID, "error", err)
		}
	}
}

// serveMetrics exposes the Prometheus endpoint until ctx is canceled.
func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweepSemanticCache drops expired semantic entries hourly.
func sweepSemanticCache(ctx context.Context, semantic semcache.SemanticCache, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := semantic.Cleanup(ctx)
			if err != nil {
				logger.Warn("semantic cache sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("semantic cache swept", "removed", removed)
			}
		}
	}
}
