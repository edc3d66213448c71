package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/internal/favorites"
	"github.com/wonny/stockpilot/internal/history"
	"github.com/wonny/stockpilot/internal/intent"
	"github.com/wonny/stockpilot/internal/lexicon"
	"github.com/wonny/stockpilot/internal/llm"
	"github.com/wonny/stockpilot/internal/marketdata"
	"github.com/wonny/stockpilot/internal/news"
	"github.com/wonny/stockpilot/internal/pipeline"
	"github.com/wonny/stockpilot/internal/selection"
	"github.com/wonny/stockpilot/internal/sentiment"
	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/config"
	"github.com/wonny/stockpilot/pkg/database"
	"github.com/wonny/stockpilot/pkg/httputil"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
	"github.com/wonny/stockpilot/pkg/tracing"
)

// components is the object graph shared by every command
type components struct {
	cfg *config.Config
	log *logger.Logger

	lexicon   *lexicon.Lexicon
	redis     *redis.Client
	db        *database.DB // nil when DATABASE_URL is empty
	history   history.Store
	market    *marketdata.Sources
	universe  *marketdata.UniverseBuilder
	pipeline  *pipeline.Orchestrator
	sentiment *sentiment.Service
	store     session.Store
	sessions  *session.Manager
	limiter   *redis.RateLimiter

	// DB 없으면 프로세스 메모리 (serve 프로세스 안에서만 유효)
	alerts    alerts.Store
	favorites favorites.Store
	bus       *alerts.Bus

	closers []func()
}

// Close releases connections in reverse order
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// loadConfig reads config and applies global flag overrides
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if envOverride != "" {
		cfg.Env = envOverride
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// wire builds every component from cfg
// ⭐ SSOT: 의존성 조립은 여기서만
func wire(ctx context.Context, cfg *config.Config, log *logger.Logger) (*components, error) {
	c := &components{cfg: cfg, log: log}

	shutdown, err := tracing.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	c.closers = append(c.closers, func() { _ = shutdown(context.Background()) })

	c.lexicon, err = lexicon.Load(cfg.MarketData.LexiconPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	c.redis, err = redis.New(ctx, cfg)
	if err != nil {
		// 캐시/세션/레이트리밋은 Redis 없이도 동작
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		c.redis = redis.Disabled()
	}
	c.closers = append(c.closers, func() { _ = c.redis.Close() })
	cache := redis.NewCache(c.redis, redis.KeyPrefix)

	c.history = history.Nop{}
	c.alerts = alerts.NewMemoryStore()
	c.favorites = favorites.NewMemoryStore()
	if cfg.Database.Enabled() {
		c.db, err = database.New(ctx, cfg)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		c.closers = append(c.closers, c.db.Close)
		c.history = history.NewRepository(c.db.Pool)
		c.alerts = alerts.NewRepository(c.db.Pool)
		c.favorites = favorites.NewRepository(c.db.Pool)
	}

	completer, err := llm.New(ctx, cfg.LLM, log)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Info("LLM disabled, using rule-based interpretation only")
	case err != nil:
		log.WithError(err).Warn("LLM unavailable, using rule-based interpretation only")
		completer = nil
	}

	c.market, err = marketdata.New(cfg.MarketData, cache, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init market data: %w", err)
	}
	c.universe = marketdata.NewUniverseBuilder(c.market.Provider, c.lexicon,
		cfg.MarketData.Concurrency, cfg.MarketData.Timeout, log)

	var extractor *intent.LLMExtractor
	if completer != nil {
		extractor = intent.NewLLMExtractor(completer, c.lexicon, cfg.LLM.MaxOutputTokens)
	}
	chain := intent.NewChain(extractor, intent.NewRuleExtractor(c.lexicon), cfg.LLM.Timeout, cfg.LLM.RetryBackoff, log)
	screener := selection.NewScreener(chain, selection.NewFilter(c.lexicon), selection.NewRanker(log), cfg.Screener.MaxResults, log)
	c.pipeline = pipeline.NewOrchestrator(screener, c.universe, c.history, log)

	c.sentiment = sentiment.NewService(newsSource(cfg, log),
		sentiment.NewAnalyzer(completer, cfg.LLM.Timeout, cfg.LLM.MaxOutputTokens, log),
		cache, cfg.News.MaxArticles, log)

	c.store = session.NewStore(c.redis, cfg.Session.TTL)
	c.sessions = session.NewManager(c.store, log)
	c.limiter = redis.NewRateLimiter(c.redis, redis.KeyPrefix)
	c.bus = alerts.NewBus(redis.NewPubSub(c.redis, redis.KeyPrefix), log)

	lexHash, err := c.lexicon.Hash()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("hash lexicon: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"llm":          cfg.LLM.Provider,
		"market_data":  c.market.Provider.Name(),
		"lexicon":      c.lexicon.Version(),
		"lexicon_hash": lexHash[:12],
		"redis":        c.redis.Enabled(),
		"history":      c.db != nil,
	}).Info("Components wired")

	return c, nil
}

// newsSource prefers Finnhub company news when a key is configured
func newsSource(cfg *config.Config, log *logger.Logger) news.Source {
	var sources []news.Source
	if cfg.MarketData.FinnhubKey != "" {
		sources = append(sources, news.NewFinnhubSource(cfg.MarketData.FinnhubKey, cfg.News.LookbackDays))
	}
	if cfg.News.RSSURL != "" {
		httpClient := httputil.New(log, cfg.MarketData.Timeout)
		sources = append(sources, news.NewRSSSource(httpClient, cfg.News.RSSURL, log))
	}
	return news.NewFallback(log, sources...)
}

// alertNotifiers delivers triggers through primary plus email when SMTP is set
func alertNotifiers(c *components, primary alerts.Notifier) alerts.Notifiers {
	ns := alerts.Notifiers{primary}
	if c.cfg.Alerts.EmailEnabled() {
		ns = append(ns, alerts.NewMailer(c.cfg.Alerts))
	}
	return ns
}
