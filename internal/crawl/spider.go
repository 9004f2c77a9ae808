package crawl

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/ppiankov/fourmi/internal/cache"
	"github.com/ppiankov/fourmi/internal/model"
	"github.com/ppiankov/fourmi/internal/parsers"
	"github.com/ppiankov/fourmi/internal/pipeline"
	"github.com/ppiankov/fourmi/internal/util"
	"github.com/ppiankov/fourmi/internal/validate"
	"github.com/ppiankov/fourmi/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Spider searches every parser's site for one compound and streams the
// extracted results through an item pipeline runner.
type Spider struct {
	fetcher  *Fetcher
	cache    cache.Cache
	cacheTTL time.Duration
	robots   *util.RobotsChecker
	rank     *validate.ReliabilityClassifier
	limiter  *worker.Limiter
	workers  int
	maxDepth int
	logger   *zap.Logger
}

// Option configures a Spider
type Option func(*Spider)

// WithCache puts a page cache in front of the fetcher
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Spider) {
		if c != nil {
			s.cache = c
			s.cacheTTL = ttl
		}
	}
}

// WithRobots makes the spider skip URLs disallowed by robots.txt
func WithRobots(r *util.RobotsChecker) Option {
	return func(s *Spider) { s.robots = r }
}

// WithReliability annotates each result with the reliability of the
// page it came from
func WithReliability(c *validate.ReliabilityClassifier) Option {
	return func(s *Spider) { s.rank = c }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a spider from configuration
func NewSpider(cfg *model.Config, opts ...Option) *Spider {
	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	fetcher.SetAttempts(cfg.HTTP.MaxRetries)

	s := &Spider{
		fetcher:  fetcher,
		cache:    cache.Nop{},
		limiter:  worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.BurstSize),
		workers:  cfg.Concurrency.Workers,
		maxDepth: cfg.Concurrency.MaxDepth,
		logger:   zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary describes one crawl
type Summary struct {
	Compound  string
	RunID     string
	Results   []*model.Result // Surviving results in production order
	Pages     int
	CacheHits int // Pages served from the page cache
	Failures  int
	Skipped   int
	Stats     pipeline.Stats
}

// fetchOutcome is what a fetch job hands back to the crawl loop
type fetchOutcome struct {
	req     parsers.Request
	page    *parsers.Page
	err     error
	skipped bool
	cached  bool
}

// Crawl fetches the compound's pages with the given parsers and runs
// each extracted result through runner. Results from one page enter the
// runner in the order the parser produced them. Fetch and parse
// failures are logged and do not stop the crawl.
func (s *Spider) Crawl(ctx context.Context, compound string, ps []parsers.Parser, runner *pipeline.Runner) (*Summary, error) {
	if len(ps) == 0 {
		return nil, eris.New("crawl: no parsers")
	}

	run := &crawlRun{
		parsers: ps,
		byName:  make(map[string]parsers.Parser, len(ps)),
		runner:  runner,
		rank:    s.rank,
		summary: &Summary{Compound: compound, RunID: runner.ID()},
		logger:  s.logger.With(zap.String("compound", compound), zap.String("run_id", runner.ID())),
	}

	var queue []parsers.Request
	for _, p := range ps {
		run.byName[p.Name()] = p
		queue = append(queue, p.NewCompoundRequest(compound))
	}

	pool := worker.NewPool[fetchOutcome](ctx, s.workers)
	pool.Start()
	defer pool.Shutdown()

	visited := make(map[string]bool)
	inflight := 0

	for inflight > 0 || len(queue) > 0 {
		var send chan<- worker.Job[fetchOutcome]
		var next worker.Job[fetchOutcome]
		if len(queue) > 0 {
			req := queue[0]
			if visited[req.URL] || req.Depth > s.maxDepth {
				run.logger.Debug("request skipped", zap.String("url", req.URL), zap.Int("depth", req.Depth))
				queue = queue[1:]
				continue
			}
			send, next = pool.Queue(), s.fetchJob(req)
		}

		select {
		case <-pool.Done():
			return run.summary, eris.Wrap(ctx.Err(), "crawl: cancelled")

		case send <- next:
			visited[queue[0].URL] = true
			queue = queue[1:]
			inflight++

		case out, ok := <-pool.Results():
			if !ok {
				return run.summary, eris.Wrap(ctx.Err(), "crawl: workers stopped")
			}
			inflight--
			queue = append(queue, run.handle(out)...)
		}
	}

	// Nothing is in flight; let the workers exit
	pool.Wait()

	run.summary.Stats = runner.Stats()
	run.logger.Info("crawl finished",
		zap.Int("pages", run.summary.Pages),
		zap.Int("kept", run.summary.Stats.Kept),
		zap.Int("dropped", run.summary.Stats.Dropped),
	)
	return run.summary, nil
}

// crawlRun is the state of one Crawl call, owned by the crawl loop
type crawlRun struct {
	parsers []parsers.Parser
	byName  map[string]parsers.Parser
	runner  *pipeline.Runner
	rank    *validate.ReliabilityClassifier
	summary *Summary
	logger  *zap.Logger
}

// handle parses a fetched page and feeds its results to the runner. It
// returns the follow-up requests.
func (c *crawlRun) handle(out fetchOutcome) []parsers.Request {
	switch {
	case out.skipped:
		c.summary.Skipped++
		c.logger.Warn("disallowed by robots.txt", zap.String("url", out.req.URL))
		return nil
	case out.err != nil:
		c.summary.Failures++
		c.logger.Error("fetch failed", zap.String("url", out.req.URL), zap.Error(out.err))
		return nil
	}
	c.summary.Pages++
	if out.cached {
		c.summary.CacheHits++
	}

	p, ok := c.byName[out.req.Parser]
	if !ok {
		p = parsers.ForURL(c.parsers, out.page.URL)
	}
	if p == nil {
		c.summary.Failures++
		c.logger.Error("no parser for page", zap.String("url", out.page.URL))
		return nil
	}

	results, follow, err := p.Parse(out.page)
	if err != nil {
		c.summary.Failures++
		c.logger.Error("parse failed", zap.String("parser", p.Name()), zap.String("url", out.page.URL), zap.Error(err))
		return nil
	}

	for _, r := range results {
		if c.rank != nil {
			c.rank.Annotate(r, out.page.URL)
		}
		kept, ok, err := c.runner.Process(r)
		if err != nil {
			c.logger.Error("result rejected", zap.String("parser", p.Name()), zap.Error(err))
			continue
		}
		if ok {
			c.summary.Results = append(c.summary.Results, kept)
		}
	}

	for i := range follow {
		if follow[i].Parser == "" {
			follow[i].Parser = p.Name()
		}
	}
	return follow
}

type cachedPage struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// fetchJob builds the job that retrieves one request. The page cache is
// consulted before robots.txt and the rate limiter.
func (s *Spider) fetchJob(req parsers.Request) worker.Job[fetchOutcome] {
	return worker.JobFunc[fetchOutcome](func(ctx context.Context) fetchOutcome {
		key := cache.Key(req.URL)
		resp, ok := s.cached(key)
		if !ok {
			if s.robots != nil {
				allowed, delay, err := s.robots.CanFetch(ctx, req.URL)
				if err != nil {
					return fetchOutcome{req: req, err: err}
				}
				if !allowed {
					return fetchOutcome{req: req, skipped: true}
				}
				if u, err := url.Parse(req.URL); err == nil {
					s.limiter.SetCrawlDelay(u.Host, delay)
				}
			}

			if err := s.limiter.Wait(ctx, req.URL); err != nil {
				return fetchOutcome{req: req, err: eris.Wrap(err, "crawl: rate limit")}
			}

			var err error
			resp, err = s.fetcher.FetchWithRetry(ctx, req.URL)
			if err != nil {
				return fetchOutcome{req: req, err: err}
			}
			s.store(key, resp)
		}

		return fetchOutcome{req: req, cached: resp.FromCache, page: &parsers.Page{
			URL: resp.URL, ContentType: resp.ContentType, Body: resp.Body, Request: req,
		}}
	})
}

// cached returns the stored response for key, marked FromCache
func (s *Spider) cached(key string) (*Response, bool) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	var cp cachedPage
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, false
	}
	return &Response{URL: cp.URL, ContentType: cp.ContentType, Body: cp.Body, FromCache: true}, true
}

func (s *Spider) store(key string, resp *Response) {
	raw, err := json.Marshal(cachedPage{URL: resp.URL, ContentType: resp.ContentType, Body: resp.Body})
	if err != nil {
		return
	}
	if err := s.cache.Set(key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("url", resp.URL), zap.Error(err))
	}
}
