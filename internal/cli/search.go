package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/fourmi/internal/cache"
	"github.com/ppiankov/fourmi/internal/crawl"
	"github.com/ppiankov/fourmi/internal/export"
	"github.com/ppiankov/fourmi/internal/model"
	"github.com/ppiankov/fourmi/internal/parsers"
	"github.com/ppiankov/fourmi/internal/pipeline"
	"github.com/ppiankov/fourmi/internal/util"
	"github.com/ppiankov/fourmi/internal/validate"
	"github.com/ppiankov/fourmi/internal/worker"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	searchParsers []string
	searchFile    string
	searchNoCache bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <compound> [compound...]",
	Short: "Search the registered sites for a compound",
	Long: `Search every registered site for properties of a compound.

Extracted facts pass the item pipeline (remove_none, duplicate and
attribute_selection by default) and the survivors are written to a feed.

Examples:
  fourmi search Methane
  fourmi search Methane --attributes "Melting point,Boiling point"
  fourmi search Methane --format csv --output methane.csv
  fourmi search --file compounds.txt --matcher jarowinkler --ignore-case`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && searchFile == "" {
			return eris.New("cli: requires a compound name or --file")
		}
		return nil
	},
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	f := searchCmd.Flags()
	f.StringSliceP("attributes", "a", nil, "attribute patterns to keep ('.' matches any one character)")
	f.StringP("output", "o", "", "output file (default: results.json, or results.<format>)")
	f.StringP("format", "f", "", "feed format: csv, json, jsonlines or xml")
	f.String("matcher", "", "attribute matcher: wildcard, substring or jarowinkler")
	f.Bool("ignore-case", false, "match attributes case-insensitively")
	f.Bool("strict", false, "fail records with absent fields instead of filling them")
	f.StringSlice("stages", nil, "pipeline stage order")
	f.StringSliceVar(&searchParsers, "parsers", nil, "only use these parsers (default: all)")
	f.StringVar(&searchFile, "file", "", "read compounds from a file, one per line")
	f.BoolVar(&searchNoCache, "no-cache", false, "disable the page cache")

	bind := map[string]string{
		"pipeline.selected_attributes": "attributes",
		"feed.uri":                     "output",
		"feed.format":                  "format",
		"pipeline.matcher":             "matcher",
		"pipeline.ignore_case":         "ignore-case",
		"pipeline.strict":              "strict",
		"pipeline.stages":              "stages",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if searchNoCache {
		cfg.Cache.Enabled = false
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	compounds := append([]string(nil), args...)
	if searchFile != "" {
		lines, err := worker.ReadLines(searchFile)
		if err != nil {
			return err
		}
		compounds = append(compounds, lines...)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &searcher{cfg: cfg, registry: parsers.Default(), logger: logger}
	results, summaries, err := s.search(ctx, compounds, searchParsers)
	if err != nil {
		return err
	}

	path := export.FeedURI(cfg.Feed.URI, cfg.Feed.Format)
	if err := export.WriteFile(path, cfg.Feed.Format, results); err != nil {
		return err
	}

	printSummary(cmd.ErrOrStderr(), summaries)
	fmt.Fprintf(cmd.ErrOrStderr(), "\n✓ %d results written to %s\n", len(results), path)
	return nil
}

// searcher runs one crawl per compound, each with its own pipeline runner
type searcher struct {
	cfg      *model.Config
	registry *parsers.Registry
	logger   *zap.Logger
}

func (s *searcher) spider() (*crawl.Spider, error) {
	opts := []crawl.Option{crawl.WithLogger(s.logger)}
	if s.cfg.Cache.Enabled {
		c := cache.NewLayeredCache(s.cfg.Cache.MemoryTTL, s.cfg.Cache.Dir, s.cfg.Cache.DiskTTL)
		opts = append(opts, crawl.WithCache(c, s.cfg.Cache.DiskTTL))
	}
	if s.cfg.HTTP.RespectRobots {
		opts = append(opts, crawl.WithRobots(util.NewRobotsChecker(s.cfg.HTTP.UserAgent, s.cfg.HTTP.Timeout)))
	}
	if s.cfg.Reliability.Enabled {
		rank, err := validate.NewReliabilityClassifier(&s.cfg.Reliability)
		if err != nil {
			return nil, err
		}
		opts = append(opts, crawl.WithReliability(rank))
	}
	return crawl.NewSpider(s.cfg, opts...), nil
}

func (s *searcher) search(ctx context.Context, compounds, parserNames []string) ([]*model.Result, []*crawl.Summary, error) {
	ps, err := s.registry.Select(parserNames)
	if err != nil {
		return nil, nil, err
	}
	spider, err := s.spider()
	if err != nil {
		return nil, nil, err
	}

	var (
		results   []*model.Result
		summaries []*crawl.Summary
	)
	for _, compound := range compounds {
		compound = strings.TrimSpace(compound)
		if compound == "" {
			continue
		}
		runner, err := pipeline.Build(s.cfg.Pipeline, pipeline.WithLogger(s.logger))
		if err != nil {
			return nil, nil, err
		}
		summary, err := spider.Crawl(ctx, compound, ps, runner)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "cli: search %q", compound)
		}
		results = append(results, summary.Results...)
		summaries = append(summaries, summary)
	}
	return results, summaries, nil
}

// printSummary renders one row per crawl
func printSummary(w io.Writer, summaries []*crawl.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Compound", "Pages", "Cached", "Skipped", "Failures", "In", "Kept", "Dropped", "Failed"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Compound, s.Pages, s.CacheHits, s.Skipped, s.Failures, s.Stats.In, s.Stats.Kept, s.Stats.Dropped, s.Stats.Failed})
	}
	t.Render()
}
