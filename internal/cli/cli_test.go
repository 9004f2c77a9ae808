package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/fourmi/internal/crawl"
	"github.com/ppiankov/fourmi/internal/model"
	"github.com/ppiankov/fourmi/internal/parsers"
	"github.com/ppiankov/fourmi/internal/pipeline"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waterArticle = `<html><body><table class="infobox ib-chembox">
<tr><td>Molecular formula</td><td>H2O</td></tr>
<tr><td>Melting point</td><td>0 °C</td></tr>
<tr><td>Density</td><td>0.997 g/mL at 25 °C</td></tr>
<tr><td>Melting point</td><td>0 °C</td></tr>
</table></body></html>`

func testSearcher(t *testing.T, mutate func(*model.Config)) *searcher {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Water", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, waterArticle)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	registry := parsers.NewRegistry()
	registry.MustRegister(parsers.WikipediaName, func() parsers.Parser {
		p := parsers.NewWikipediaParser()
		p.BaseURL = srv.URL + "/wiki/"
		return p
	})

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Concurrency.RequestsPerSecond = 0
	if mutate != nil {
		mutate(cfg)
	}
	return &searcher{cfg: cfg, registry: registry, logger: zap.NewNop()}
}

func TestSearcher_DefaultPipeline(t *testing.T) {
	s := testSearcher(t, nil)

	results, summaries, err := s.search(context.Background(), []string{"Water"}, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	require.Len(t, results, 3)
	assert.Equal(t, "Molecular formula", results[0].Get(model.FieldAttribute))
	assert.Equal(t, "Melting point", results[1].Get(model.FieldAttribute))
	assert.Equal(t, "Density", results[2].Get(model.FieldAttribute))
	assert.Equal(t, pipeline.Stats{In: 4, Kept: 3, Dropped: 1}, summaries[0].Stats)
}

func TestSearcher_EachCompoundHasItsOwnSeenSet(t *testing.T) {
	s := testSearcher(t, nil)

	results, summaries, err := s.search(context.Background(), []string{"Water", " ", "Water"}, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Len(t, results, 6)
	assert.NotEqual(t, summaries[0].RunID, summaries[1].RunID)
}

func TestSearcher_AttributeSelection(t *testing.T) {
	s := testSearcher(t, func(cfg *model.Config) {
		cfg.Pipeline.SelectedAttributes = []string{"m.lting"}
		cfg.Pipeline.IgnoreCase = true
	})

	results, _, err := s.search(context.Background(), []string{"Water"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Melting point", results[0].Get(model.FieldAttribute))
}

func TestSearcher_Errors(t *testing.T) {
	s := testSearcher(t, nil)
	_, _, err := s.search(context.Background(), []string{"Water"}, []string{"nope"})
	assert.Error(t, err)

	s = testSearcher(t, func(cfg *model.Config) { cfg.Pipeline.Matcher = "regex" })
	_, _, err = s.search(context.Background(), []string{"Water"}, nil)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []*crawl.Summary{{
		Compound:  "Water",
		Pages:     1,
		CacheHits: 1,
		Stats:     pipeline.Stats{In: 4, Kept: 3, Dropped: 1},
	}})

	out := buf.String()
	assert.Contains(t, out, "COMPOUND")
	assert.Contains(t, out, "CACHED")
	assert.Contains(t, out, "Water")
}

func TestListParsers(t *testing.T) {
	var buf bytes.Buffer
	listParsers(&buf, parsers.Default())

	assert.Contains(t, buf.String(), parsers.WikipediaName)
	assert.Contains(t, buf.String(), parsers.PubChemName)
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("FOURMI_PIPELINE_MATCHER", "substring")
	t.Setenv("FOURMI_CONCURRENCY_WORKERS", "9")

	v := viper.New()
	configureEnv(v)

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "substring", cfg.Pipeline.Matcher)
	assert.Equal(t, 9, cfg.Concurrency.Workers)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, pipeline.DefaultStages, cfg.Pipeline.Stages)
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".fourmi", "config.yaml")
	require.NoError(t, initConfigFile(path))
	err := initConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cli: config file already exists")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.False(t, cfg.HTTP.InsecureTLS)
	def := model.DefaultConfig()
	assert.Equal(t, def.HTTP.Timeout, cfg.HTTP.Timeout)
	assert.Equal(t, def.Cache.DiskTTL, cfg.Cache.DiskTTL)
	assert.Equal(t, def.Pipeline.Stages, cfg.Pipeline.Stages)
	assert.Equal(t, def.Feed.Format, cfg.Feed.Format)
}

func TestInitLogger(t *testing.T) {
	_, err := initLogger(model.LogConfig{Level: "loud"})
	assert.Error(t, err)

	logPath := filepath.Join(t.TempDir(), "fourmi.log")
	logger, err := initLogger(model.LogConfig{Level: "info", Format: "json", File: logPath})
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger.Info("crawl finished", zap.String("compound", "Water"))
	_ = logger.Sync()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"compound":"Water"`)
}

func TestSearcher_AnnotatesReliability(t *testing.T) {
	s := testSearcher(t, func(cfg *model.Config) {
		cfg.Reliability.DomainMap = map[string]string{"127.0.0.1": "medium"}
	})

	results, _, err := s.search(context.Background(), []string{"Water"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "medium", r.Get(model.FieldReliability))
	}
}
