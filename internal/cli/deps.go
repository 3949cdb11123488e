package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"

	"github.com/appgwatch/appgwatch/internal/agent"
	"github.com/appgwatch/appgwatch/internal/cache"
	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/scrape"
	"github.com/appgwatch/appgwatch/internal/store"
)

// peopleURL is the canonical legislator database maintained by mySociety
const peopleURL = "https://raw.githubusercontent.com/mysociety/parlparse/master/members/people.json"

// loadConfig builds the runtime configuration from defaults, the config
// file, environment variables and flags
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("data.dir"); v != "" {
		cfg.Data.Dir = v
		cfg.Cache.Dir = filepath.Join(v, "cache")
	}
	if v := viper.GetDuration("http.timeout"); v > 0 {
		cfg.HTTP.Timeout = v
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := os.Getenv("PARL_USER_AGENT"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := viper.GetInt64("http.max_body_bytes"); v > 0 {
		cfg.HTTP.MaxBodyBytes = v
	}
	if viper.IsSet("http.check_robots") {
		cfg.HTTP.CheckRobots = viper.GetBool("http.check_robots")
	}
	if v := viper.GetFloat64("http.requests_per_second"); v > 0 {
		cfg.HTTP.RequestsPerSecond = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetInt("llm.max_tokens"); v > 0 {
		cfg.LLM.MaxTokens = v
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetDuration("cache.ttl"); v > 0 {
		cfg.Cache.TTL = v
	}

	cfg.LLM.APIKey = viper.GetString("llm.api_key")
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Search.APIKey = viper.GetString("search.api_key")
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
	}

	cfg.Verbose = viper.GetBool("verbose")
	return cfg
}

func newGroupStore(cfg *model.Config) *store.GroupStore {
	return store.NewGroupStore(cfg.Data.Dir)
}

func newCorrectionStore(cfg *model.Config) *store.CorrectionStore {
	return store.NewCorrectionStore(cfg.CorrectionsPath())
}

func newFetchCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return cache.NewLayeredCache(filepath.Join(cfg.Cache.Dir, "fetch"), cfg.Cache.TTL)
}

func newFetcher(cfg *model.Config) *fetch.Fetcher {
	return fetch.NewFetcher(cfg.HTTP, newFetchCache(cfg), cfg.Cache.TTL)
}

func newRestyClient(cfg *model.Config) *resty.Client {
	return resty.New().
		SetTimeout(cfg.HTTP.Timeout).
		SetHeader("User-Agent", cfg.HTTP.UserAgent)
}

func newLLMClient(cfg *model.Config) (*agent.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no LLM API key configured, set OPENAI_API_KEY")
	}
	return agent.NewClient(cfg.LLM)
}

// newClassifier returns a category classifier, or nil when no LLM key is
// available. Scrapers treat a nil classifier as "leave categories alone".
func newClassifier(cfg *model.Config) scrape.Classifier {
	client, err := newLLMClient(cfg)
	if err != nil {
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "Category classification disabled: %v\n", err)
		}
		return nil
	}
	return agent.NewCategoryClassifier(client)
}

// newRegistry loads the legislator database, downloading it first if no
// local copy exists
func newRegistry(cfg *model.Config) (*register.Registry, error) {
	path := cfg.PeoplePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Downloading legislator database from %s\n", peopleURL)
		if err := downloadPeople(cfg, path); err != nil {
			return nil, err
		}
	}
	return register.Load(path)
}

func downloadPeople(cfg *model.Config, path string) error {
	// the people file is ~100MB, well past the scrape body cap
	client := resty.New().
		SetTimeout(5 * time.Minute).
		SetHeader("User-Agent", cfg.HTTP.UserAgent)

	resp, err := client.R().Get(peopleURL)
	if err != nil {
		return fmt.Errorf("download people file: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("download people file: status %d", resp.StatusCode())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create external data dir: %w", err)
	}
	if err := os.WriteFile(path, resp.Body(), 0644); err != nil {
		return fmt.Errorf("save people file: %w", err)
	}
	return nil
}
