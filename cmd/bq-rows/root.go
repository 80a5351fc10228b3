package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Sternrassler/bigquery-rows/pkg/cache"
	"github.com/Sternrassler/bigquery-rows/pkg/logging"
	"github.com/Sternrassler/bigquery-rows/pkg/query"
	"github.com/Sternrassler/bigquery-rows/pkg/rest"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const userAgent = "bq-rows/0.1.0"

type options struct {
	project     string
	baseURL     string
	location    string
	timeoutMs   int
	maxResults  int
	params      []string
	retries     int
	redisAddr   string
	cacheTTL    time.Duration
	logLevel    string
	pretty      bool
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bq-rows [flags] <sql>",
		Short: "Run a BigQuery query and print every result row as a JSON line",
		Long: `Run a BigQuery query and print every result row as a JSON line.

Rows are fetched page by page until the result set is exhausted. Logs go to
stderr; stdout carries only rows. Authentication is expected to be handled
by the HTTP endpoint given with --base-url (for example a local proxy).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.project, "project", getEnv("BQ_PROJECT", ""), "project that runs the query job (env BQ_PROJECT)")
	f.StringVar(&opts.baseURL, "base-url", getEnv("BQ_BASE_URL", rest.DefaultBaseURL), "BigQuery REST root (env BQ_BASE_URL)")
	f.StringVar(&opts.location, "location", getEnv("BQ_LOCATION", ""), "job location, e.g. EU (env BQ_LOCATION)")
	f.IntVar(&opts.timeoutMs, "timeout-ms", 0, fmt.Sprintf("server-side wait per request in milliseconds (0 means --param timeoutMs or %d)", query.DefaultTimeoutMs))
	f.IntVar(&opts.maxResults, "max-results", 0, fmt.Sprintf("rows per page (0 means --param maxResults or %d)", query.DefaultMaxResults))
	f.StringArrayVar(&opts.params, "param", nil, "extra request body field as key=value; value is parsed as JSON when valid (repeatable)")
	f.IntVar(&opts.retries, "retries", 2, "transport retries for server, rate-limit and network errors")
	f.StringVar(&opts.redisAddr, "redis-addr", getEnv("REDIS_URL", ""), "cache result pages in Redis at this address (env REDIS_URL)")
	f.DurationVar(&opts.cacheTTL, "cache-ttl", cache.DefaultPageTTL, "lifetime of cached pages")
	f.StringVar(&opts.logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "debug, info, warn, error or disabled (env LOG_LEVEL)")
	f.BoolVar(&opts.pretty, "pretty", false, "human-readable logs")
	f.StringVar(&opts.metricsAddr, "metrics-addr", getEnv("METRICS_ADDR", ""), "serve Prometheus metrics on this address while the query runs (env METRICS_ADDR)")

	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, sql string, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Pretty = opts.pretty
	logCfg.Output = stderr
	logging.Setup(logCfg)
	logger := logging.NewLogger("cli")

	extra, err := parseParams(opts.params)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		srv, addr, err := startMetricsServer(opts.metricsAddr, logger)
		if err != nil {
			return err
		}
		defer shutdownMetricsServer(srv, logger)
		logger.Info().Str("addr", addr.String()).Msg("Serving metrics")
	}

	restCfg := rest.DefaultConfig(opts.project, userAgent)
	restCfg.BaseURL = opts.baseURL
	restCfg.Location = opts.location
	restCfg.MaxRetries = opts.retries
	restClient, err := rest.New(restCfg)
	if err != nil {
		return fmt.Errorf("create BigQuery client: %w", err)
	}

	var api query.API = restClient
	if opts.redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: opts.redisAddr,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", opts.redisAddr, err)
		}
		logger.Info().Str("redis", opts.redisAddr).Msg("Page cache enabled")

		api = cache.NewPageCache(restClient, cache.NewManager(redisClient), cache.PageCacheConfig{
			ProjectID: opts.project,
			TTL:       opts.cacheTTL,
		})
	}

	w := bufio.NewWriter(stdout)
	defer w.Flush()

	start := time.Now()
	it := query.NewClient(api).Rows(ctx, query.Options{
		Query:      sql,
		TimeoutMs:  opts.timeoutMs,
		MaxResults: opts.maxResults,
		Extra:      extra,
	})

	var buf bytes.Buffer
	n := 0
	for row, err := range it.All() {
		if err != nil {
			return err
		}
		buf.Reset()
		if err := json.Compact(&buf, row); err != nil {
			return fmt.Errorf("row %d is not valid JSON: %w", n, err)
		}
		buf.WriteByte('\n')
		if _, err := w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		n++
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	logger.Info().
		Str("job_id", it.JobID()).
		Int("rows", n).
		Dur("duration", time.Since(start)).
		Msg("Query complete")
	return nil
}

// parseParams turns key=value pairs into passthrough body fields.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
