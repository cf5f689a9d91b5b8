// Command w3batch reads a list of JSON-RPC calls, executes them
// concurrently inside one batching scope and prints the results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"w3batch"
	"w3batch/batch"
	"w3batch/internal/config"
	"w3batch/transport"
)

type callSpec struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type callResult struct {
	Method string          `json:"method"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	callsPath := flag.String("calls", "calls.json", "path to JSON array of calls")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.LogLevel)

	calls, err := loadCalls(*callsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load calls")
	}
	if len(calls) == 0 {
		logger.Fatal().Msg("no calls to execute")
	}

	ctx := context.Background()

	tr, cleanup, err := buildTransport(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up transport")
	}
	defer cleanup()

	clientCfg := w3batch.ClientConfig{Logger: logger}
	if cfg.IsCacheEnabled() {
		clientCfg.CacheSize = cfg.Cache.Size
		clientCfg.CacheTTL = cfg.Cache.GetTTLDuration()
		clientCfg.CacheDisabledMethods = cfg.Cache.DisabledMethods
	}
	client, err := w3batch.NewClient(tr, clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	logger.Info().
		Int("calls", len(calls)).
		Int("maxBatchSize", cfg.Batch.MaxSize).
		Msg("executing calls")

	results := run(ctx, client, cfg, calls)

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to marshal results")
	}
	os.Stdout.Write(append(out, '\n'))
}

// run executes all calls concurrently inside a single batching scope.
func run(ctx context.Context, client *w3batch.Client, cfg *config.Config, calls []callSpec) []callResult {
	batchCtx, scope := client.WithBatch(ctx, batch.Config{
		MaxBatchSize:         cfg.Batch.MaxSize,
		MaxWait:              cfg.Batch.GetMaxWaitDuration(),
		CallTimeout:          cfg.Batch.GetCallTimeoutDuration(),
		MaxConcurrentBatches: cfg.Batch.MaxConcurrent,
	})
	defer scope.Exit()

	results := make([]callResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call callSpec) {
			defer wg.Done()
			results[i].Method = call.Method
			var params interface{}
			if call.Params != nil {
				params = call.Params
			}
			result, err := client.Call(batchCtx, call.Method, params)
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Result = result
		}(i, call)
	}
	wg.Wait()

	return results
}

func loadCalls(path string) ([]callSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var calls []callSpec
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// buildTransport assembles the transport chain: endpoint client, then
// circuit breaker, then retry.
func buildTransport(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (transport.Transport, func(), error) {
	var tr transport.Transport
	cleanup := func() {}

	if cfg.Endpoint.PreferWS || cfg.Endpoint.RPCURL == "" {
		ws := transport.NewWS(transport.WSConfig{
			URL:    cfg.Endpoint.WSURL,
			Logger: logger,
		})
		if err := ws.Connect(ctx); err != nil {
			return nil, nil, err
		}
		tr = ws
		cleanup = func() { ws.Close() }
	} else {
		tr = transport.NewHTTP(transport.HTTPConfig{
			URL:            cfg.Endpoint.RPCURL,
			RequestTimeout: cfg.Endpoint.GetRequestTimeoutDuration(),
			Logger:         logger,
		})
	}

	if cfg.Breaker != nil && cfg.Breaker.Enabled {
		tr = transport.NewBreaker(tr, transport.BreakerConfig{
			Enabled:             true,
			FailureThreshold:    cfg.Breaker.FailureThreshold,
			RecoveryTimeout:     cfg.Breaker.GetRecoveryTimeoutDuration(),
			HalfOpenMaxRequests: cfg.Breaker.HalfOpenMaxRequests,
		})
	}

	if cfg.Retry != nil && cfg.Retry.Enabled {
		tr = transport.NewRetry(tr, transport.RetryConfig{
			Enabled:     true,
			MaxAttempts: cfg.Retry.MaxAttempts,
		}, logger)
	}

	return tr, cleanup, nil
}

// setupLogger configures the zerolog logger.
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
