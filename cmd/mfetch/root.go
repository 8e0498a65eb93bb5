// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mwiki/mhttp"
	"github.com/mwiki/mhttp/logging"
	"github.com/mwiki/mhttp/metrics"
	"github.com/mwiki/mhttp/request"
	"github.com/mwiki/mhttp/retry"
	"github.com/mwiki/mhttp/session"
	"github.com/mwiki/mhttp/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type options struct {
	config      string
	input       string
	logLevel    string
	maxCon      int
	priority    int
	retries     int
	method      string
	data        []string
	body        bool
	metricsAddr string
	trace       bool
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "mfetch [flags] [url ...]",
		Short: "Fetch many URLs concurrently through one session",
		Long: `mfetch sends one request per URL through a shared session with a bounded
concurrency limit and a shared cookie jar. Transient failures are retried.
One line is printed per URL: status code, outcome, body size, and URL.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args, in, out, errOut)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "mhttp.yaml", "Session config file (YAML)")
	f.StringVarP(&o.input, "input", "i", "", `File of URLs, one per line ("-" for stdin)`)
	f.StringVar(&o.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.IntVar(&o.maxCon, "max-con", 0, "Maximum concurrent requests (overrides config)")
	f.IntVar(&o.priority, "priority", mhttp.DefaultPriority, "Priority of every request")
	f.IntVar(&o.retries, "retries", 3, "Retries per request (-1 retries without bound)")
	f.StringVarP(&o.method, "method", "X", "GET", "Request method (GET or POST)")
	f.StringArrayVarP(&o.data, "data", "d", nil, "Request parameter as key=value (repeatable)")
	f.BoolVar(&o.body, "body", false, "Print response bodies after the result lines")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while fetching")
	f.BoolVar(&o.trace, "trace", false, "Write OpenTelemetry spans to stderr")
	return cmd
}

func run(ctx context.Context, o *options, args []string, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: errOut, NoColor: true}).
		Level(level).With().Timestamp().Logger()

	cfg, err := session.LoadConfig(o.config)
	if err != nil {
		return err
	}
	if o.maxCon != 0 {
		cfg.MaxCon = o.maxCon
	}
	s, err := session.New(*cfg)
	if err != nil {
		return err
	}

	targets, err := readTargets(args, o.input, in)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no URLs given")
	}
	body, err := parseData(o.data)
	if err != nil {
		return err
	}

	handlers := &mhttp.HandlerGroup{}
	logging.Install(handlers, logger)

	if o.metricsAddr != "" {
		shutdown, err := serveMetrics(o.metricsAddr, handlers, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	if o.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(errOut))
		if err != nil {
			return fmt.Errorf("creating trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
		tracing.Install(handlers, tp)
	}

	client := &mhttp.Client{
		Session:     s,
		Handlers:    handlers,
		RetryPolicy: retryPolicy(o.retries),
	}
	defer client.CloseIdleConnections()

	rs := make([]*request.Request, 0, len(targets))
	for _, target := range targets {
		r, err := request.NewWithContext(ctx, target, body, o.method)
		if err != nil {
			return fmt.Errorf("%s: %w", target, err)
		}
		rs = append(rs, r)
	}

	logger.Info().Int("requests", len(rs)).Int("max_con", s.ConcurrencyLimit()).Msg("fetching")
	if err := mhttp.Fetch(client, rs, o.priority); err != nil {
		return err
	}

	return report(out, rs, o.body)
}

func retryPolicy(retries int) retry.Policy {
	switch {
	case retries < 0:
		return retry.DefaultPolicy
	case retries == 0:
		return retry.Never
	default:
		return retry.NewPolicy(
			retry.Times(retries).And(retry.TransientErr.Or(retry.StatusCode(429, 500, 502, 503, 504))),
			retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now()),
		)
	}
}

func serveMetrics(addr string, handlers *mhttp.HandlerGroup, logger zerolog.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	metrics.NewRecorder(reg).Install(handlers)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	srv := &http.Server{
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func readTargets(args []string, input string, stdin io.Reader) ([]string, error) {
	targets := append([]string(nil), args...)
	if input == "" {
		return targets, nil
	}

	var rd io.Reader = stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		rd = f
	}

	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	return targets, nil
}

func parseData(data []string) (map[string][]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	body := make(map[string][]string, len(data))
	for _, kv := range data {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --data %q: want key=value", kv)
		}
		body[k] = append(body[k], v)
	}
	return body, nil
}

// report prints one line per request, and the bodies if requested. It
// returns an error if any request failed.
func report(out io.Writer, rs []*request.Request, bodies bool) error {
	failed := 0
	for _, r := range rs {
		res := r.Result()
		status := "-"
		if m := r.Metadata(); m != nil && m.StatusCode != 0 {
			status = fmt.Sprint(m.StatusCode)
		}
		if !res.OK() {
			failed++
		}
		fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", status, res.Outcome, len(res.Body), r.Target)
	}
	if bodies {
		for _, r := range rs {
			if res := r.Result(); res.OK() {
				fmt.Fprintf(out, "\n==> %s <==\n%s\n", r.Target, res.Body)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(rs))
	}
	return nil
}
