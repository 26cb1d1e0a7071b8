package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg      integrations.Config
	svc      *integrations.Service
	notifier integrations.Notifier
	logger   *slog.Logger
	out      io.Writer
	closers  []func() error
}

type appKey struct{}

// session keeps the app built for the running command so its resources can
// be released after Execute, whether or not the command failed.
type session struct {
	app *app
}

func (s *session) close() {
	if s.app != nil {
		s.app.close()
		s.app = nil
	}
}

func newRootCmd() (*cobra.Command, *session) {
	var debug bool
	s := &session{}

	root := &cobra.Command{
		Use:           "integrations",
		Short:         "Manage scheduling integrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipSetup"] == "true" {
				return nil
			}
			a, err := setup(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), debug)
			if err != nil {
				return printError(cmd.OutOrStdout(), err)
			}
			s.app = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")

	root.AddCommand(
		newLoginCmd(),
		newCalendarCmd(),
		newVideoCmd(),
		newWebhooksCmd(),
		newLogsCmd(),
		newHealthCmd(),
		newConflictsCmd(),
		newConnectCmd(),
		newDashboardCmd(),
	)
	return root, s
}

func setup(ctx context.Context, out, errOut io.Writer, debug bool) (*app, error) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	cfg, err := integrations.LoadConfig()
	if err != nil {
		return nil, err
	}

	token, err := integrations.ResolveToken(cfg.APIToken)
	if err != nil {
		return nil, err
	}
	httpClient, err := integrations.AuthenticatedHTTPClient(ctx, token)
	if err != nil {
		return nil, err
	}

	client, err := integrations.NewClient(cfg.BaseURL,
		integrations.WithHTTPClient(httpClient),
		integrations.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	notifier := newNotifier(errOut)
	a := &app{cfg: cfg, notifier: notifier, logger: logger, out: out}

	cacheOpts := []integrations.CacheOption{
		integrations.WithStaleTime(cfg.StaleTime),
		integrations.WithNotifier(notifier),
		integrations.WithCacheLogger(logger),
	}
	if cfg.RedisURL != "" {
		store, err := integrations.NewRedisStore(ctx, cfg.RedisURL, integrations.CacheNamespace(token))
		if err != nil {
			logger.Warn("CLI:Setup:RedisUnavailable", "error", err)
		} else {
			cacheOpts = append(cacheOpts, integrations.WithStore(store, cfg.CacheTTL))
			a.closers = append(a.closers, store.Close)
		}
	}

	a.svc = integrations.NewService(client, integrations.NewCache(cacheOpts...))
	return a, nil
}

// newNotifier prints marked lines on a terminal and JSON log records
// otherwise.
func newNotifier(errOut io.Writer) integrations.Notifier {
	if f, ok := errOut.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return &integrations.WriterNotifier{W: errOut}
		}
	}
	return integrations.LogNotifier{Logger: slog.New(slog.NewJSONHandler(errOut, nil))}
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("CLI:Close:Error", "error", err)
		}
	}
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

// printResult writes data in the success envelope, or the error envelope
// when err is set.
func printResult(w io.Writer, data any, err error) error {
	if err != nil {
		return printError(w, err)
	}
	return writeJSON(w, integrations.NewSuccessResponse(data))
}

func printError(w io.Writer, err error) error {
	resp := integrations.NewErrorResponse(integrations.ErrorCode(err), integrations.FormatIntegrationError(err))
	if werr := writeJSON(w, resp); werr != nil {
		return werr
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
