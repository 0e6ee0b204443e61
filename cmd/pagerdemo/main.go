// Command pagerdemo scrolls a film catalogue through the pagers of
// windowpager and prints what each one publishes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/zhangzqs/windowpager-go/internal/config"
	"github.com/zhangzqs/windowpager-go/internal/logctx"
	"github.com/zhangzqs/windowpager-go/source/localstore"
)

var (
	configFile string
	cfg        *config.Config
	logFile    *os.File
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagerdemo",
	Short: "Scroll a film catalogue through windowed pagers",
	Long: `Seeds a film catalogue, puts a simulated network in front of it and drives
one of the pagers over it, printing every published window.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		return setupLogging(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./pagerdemo.yaml)")
	rootCmd.AddCommand(simpleCmd, filterCmd, jumpCmd, raceCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogging(lc config.LogConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(lc.Level))); err != nil {
		return errors.Wrapf(err, "log level %q", lc.Level)
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		logFile = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}
	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)).With(slog.String("service", "pagerdemo")))
	return nil
}

// openStore opens and seeds the catalogue when it is empty.
func openStore(ctx context.Context) (*localstore.Store, error) {
	store, err := localstore.Open(cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	n, err := store.Count(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if n == 0 {
		logctx.FromContext(ctx).Info("seeding catalogue", slog.Int("films", cfg.Store.Seed))
		if err := store.Seed(ctx, cfg.Store.Seed); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// drainErrors logs load failures until the pager is destroyed.
func drainErrors(errs <-chan error) {
	go func() {
		for err := range errs {
			slog.Warn("load failed", slog.Any("error", err))
		}
	}()
}

func describe(films []localstore.Film) string {
	if len(films) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d films, #%d..#%d", len(films), films[0].Number, films[len(films)-1].Number)
}
