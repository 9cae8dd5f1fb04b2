package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"sugarcal/internal/cache"
	"sugarcal/internal/config"
	"sugarcal/internal/controller"
	"sugarcal/internal/gateway"
	"sugarcal/internal/kvstore"
	appLog "sugarcal/internal/log"
	"sugarcal/internal/recurring"
	"sugarcal/internal/store"
	"sugarcal/internal/tui"
	"sugarcal/internal/view"
)

type flagConfig struct {
	configPath string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("sugarcal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"provider", conf.Provider,
		"cache_backend", conf.Cache.Backend,
		"cache_ttl_s", conf.Cache.TTLSeconds,
		"window_months", conf.WindowMonths,
		"refresh", conf.RefreshCron,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("fatal", err)
		os.Exit(1)
	}
	appLog.Info("sugarcal exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	kv, err := openKV(conf)
	if err != nil {
		return fmt.Errorf("open cache backend: %w", err)
	}
	defer kv.Close()

	gw, err := openGateway(ctx, conf)
	if err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	table, err := conf.RecurringTable()
	if err != nil {
		return fmt.Errorf("recurring config: %w", err)
	}

	ctrl := controller.New(
		recurring.NewGenerator(table),
		store.New(),
		gw,
		cache.New(kv, conf.TTL()),
		controller.WithSpanMonths(conf.WindowMonths),
		controller.WithUpcoming(conf.Upcoming.Limit, conf.Upcoming.LookaheadDays),
	)

	if flags.once {
		return runOnce(ctx, ctrl)
	}

	prog := tea.NewProgram(tui.New(ctrl, logNavigator{}), tea.WithAltScreen())

	var sched *cron.Cron
	if conf.RefreshCron != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(conf.RefreshCron, func() {
			prog.Send(tui.RefreshRequestMsg{})
		}); err != nil {
			return fmt.Errorf("refresh schedule %q: %w", conf.RefreshCron, err)
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		<-ctx.Done()
		prog.Quit()
	}()

	_, err = prog.Run()
	return err
}

// runOnce fetches synchronously and prints the plain views, for
// scripting and piped output.
func runOnce(ctx context.Context, ctrl *controller.Controller) error {
	if req := ctrl.Activate(); req != nil {
		events, err := ctrl.Fetch(ctx, req)
		ctrl.ApplyFetch(req, events, err)
	}

	fmt.Print(view.PlainMonth(ctrl.Grid()))
	fmt.Println()
	fmt.Print(view.PlainUpcoming(ctrl.Upcoming()))
	if ctrl.State() == controller.StateError {
		appLog.Warn("external events unavailable", "error", ctrl.Err())
		fmt.Println(view.LoadFailedMessage)
	}
	return nil
}

func openKV(conf *config.Config) (kvstore.Store, error) {
	switch conf.Cache.Backend {
	case config.CacheBackendSQLite:
		return kvstore.NewSQLiteStore(conf.Cache.Path)
	default:
		return kvstore.NewFileStore(conf.Cache.Path)
	}
}

func openGateway(ctx context.Context, conf *config.Config) (gateway.Gateway, error) {
	switch conf.Provider {
	case config.ProviderGoogle:
		return gateway.NewGoogle(ctx, conf.Google.CalendarID, conf.Google.APIKey, conf.Google.MaxResults)
	case config.ProviderICS:
		return gateway.NewICSFeed(conf.ICS.URL, &http.Client{Timeout: 30 * time.Second})
	default:
		return nil, nil
	}
}

// logNavigator is the default Navigator: there is no surrounding
// page to scroll, so the dispatch is just logged.
type logNavigator struct{}

func (logNavigator) NavigateTo(section string) error {
	appLog.Info("navigate", "section", section)
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Print the calendar once and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/sugarcal/config.yaml"
	}
	return "config.yaml"
}
