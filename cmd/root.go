package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brogergvhs/yandanshe/internal/config"
	"github.com/brogergvhs/yandanshe/internal/providers/yandanshe"
	"github.com/brogergvhs/yandanshe/internal/ui"
	"github.com/brogergvhs/yandanshe/internal/util"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
	flagYAML         bool
	flagRequests     int
	flagPeriod       int
	flagCookie       string
	flagCookieFile   string
	flagUserAgent    string
	flagCFBypass     bool
)

var rootCmd = &cobra.Command{
	Use:           "yandanshe",
	Short:         "Browse and download yandanshe.com comics",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	pf.BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	pf.BoolVar(&flagYAML, "yaml", false, "print results as YAML")
	pf.IntVar(&flagRequests, "requests", 0, "requests allowed per period")
	pf.IntVar(&flagPeriod, "period", 0, "rate limit period in seconds")
	pf.StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	pf.StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	pf.StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	pf.BoolVar(&flagCFBypass, "cloudflare-bypass", false, "mimic a browser TLS handshake")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is everything a command needs to talk to the site.
type session struct {
	cfg      *config.Config
	usedPath string
	log      *ui.Logger
	limiter  *util.Limiter
	fetcher  *util.DocumentFetcher
	src      *yandanshe.Source
}

func newSession(cmd *cobra.Command, opts config.Options) (*session, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = flagDebug
	opts.Cookie = flagCookie
	opts.CookieFile = flagCookieFile
	opts.UserAgent = flagUserAgent
	opts.CloudflareBypass = flagCFBypass

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	logSvc.Debugf("config: %s\n", usedPath)

	limiter := util.NewLimiter(cfg.Requests, time.Duration(cfg.Period)*time.Second)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          30 * time.Second,
		UserAgent:        util.PickUserAgent(cfg.UserAgent),
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		RateLimit:        limiter,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return nil, err
	}

	fetcher := util.NewDocumentFetcher(client)
	src := yandanshe.New(yandanshe.Options{
		Fetcher:     fetcher,
		Settings:    cfg,
		RateLimiter: limiter,
		DebugLogger: logSvc,
	})
	src.Initialize()

	// Flags change the settings of a running source, the same way the
	// host reports an edited preference.
	flags := cmd.Flags()
	if flags.Changed("requests") {
		cfg.Requests = flagRequests
		src.HandleNotification("changeRequests")
	}
	if flags.Changed("period") {
		cfg.Period = flagPeriod
		src.HandleNotification("changePeriod")
	}

	return &session{
		cfg:      cfg,
		usedPath: usedPath,
		log:      logSvc,
		limiter:  limiter,
		fetcher:  fetcher,
		src:      src,
	}, nil
}

// emit prints v as YAML when --yaml is set, otherwise through text.
func emit(w io.Writer, v any, text func(io.Writer)) error {
	if !flagYAML {
		text(w)
		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
