package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	glog "github.com/labstack/gommon/log"

	"github.com/eringen/nextimage"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	addr            = flag.String("addr", ":3000", "network address to bind HTTP to")
	staticDir       = flag.String("static-dir", "", "serve public assets from this directory instead of the embedded ones")
	imageQuality    = flag.Int("image-quality", 75, "default quality for optimized images (1-100)")
	minimumCacheTTL = flag.Duration("minimum-cache-ttl", 60*time.Second, "how long optimized variants are cached and may be reused by clients")
	cacheEntries    = flag.Int("cache-entries", 256, "maximum optimized variants held in memory")
	imageRateLimit  = flag.Int("image-rate-limit", 120, "optimizer requests per client IP per minute, negative disables")
	disableMetrics  = flag.Bool("disable-metrics", false, "do not serve Prometheus metrics on /metrics")
	logLevel        = flag.String("log-level", "INFO", "logging level: DEBUG, INFO, WARN, ERROR, OFF")
)

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		parseFlags(args)
		if err := serve(); err != nil {
			log.Fatal(err)
		}
	case "render":
		parseFlags(args)
		if err := render(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("nextimage %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func parseFlags(args []string) {
	flagenv.Parse()
	if err := flag.CommandLine.Parse(args); err != nil {
		os.Exit(2)
	}
}

func newApp() *nextimage.App {
	cfg := nextimage.Config{
		Addr:            *addr,
		ImageRateLimit:  *imageRateLimit,
		MetricsDisabled: *disableMetrics,
	}
	cfg.Image.Quality = *imageQuality
	cfg.Image.MinimumCacheTTL = *minimumCacheTTL
	cfg.Image.CacheEntries = *cacheEntries

	var opts []nextimage.Option
	if *staticDir != "" {
		opts = append(opts, nextimage.WithStaticDir(*staticDir))
	}
	app := nextimage.New(cfg, opts...)
	app.Echo.Logger.SetLevel(parseLevel(*logLevel))
	return app
}

func serve() error {
	app := newApp()
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Echo.Logger.Infof("listening on %s", *addr)
	return app.Start(ctx)
}

// render writes the home page to stdout, the same bytes GET / returns.
func render() error {
	app := newApp()
	defer app.Close()
	if err := app.Setup(); err != nil {
		return err
	}
	body, err := app.HomeHTML(context.Background())
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(body)
	return err
}

func parseLevel(s string) glog.Lvl {
	switch s {
	case "DEBUG", "debug":
		return glog.DEBUG
	case "WARN", "warn":
		return glog.WARN
	case "ERROR", "error":
		return glog.ERROR
	case "OFF", "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}

func printUsage() {
	fmt.Println(`nextimage - a one-page site with on-demand image optimization

Usage:
  nextimage [command] [flags]

Commands:
  serve      Serve the site over HTTP (default)
  render     Print the home page HTML to stdout
  version    Print the nextimage version
  help       Show this help message

Every flag can also be set through the environment, e.g. ADDR=:8080 or
STATIC_DIR=./public.

Flags:`)
	flag.PrintDefaults()
}
