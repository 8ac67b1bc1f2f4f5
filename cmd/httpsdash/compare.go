package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nao1215/httpsdash/internal/capture"
	"github.com/nao1215/httpsdash/internal/classify"
	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/location"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <capture1> <capture2>",
		Short: "Compare two captures of a site object by object",
		Long: `Compare prints how the objects of one site were fetched over HTTP and over
HTTPS. The capture whose page URL is not https is taken as the HTTP side,
so the arguments can be given in any order.

Each object row is marked:
  (blank)  fetched from the same origin over both protocols
  <<<      fetched only over HTTP
  >>>      fetched only over HTTPS
  ***      fetched from different origins

With --locations every row is followed by the city and country of the
origins, looked up in a GeoIP2 City database. Server addresses recorded in
the captures are used when present; other hosts are resolved over DNS.

Examples:
  # Compare two captures
  httpsdash compare http---example.com.har https---example.com.har

  # Include origin locations
  httpsdash compare --locations --geoip-db GeoLite2-City.mmdb a.har b.har`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("locations", "l", false,
		"Print the location of every origin")
	cmd.Flags().String("geoip-db", "",
		"GeoIP2 or GeoLite2 City database used by --locations")
	cmd.Flags().String("dns-server", "",
		"DNS server used by --locations, host[:port] (default: from /etc/resolv.conf)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	var err error
	if cfg.Locations, err = cmd.Flags().GetBool("locations"); err != nil {
		return err
	}
	if cfg.GeoIPDB, err = cmd.Flags().GetString("geoip-db"); err != nil {
		return err
	}
	if cfg.DNSServer, err = cmd.Flags().GetString("dns-server"); err != nil {
		return err
	}
	file, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	cfg.ApplyFile(file, cmd.Flags().Changed)

	logger, closeLog, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return runCompare(ctx, cmd, cfg, args[0], args[1], logger)
}

// runCompare loads both captures and prints the comparison. Unlike a
// directory run, an unreadable capture fails the command.
func runCompare(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path1, path2 string, logger *slog.Logger) error {
	first, err := capture.Load(path1)
	if err != nil {
		return err
	}
	second, err := capture.Load(path2)
	if err != nil {
		return err
	}

	cmp, err := classify.Compare(classify.OrderByScheme(first, second))
	if err != nil {
		return err
	}

	var opts []report.SimpleWriterOption
	if cfg.Locations {
		cache, closeGeo := newLocationCache(cfg, logger, first, second)
		defer closeGeo()
		opts = append(opts, report.WithLocations(cache.LocateFunc(ctx)))
	}

	_, err = report.NewSimpleWriter(cmd.OutOrStdout(), opts...).WriteComparison(&report.ComparisonReport{
		First:      first,
		Second:     second,
		Comparison: cmp,
	})
	return err
}

// newLocationCache creates the per-command location cache. A missing GeoIP
// database or resolver only leaves locations empty.
func newLocationCache(cfg *config.Config, logger *slog.Logger, records ...*model.CaptureRecord) (*location.Cache, func()) {
	closeGeo := func() {}
	var geo location.GeoDB
	if cfg.GeoIPDB == "" {
		logger.Warn("no GeoIP database configured, locations will be empty")
	} else if reader, err := location.OpenGeoDB(cfg.GeoIPDB); err != nil {
		logger.Warn("GeoIP database unavailable", "path", cfg.GeoIPDB, "error", err)
	} else {
		geo = reader
		closeGeo = func() { _ = reader.Close() }
	}

	cacheOpts := []location.CacheOption{location.WithLogger(logger)}
	resolverOpts := []location.ResolverOption{
		location.WithRateLimit(config.DefaultDNSQueriesPerSecond, config.DefaultDNSQueriesPerSecond),
	}
	if cfg.DNSServer != "" {
		resolverOpts = append(resolverOpts, location.WithServer(cfg.DNSServer))
	}
	if resolver, err := location.NewDNSResolver(resolverOpts...); err != nil {
		logger.Warn("DNS resolver unavailable, using recorded server addresses only", "error", err)
	} else {
		logger.Debug("resolving origins", "server", resolver.Server())
		cacheOpts = append(cacheOpts, location.WithResolver(resolver))
	}

	cache := location.NewCache(geo, cacheOpts...)
	cache.Seed(records...)
	return cache, closeGeo
}
