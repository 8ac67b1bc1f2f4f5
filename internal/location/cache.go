package location

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/nao1215/httpsdash/internal/model"
	"github.com/oschwald/geoip2-golang"
)

// GeoDB looks up the city of an IP address. *geoip2.Reader implements it.
type GeoDB interface {
	City(ip net.IP) (*geoip2.City, error)
}

// OpenGeoDB opens a GeoIP2 or GeoLite2 City database file.
func OpenGeoDB(path string) (*geoip2.Reader, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return reader, nil
}

// Cache remembers the location of every host it has looked up. It is safe
// for concurrent use.
type Cache struct {
	geo      GeoDB
	resolver Resolver
	logger   *slog.Logger

	mu        sync.Mutex
	hints     map[string]string
	locations map[string]string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithResolver sets the resolver for hosts without a recorded address.
func WithResolver(r Resolver) CacheOption {
	return func(c *Cache) {
		c.resolver = r
	}
}

// WithLogger sets the logger for failed lookups.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a Cache on geo. A nil geo makes every lookup return "".
func NewCache(geo GeoDB, opts ...CacheOption) *Cache {
	c := &Cache{
		geo:       geo,
		logger:    slog.Default(),
		hints:     make(map[string]string),
		locations: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed records the server addresses the captures saw for their hosts.
func (c *Cache) Seed(records ...*model.CaptureRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, obj := range rec.Objects {
			if obj.Host != "" && obj.ServerIP != "" {
				c.hints[obj.Host] = obj.ServerIP
			}
		}
	}
}

// Lookup returns "City, Country" for host, or "" when it is unknown. ip is
// used when non-empty; otherwise a seeded address or the resolver is.
func (c *Cache) Lookup(ctx context.Context, host, ip string) string {
	if host == "" || c.geo == nil {
		return ""
	}

	c.mu.Lock()
	if loc, ok := c.locations[host]; ok {
		c.mu.Unlock()
		return loc
	}
	if ip == "" {
		ip = c.hints[host]
	}
	c.mu.Unlock()

	loc := c.lookup(ctx, host, ip)

	c.mu.Lock()
	c.locations[host] = loc
	c.mu.Unlock()
	return loc
}

// LocateFunc adapts the cache to a host-only lookup bound to ctx.
func (c *Cache) LocateFunc(ctx context.Context) func(host string) string {
	return func(host string) string {
		return c.Lookup(ctx, host, "")
	}
}

func (c *Cache) lookup(ctx context.Context, host, ip string) string {
	name := hostname(host)
	addr := net.ParseIP(ip)
	if addr == nil {
		addr = net.ParseIP(name)
	}
	if addr == nil && c.resolver != nil {
		resolved, err := c.resolver.LookupIP(ctx, name)
		if err != nil {
			c.logger.Debug("failed to resolve origin", "host", host, "error", err)
			return ""
		}
		addr = resolved
	}
	if addr == nil {
		return ""
	}

	city, err := c.geo.City(addr)
	if err != nil {
		c.logger.Debug("geoip lookup failed", "host", host, "ip", addr.String(), "error", err)
		return ""
	}
	return Format(city)
}

// Format renders the English city and country names, or "" without a city.
func Format(city *geoip2.City) string {
	if city == nil {
		return ""
	}
	name := city.City.Names["en"]
	if name == "" {
		return ""
	}
	return name + ", " + city.Country.Names["en"]
}
