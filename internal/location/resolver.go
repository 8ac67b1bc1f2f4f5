package location

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"
)

// DefaultResolvConf is read when no DNS server is configured.
const DefaultResolvConf = "/etc/resolv.conf"

// DefaultQueryTimeout bounds one DNS exchange.
const DefaultQueryTimeout = 5 * time.Second

// DefaultQueriesPerSecond limits the DNS query rate.
const DefaultQueriesPerSecond = 20

// ErrNoAddress is returned when a name has no A record.
var ErrNoAddress = errors.New("no address record")

// Resolver maps a host name to an IP address.
type Resolver interface {
	LookupIP(ctx context.Context, host string) (net.IP, error)
}

// DNSResolver queries A records from one DNS server.
type DNSResolver struct {
	server  string
	client  *dns.Client
	limiter *rate.Limiter
}

// ResolverOption configures a DNSResolver.
type ResolverOption func(*DNSResolver)

// WithServer sets the DNS server as "host:port". A server without a port
// uses port 53.
func WithServer(server string) ResolverOption {
	return func(r *DNSResolver) {
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		r.server = server
	}
}

// WithRateLimit sets the maximum number of queries per second.
func WithRateLimit(qps float64, burst int) ResolverOption {
	return func(r *DNSResolver) {
		r.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithQueryTimeout sets the timeout of one DNS exchange.
func WithQueryTimeout(d time.Duration) ResolverOption {
	return func(r *DNSResolver) {
		r.client.Timeout = d
	}
}

// NewDNSResolver creates a DNSResolver. Without WithServer the first
// nameserver of /etc/resolv.conf is used.
func NewDNSResolver(opts ...ResolverOption) (*DNSResolver, error) {
	r := &DNSResolver{
		client:  &dns.Client{Net: "udp", Timeout: DefaultQueryTimeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultQueriesPerSecond), DefaultQueriesPerSecond),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.server == "" {
		conf, err := dns.ClientConfigFromFile(DefaultResolvConf)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", DefaultResolvConf, err)
		}
		if len(conf.Servers) == 0 {
			return nil, fmt.Errorf("%s lists no nameserver", DefaultResolvConf)
		}
		r.server = net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return r, nil
}

// Server returns the queried DNS server.
func (r *DNSResolver) Server() string {
	return r.server
}

// LookupIP returns the first A record of host. A port on host is ignored.
// IP literals are returned as they are.
func (r *DNSResolver) LookupIP(ctx context.Context, host string) (net.IP, error) {
	host = hostname(host)
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", host, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("query %s: %s", host, dns.RcodeToString[resp.Rcode])
	}
	for _, answer := range resp.Answer {
		if a, ok := answer.(*dns.A); ok {
			return a.A, nil
		}
	}
	return nil, fmt.Errorf("query %s: %w", host, ErrNoAddress)
}

// hostname drops the port and IPv6 brackets from an origin host.
func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}
