package hostfuncs

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrDenied is returned for outbound requests no network rule allows.
var ErrDenied = errors.New("network access denied")

// NetworkRule allows a set of hosts on a set of ports.
//
// Hosts are doublestar patterns ("api.example.com", "*.internal").
// Ports are single ports ("443"), ranges ("8000-8100") or "*". An empty
// port list allows any port.
type NetworkRule struct {
	Hosts []string `yaml:"hosts" json:"hosts" validate:"required,min=1,dive,required"`
	Ports []string `yaml:"ports" json:"ports"`
}

// DenialHandler is notified whenever a request is denied.
type DenialHandler interface {
	OnDenial(kind string, request any, reason string)
}

// LogDenialHandler logs denials at warn level.
type LogDenialHandler struct {
	Logger *slog.Logger
}

func (h *LogDenialHandler) OnDenial(kind string, request any, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("permission denied", "kind", kind, "request", request, "reason", reason)
}

// NopDenialHandler does nothing.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(kind string, request any, reason string) {}

var (
	_ DenialHandler = (*LogDenialHandler)(nil)
	_ DenialHandler = (*NopDenialHandler)(nil)
)

// PolicyOption configures a NetworkPolicy.
type PolicyOption func(*NetworkPolicy)

// WithDenialHandler sets the handler notified on denials.
func WithDenialHandler(h DenialHandler) PolicyOption {
	return func(p *NetworkPolicy) {
		if h != nil {
			p.onDenial = h
		}
	}
}

// NetworkPolicy is a compiled allow list for outbound requests.
// It is immutable and safe for concurrent use.
type NetworkPolicy struct {
	rules    []compiledNetworkRule
	onDenial DenialHandler
}

type compiledNetworkRule struct {
	hosts []string
	ports []portRange
}

type portRange struct {
	min, max int
}

func (r portRange) contains(port int) bool {
	return port >= r.min && port <= r.max
}

// NewNetworkPolicy compiles rules. Invalid host patterns and port specs are
// errors rather than silently dropped.
func NewNetworkPolicy(rules []NetworkRule, opts ...PolicyOption) (*NetworkPolicy, error) {
	p := &NetworkPolicy{onDenial: &LogDenialHandler{}}
	for _, opt := range opts {
		opt(p)
	}

	for i, rule := range rules {
		var cr compiledNetworkRule
		for _, h := range rule.Hosts {
			if !doublestar.ValidatePattern(h) {
				return nil, fmt.Errorf("rule %d: invalid host pattern %q", i, h)
			}
			cr.hosts = append(cr.hosts, strings.ToLower(h))
		}
		if len(rule.Ports) == 0 {
			cr.ports = []portRange{{0, 65535}}
		}
		for _, spec := range rule.Ports {
			pr, err := parsePortRange(spec)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			cr.ports = append(cr.ports, pr)
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

func parsePortRange(spec string) (portRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "*" {
		return portRange{0, 65535}, nil
	}
	if lo, hi, ok := strings.Cut(spec, "-"); ok {
		minPort, err1 := parsePort(lo)
		maxPort, err2 := parsePort(hi)
		if err1 != nil || err2 != nil || minPort > maxPort {
			return portRange{}, fmt.Errorf("invalid port range %q", spec)
		}
		return portRange{minPort, maxPort}, nil
	}
	port, err := parsePort(spec)
	if err != nil {
		return portRange{}, fmt.Errorf("invalid port %q", spec)
	}
	return portRange{port, port}, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// Allow reports whether some rule matches both host and port.
func (p *NetworkPolicy) Allow(host string, port int) bool {
	host = strings.ToLower(host)
	for _, rule := range p.rules {
		if matchHost(rule.hosts, host) && matchPort(rule.ports, port) {
			return true
		}
	}
	return false
}

func matchHost(patterns []string, host string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, host); matched {
			return true
		}
	}
	return false
}

func matchPort(ranges []portRange, port int) bool {
	for _, pr := range ranges {
		if pr.contains(port) {
			return true
		}
	}
	return false
}

// Check allows or denies a request URL. Without an explicit port the
// scheme's default applies. Denials are reported to the denial handler and
// returned wrapping ErrDenied.
func (p *NetworkPolicy) Check(u *url.URL) error {
	host := u.Hostname()
	port, err := urlPort(u)
	if err != nil {
		p.onDenial.OnDenial("network", u.Host, err.Error())
		return fmt.Errorf("%w: %s: %w", ErrDenied, u.Host, err)
	}
	if !p.Allow(host, port) {
		p.onDenial.OnDenial("network", u.Host, "host/port not allowed")
		return fmt.Errorf("%w: %s:%d", ErrDenied, host, port)
	}
	return nil
}

func urlPort(u *url.URL) (int, error) {
	if raw := u.Port(); raw != "" {
		return parsePort(raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return 443, nil
	case "http":
		return 80, nil
	default:
		return 0, fmt.Errorf("no default port for scheme %q", u.Scheme)
	}
}
