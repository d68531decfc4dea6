package cli

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/kvcache"
	"github.com/unkn0wn-root/kvcache/codec"
	kvzap "github.com/unkn0wn-root/kvcache/log/zap"
	pr "github.com/unkn0wn-root/kvcache/provider"
	"github.com/unkn0wn-root/kvcache/provider/bbolt"
	"github.com/unkn0wn-root/kvcache/provider/bigcache"
	"github.com/unkn0wn-root/kvcache/provider/redis"
	"github.com/unkn0wn-root/kvcache/provider/ristretto"
)

// Defaults.
const (
	DefaultBackend  = "bbolt"
	DefaultCodec    = "json"
	DefaultPath     = "kvcache.db"
	DefaultLogLevel = "warn"
	redisPort       = 6379
)

// backends maps --backend values to dialers.
var backends = map[string]pr.Dialer{
	"redis":     redis.Dial,
	"ristretto": ristretto.Dial,
	"bigcache":  bigcache.Dial,
	"bbolt":     bbolt.Dial,
}

func backendNames() string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, " or ")
}

// inMemory lists backends whose records live in the process; each CLI run starts
// with an empty store, so a set is never visible to a later get.
var inMemory = []string{"bigcache", "ristretto"}

func backendUsage() string {
	return "Store backend: " + backendNames() + " (" + strings.Join(inMemory, " and ") +
		" are in-memory: records do not outlive a single invocation)"
}

// Config is the resolved CLI configuration (file, env, flags).
type Config struct {
	Backend   string   `mapstructure:"backend"`
	Hosts     []string `mapstructure:"hosts"`
	Partition string   `mapstructure:"partition"`
	Segment   string   `mapstructure:"segment"`
	Path      string   `mapstructure:"path"`
	Password  string   `mapstructure:"password"`
	DB        int      `mapstructure:"db"`
	Codec     string   `mapstructure:"codec"`
	MaxBytes  int      `mapstructure:"max-item-bytes"`
	LogLevel  string   `mapstructure:"log-level"`
}

// parseHosts accepts "host:port" and bare "host" (port defaults to defPort).
func parseHosts(raw []string, defPort int) ([]pr.Host, error) {
	var out []pr.Host
	for _, entry := range raw {
		for _, s := range strings.Split(entry, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			host, portStr, err := net.SplitHostPort(s)
			if err != nil {
				// no port
				out = append(out, pr.Host{Addr: strings.Trim(s, "[]"), Port: defPort})
				continue
			}
			port, err := strconv.Atoi(portStr)
			if err != nil || port <= 0 || port > 65535 {
				return nil, fmt.Errorf("invalid port in host %q", s)
			}
			out = append(out, pr.Host{Addr: host, Port: port})
		}
	}
	return out, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// options validates cfg and turns it into adapter Options.
func (c Config) options(log *zap.Logger) (kvcache.Options, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dial, ok := backends[strings.ToLower(c.Backend)]
	if !ok {
		return kvcache.Options{}, fmt.Errorf("unknown backend %q (want %s)", c.Backend, backendNames())
	}
	itemCodec, err := codec.ByName(c.Codec)
	if err != nil {
		return kvcache.Options{}, err
	}
	hosts, err := parseHosts(c.Hosts, redisPort)
	if err != nil {
		return kvcache.Options{}, err
	}
	if len(hosts) == 0 && strings.EqualFold(c.Backend, "redis") {
		hosts = []pr.Host{{Addr: "127.0.0.1", Port: redisPort}}
	}

	store := map[string]any{"path": c.Path}
	if c.Password != "" {
		store["password"] = c.Password
	}
	if c.DB != 0 {
		store["db"] = c.DB
	}

	return kvcache.Options{
		Dialer:       dial,
		Hosts:        hosts,
		Partition:    c.Partition,
		Segment:      c.Segment,
		StoreOptions: store,
		Codec:        itemCodec,
		MaxItemBytes: c.MaxBytes,
		Logger:       kvzap.New(log),
	}, nil
}

// open builds and starts an adapter; the caller stops it.
func (c Config) open(ctx context.Context, log *zap.Logger) (*kvcache.Adapter, error) {
	opts, err := c.options(log)
	if err != nil {
		return nil, err
	}
	a, err := kvcache.New(opts)
	if err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
