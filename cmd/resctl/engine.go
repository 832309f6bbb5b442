package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/rescache"
	logzap "github.com/unkn0wn-root/rescache/log/zap"
	"github.com/unkn0wn-root/rescache/push"
	"github.com/unkn0wn-root/rescache/push/redispub"
	"github.com/unkn0wn-root/rescache/push/sse"
	"github.com/unkn0wn-root/rescache/push/websocket"
	"github.com/unkn0wn-root/rescache/store"
	bigcachestore "github.com/unkn0wn-root/rescache/store/bigcache"
	lrustore "github.com/unkn0wn-root/rescache/store/lru"
	redisstore "github.com/unkn0wn-root/rescache/store/redis"
	ristrettostore "github.com/unkn0wn-root/rescache/store/ristretto"
	"github.com/unkn0wn-root/rescache/transport"
	"github.com/unkn0wn-root/rescache/transport/rest"
)

func buildLogger(verbose bool) (rescache.Logger, func()) {
	if !verbose {
		return rescache.NopLogger{}, func() {}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return rescache.NopLogger{}, func() {}
	}
	return logzap.ZapLogger{L: l}, func() { _ = l.Sync() }
}

func buildHeaders(cfg *config) transport.HeaderFunc {
	if cfg.Token == "" {
		return nil
	}
	return func(context.Context) (http.Header, error) {
		h := http.Header{}
		h.Set("Authorization", "Bearer "+cfg.Token)
		return h, nil
	}
}

func buildTransport(cfg *config) (*rest.Client, error) {
	return rest.New(rest.Config{BaseURL: cfg.Endpoint, Headers: buildHeaders(cfg)})
}

func buildStore(cfg *config) (store.Store, error) {
	switch cfg.Cache.Kind {
	case "", "memory":
		return store.NewMemory(), nil
	case "lru":
		return lrustore.New(lrustore.Config{
			ItemsPerResource: cfg.Cache.Items,
			ListsPerResource: cfg.Cache.Lists,
		})
	case "ristretto":
		items := int64(cfg.Cache.Items)
		if items <= 0 {
			items = 4096
		}
		return ristrettostore.New(ristrettostore.Config{
			NumCounters: items * 10,
			MaxCost:     items,
			BufferItems: 64,
		})
	case "bigcache":
		return bigcachestore.New(bigcachestore.Config{})
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Cache.RedisAddr})
		st, err := redisstore.New(redisstore.Config{Client: rdb, CloseClient: true})
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Kind)
	}
}

// buildSource builds the push source for watch. The returned func releases
// whatever the source keeps open besides its connections.
func buildSource(cfg *config) (push.Source, func(), error) {
	noop := func() {}
	switch cfg.Stream.Kind {
	case "", "sse":
		if cfg.Stream.URL == "" {
			return nil, noop, errors.New("stream url is required (--stream-url or RESCTL_STREAM_URL)")
		}
		src, err := sse.New(sse.Config{URL: cfg.Stream.URL, Headers: buildHeaders(cfg)})
		return src, noop, err
	case "ws":
		if cfg.Stream.URL == "" {
			return nil, noop, errors.New("stream url is required (--stream-url or RESCTL_STREAM_URL)")
		}
		src, err := websocket.New(websocket.Config{URL: cfg.Stream.URL, Headers: buildHeaders(cfg)})
		return src, noop, err
	case "redis":
		if cfg.Stream.RedisChannel == "" {
			return nil, noop, errors.New("redis channel is required (--redis-channel or RESCTL_STREAM_REDIS_CHANNEL)")
		}
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Stream.RedisAddr})
		src, err := redispub.New(redispub.Config{Client: rdb, Channel: cfg.Stream.RedisChannel})
		if err != nil {
			_ = rdb.Close()
			return nil, noop, err
		}
		return src, func() { _ = rdb.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown stream kind %q", cfg.Stream.Kind)
	}
}

// buildEngine wires transport, store and (for watch) the push source into
// an engine. The returned func closes the engine and flushes the logger.
func buildEngine(cfg *config, src push.Source, watch string) (rescache.Engine, func(), error) {
	log, flush := buildLogger(cfg.Verbose)

	st, err := buildStore(cfg)
	if err != nil {
		flush()
		return nil, nil, err
	}
	tp, err := buildTransport(cfg)
	if err != nil {
		_ = st.Close()
		flush()
		return nil, nil, err
	}

	eng, err := rescache.New(rescache.Options{
		Transport:    tp,
		Store:        st,
		Push:         src,
		PushResource: watch,
		Logger:       log,
		PrimaryKey:   cfg.PrimaryKey,
	})
	if err != nil {
		_ = st.Close()
		flush()
		return nil, nil, err
	}
	return eng, func() { _ = eng.Close(); flush() }, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// readJSONArg parses an inline JSON object, or stdin when arg is "-".
func readJSONArg(arg string) (map[string]any, error) {
	raw := []byte(arg)
	if arg == "-" {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return m, nil
}

// parseFilters turns repeated field=value flags into a filter map. Values
// stay strings; the transport sends them through as-is.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("filter %q is not field=value", p)
		}
		out[k] = v
	}
	return out, nil
}
