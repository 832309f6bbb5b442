package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/rescache"
	"github.com/unkn0wn-root/rescache/resource"
)

var (
	watchStreamKind   string
	watchStreamURL    string
	watchRedisAddr    string
	watchRedisChannel string
)

var watchCmd = &cobra.Command{
	Use:   "watch <resource>",
	Short: "Follow live changes of a resource",
	Long: `Connect to the change stream and print every change of the given
resource as a JSON line until interrupted. The stream reconnects with
backoff when the connection drops.

Examples:
  resctl watch todos --stream-url https://api.example.com/events
  resctl watch todos --stream-kind ws --stream-url wss://api.example.com/ws
  resctl watch todos --stream-kind redis --redis-channel todos.changes`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchStreamKind, "stream-kind", "", "stream kind: sse, ws or redis")
	f.StringVar(&watchStreamURL, "stream-url", "", "SSE or WebSocket endpoint")
	f.StringVar(&watchRedisAddr, "redis-addr", "", "redis address for the redis stream kind")
	f.StringVar(&watchRedisChannel, "redis-channel", "", "redis pub/sub channel")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchStreamKind != "" {
		cfg.Stream.Kind = watchStreamKind
	}
	if watchStreamURL != "" {
		cfg.Stream.URL = watchStreamURL
	}
	if watchRedisAddr != "" {
		cfg.Stream.RedisAddr = watchRedisAddr
	}
	if watchRedisChannel != "" {
		cfg.Stream.RedisChannel = watchRedisChannel
	}

	src, closeSrc, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	res := args[0]
	eng, cleanup, err := buildEngine(cfg, src, res)
	if err != nil {
		return err
	}
	defer cleanup()

	offErr := eng.Events().Subscribe(rescache.EventError, func(ev rescache.Event) {
		fmt.Fprintf(os.Stderr, "stream error: %v\n", ev.Err)
	})
	defer offErr()

	off := eng.Subscribe(res, func(ch resource.Change) {
		line := map[string]any{"type": string(ch.Type), "resource": ch.Resource}
		if ch.ID != "" {
			line["id"] = ch.ID
		}
		if ch.Item != nil {
			line["item"] = ch.Item
		}
		if ch.Patch != nil {
			line["patch"] = ch.Patch
		}
		b, err := json.Marshal(line)
		if err != nil {
			return
		}
		fmt.Println(string(b))
	})
	defer off()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	return nil
}
