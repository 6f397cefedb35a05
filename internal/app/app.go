package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pingdeck/pingdeck/internal/config"
	"github.com/pingdeck/pingdeck/internal/prefs"
	"github.com/pingdeck/pingdeck/internal/push"
	"github.com/pingdeck/pingdeck/internal/state"
	"github.com/pingdeck/pingdeck/internal/tower"
	"github.com/pingdeck/pingdeck/internal/ui"
)

// Options configure the pingdeck application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/pingdeck/state.json
	APIBase    string // override config api_base
	WSURL      string // override config ws_url
}

// Run boots the pingdeck TUI until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(opts.WSURL); v != "" {
		cfg.WSURL = v
	}

	store := prefs.Open(opts.PrefsPath)

	client, err := tower.NewClient(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("init tower client: %w", err)
	}

	live := state.NewLiveStore()
	sites := state.NewSiteStore(client)

	manager, err := push.NewManager(push.Options{
		URL:                  cfg.WSURL,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		HeartbeatInterval:    cfg.HeartbeatInterval,
	}, state.NewStatusMirror(live, sites))
	if err != nil {
		return fmt.Errorf("init push manager: %w", err)
	}

	sub := manager.Subscribe(func(ev push.Event) {
		if ev.Kind == push.EventStateChanged && ev.State == push.StateError {
			log.Printf("push channel: %s", ev.Error)
		}
	})
	defer sub.Cancel()

	manager.Connect()
	// Disconnect must run even on a panic path: a leaked reconnect
	// timer would keep dialing against a torn-down consumer.
	defer manager.Disconnect()

	// Populate the configuration cache before the UI starts; a failure
	// here is already recorded in the store and shown on screen.
	_ = sites.Fetch(ctx)

	return ui.Run(ui.Options{
		Context: ctx,
		Sites:   sites,
		Live:    live,
		Push:    manager,
		Prefs:   store,
	})
}
