package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingdeck/pingdeck/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override pingdeck config path (optional)")
	prefsPath := flag.String("prefs", "", "override view-state file path (optional)")
	apiBase := flag.String("api", "", "override tower API address (optional)")
	wsURL := flag.String("ws", "", "override dashboard websocket URL (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		APIBase:    *apiBase,
		WSURL:      *wsURL,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "pingdeck: %v\n", err)
		return 1
	}
	return 0
}
