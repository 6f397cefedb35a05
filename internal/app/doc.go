// Package app provides the orchestration layer for the pingdeck
// application.
//
// # Overview
//
// This package wires together configuration, the push channel, the
// configuration cache, view-state persistence, and the UI. It is the
// composition root where all dependencies are constructed and owned.
//
// # Architecture
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        read ~/.config/pingdeck/config.toml
//	       ├─────> prefs.Open()         restore persisted view state
//	       ├─────> tower.NewClient()    REST client for site configuration
//	       ├─────> state.NewLiveStore() live-status collection
//	       ├─────> state.NewSiteStore() CRUD cache
//	       ├─────> push.NewManager()    websocket channel -> live store
//	       ├─────> manager.Connect()    begin receiving snapshots/updates
//	       ├─────> sites.Fetch()        pre-populate the configuration cache
//	       └─────> ui.Run()             start TUI (blocks)
//
// The push manager is explicitly constructed here and handed to the UI;
// its Disconnect runs on the way out so no reconnect timer or transport
// outlives the dashboard.
package app
