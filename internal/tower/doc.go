// Package tower provides the HTTP client and shared entity types for the
// control tower API.
//
// # Overview
//
// This package defines the configuration (CRUD) client for the tower's REST
// surface and the canonical data types shared between that client, the push
// channel, and the stores. It handles HTTP communication, JSON serialization,
// and error classification.
//
// # Architecture
//
// The package is split into two files:
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the tower API schema
//
// ServiceStatus is the single canonical live entity. The push channel's
// legacy abbreviated wire shape is decoded by an adapter in the push
// package and never leaks past the transport boundary.
//
// # Client Usage
//
// Create a client using the API base address from configuration:
//
//	client, err := tower.NewClient("127.0.0.1:8080")
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	sites, err := client.ListSites(ctx)
//	if err != nil {
//		log.Printf("site list failed: %v", err)
//	}
//
// # API Endpoints
//
//   - GET    /api/services          list configured sites
//   - GET    /api/services/{id}     fetch one site
//   - POST   /api/services          create a site (tower assigns the id)
//   - PUT    /api/services/{id}     partial update
//   - DELETE /api/services/{id}     remove a site
//   - POST   /api/services/{id}/run schedule an immediate check
//
// # Error Handling
//
// A 404 from any per-site endpoint is wrapped around ErrNotFound so callers
// can branch with errors.Is. Other non-2xx responses surface as status
// errors. Decode failures are wrapped with "decode response" context. The
// client never retries; retry policy belongs to the caller.
package tower
