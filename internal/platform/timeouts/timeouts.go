// Package timeouts defines shared timeout constants used by the feed
// adapters and commands. The reconciliation core applies no timeouts of its
// own; every bound lives at a transport or provider boundary.
package timeouts

import "time"

// FeedConnect caps the MCP initialize handshake with the feed server.
const FeedConnect = 10 * time.Second

// FeedRequest caps a single subscribe, read, or publish call on the feed.
const FeedRequest = 15 * time.Second

// Generate caps a single reply generation call to a model provider.
const Generate = 60 * time.Second

// ReadHeader limits how long the chatfeed HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful shutdown.
const Shutdown = 5 * time.Second
