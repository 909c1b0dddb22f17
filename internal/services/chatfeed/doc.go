// Package chatfeed hosts the chat feed server: channels of append-only
// messages exposed as subscribable MCP resources.
package chatfeed
