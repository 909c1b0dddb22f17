// Package feedproto names the MCP resources, tools, and metadata keys shared
// by the chat feed server and the agent's feed client.
package feedproto

import (
	"fmt"
	"strings"
)

const (
	// ChannelURITemplate addresses the message list of one channel.
	ChannelURITemplate = "chat://channel/{channel}/messages"
	// DefaultChannel is the channel the agent watches when none is configured.
	DefaultChannel = "general"
	// DefaultFeedURI is the message list of DefaultChannel.
	DefaultFeedURI = "chat://channel/general/messages"

	// MetaRoomRef is the _meta key carrying the destination reference on
	// resource reads and resource update notifications.
	MetaRoomRef = "roomRef"
	// MetaLocale is the _meta key a tool caller uses to pick the language of
	// error messages.
	MetaLocale = "locale"

	// ToolSendMessage publishes a reply to a room reference.
	ToolSendMessage = "send_message"
	// ToolPostMessage appends a message to a named channel.
	ToolPostMessage = "post_message"

	// AgentAuthor is the author recorded for messages sent with ToolSendMessage.
	AgentAuthor = "Agent"

	// MIMEType is the media type of channel message lists.
	MIMEType = "application/json"
)

const (
	channelURIPrefix = "chat://channel/"
	channelURISuffix = "/messages"
)

// ChannelURI returns the message list URI for channel.
func ChannelURI(channel string) string {
	return channelURIPrefix + channel + channelURISuffix
}

// ParseChannelURI extracts the channel name from a message list URI.
func ParseChannelURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, channelURIPrefix) || !strings.HasSuffix(uri, channelURISuffix) {
		return "", fmt.Errorf("uri %q does not match %s", uri, ChannelURITemplate)
	}
	channel := strings.TrimSuffix(strings.TrimPrefix(uri, channelURIPrefix), channelURISuffix)
	if channel == "" || strings.Contains(channel, "/") {
		return "", fmt.Errorf("uri %q has an invalid channel segment", uri)
	}
	return channel, nil
}

// RoomRefFromMeta returns the string stored under MetaRoomRef, or empty.
func RoomRefFromMeta(meta map[string]any) string {
	return metaString(meta, MetaRoomRef)
}

// LocaleFromMeta returns the string stored under MetaLocale, or empty.
func LocaleFromMeta(meta map[string]any) string {
	return metaString(meta, MetaLocale)
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	value, ok := meta[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
