// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Feed errors
	CodeFeedSubscribe Code = "FEED_SUBSCRIBE_FAILED"
	CodeFeedRead      Code = "FEED_READ_FAILED"
	CodeFeedPublish   Code = "FEED_PUBLISH_FAILED"

	// Entry errors
	CodeEntryInvalid Code = "ENTRY_VALIDATION_FAILED"

	// Generation errors
	CodeGenerate Code = "GENERATION_FAILED"

	// Chat feed errors
	CodeChannelNotFound   Code = "CHANNEL_NOT_FOUND"
	CodeChannelNameEmpty  Code = "CHANNEL_NAME_EMPTY"
	CodeAuthorEmpty       Code = "AUTHOR_EMPTY"
	CodeAuthorReserved    Code = "AUTHOR_RESERVED"
	CodeMessageEmpty      Code = "MESSAGE_EMPTY"
	CodeRoomRefEmpty      Code = "ROOM_REF_EMPTY"
	CodeRoomRefUnresolved Code = "ROOM_REF_UNRESOLVED"

	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// Retryable reports whether a failure with this code may succeed if the
// caller tries again later with no other change.
func (c Code) Retryable() bool {
	switch c {
	case CodeFeedSubscribe,
		CodeFeedRead,
		CodeFeedPublish,
		CodeGenerate:
		return true
	default:
		return false
	}
}
