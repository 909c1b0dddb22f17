package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
const (
	CodeChannelNotFound   = "CHANNEL_NOT_FOUND"
	CodeChannelNameEmpty  = "CHANNEL_NAME_EMPTY"
	CodeAuthorEmpty       = "AUTHOR_EMPTY"
	CodeAuthorReserved    = "AUTHOR_RESERVED"
	CodeMessageEmpty      = "MESSAGE_EMPTY"
	CodeRoomRefEmpty      = "ROOM_REF_EMPTY"
	CodeRoomRefUnresolved = "ROOM_REF_UNRESOLVED"
)

var enUS = map[Code]string{
	CodeChannelNotFound:   "channel {{.channel}} was not found",
	CodeChannelNameEmpty:  "channel name is required",
	CodeAuthorEmpty:       "author is required",
	CodeAuthorReserved:    "author {{.author}} is reserved for agent replies",
	CodeMessageEmpty:      "message content is required",
	CodeRoomRefEmpty:      "roomRef is required",
	CodeRoomRefUnresolved: "unknown roomRef {{.room_ref}}",
}

var ptBR = map[Code]string{
	CodeChannelNotFound:   "o canal {{.channel}} não foi encontrado",
	CodeChannelNameEmpty:  "o nome do canal é obrigatório",
	CodeAuthorEmpty:       "o autor é obrigatório",
	CodeAuthorReserved:    "o autor {{.author}} é reservado para respostas do agente",
	CodeMessageEmpty:      "o conteúdo da mensagem é obrigatório",
	CodeRoomRefEmpty:      "roomRef é obrigatório",
	CodeRoomRefUnresolved: "roomRef desconhecido {{.room_ref}}",
}
