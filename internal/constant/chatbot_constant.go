package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	DefaultSessionTitle = "New conversation"
	SessionTitleMaxLen  = 60

	// ChatFallbackMessage is sent when the responder fails. It never carries error detail.
	ChatFallbackMessage = "Sorry, I couldn't process that request right now. Please try again in a moment."
)

const (
	// watermill topic for asynchronous memory capture
	MemoryCaptureTopic = "memory.capture"
)
