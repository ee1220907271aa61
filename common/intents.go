package common

// Intents is the gateway intent bitmask sent in the identify payload. It
// restricts which dispatch events the server delivers to the session.
type Intents uint64

const (
	IntentGuilds Intents = 1 << iota
	IntentGuildMembers
	IntentGuildBans
	IntentGuildEmojis
	IntentGuildIntegrations
	IntentGuildWebhooks
	IntentGuildInvites
	IntentGuildVoiceStates
	IntentGuildPresences
	IntentGuildMessages
	IntentGuildMessageReactions
	IntentGuildMessageTyping
	IntentDirectMessages
	IntentDirectMessageReactions
	IntentDirectMessageTyping
)

// IntentsAll enables every intent, privileged ones included.
const IntentsAll = IntentGuilds | IntentGuildMembers | IntentGuildBans |
	IntentGuildEmojis | IntentGuildIntegrations | IntentGuildWebhooks |
	IntentGuildInvites | IntentGuildVoiceStates | IntentGuildPresences |
	IntentGuildMessages | IntentGuildMessageReactions | IntentGuildMessageTyping |
	IntentDirectMessages | IntentDirectMessageReactions | IntentDirectMessageTyping

// IntentsNonPrivileged enables everything except members and presences.
const IntentsNonPrivileged = IntentsAll &^ (IntentGuildMembers | IntentGuildPresences)

// Has reports whether every bit of other is enabled in i.
func (i Intents) Has(other Intents) bool {
	return i&other == other
}
