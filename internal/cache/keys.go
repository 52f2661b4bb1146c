package cache

// Every cache key in the system is built here. Nothing else concatenates
// key strings, so the pair key below cannot be built in two orders.

const (
	// AllUsersKey holds every user record, ordered by display name.
	AllUsersKey = "user:all"

	// ContactsKey holds the public directory (profiles of every user).
	ContactsKey = "contacts:all"
)

// UserKey is the entry for a single user, looked up by username.
// The username "all" is reserved so it can never alias AllUsersKey.
func UserKey(username string) string {
	return "user:" + username
}

// ConversationKey is the entry for the message history between a and b.
// The pair is unordered: ConversationKey(a, b) == ConversationKey(b, a).
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "messages:" + a + ":" + b
}

// ConversationVersionKey counts writes to the ConversationKey entry of the
// same pair. It outlives deletions of the list itself.
func ConversationVersionKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "messages-version:" + a + ":" + b
}
