package realtime

// BroadcastChannel carries presence changes to every connected user. The
// "users-" prefix can never collide with a personal channel ("user-").
const BroadcastChannel = "users-all"

const userChannelPrefix = "user-"

// UserChannel is the personal channel of userID. One per user, derived,
// never stored.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}
