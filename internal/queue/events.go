package queue

// Exchange is the topic exchange all auth events are published to.
const Exchange = "auth.events"

type UserRegistered struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type UserLoggedIn struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Provider string `json:"provider"` // "local" | "google"
}
