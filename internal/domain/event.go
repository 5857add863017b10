package domain

// Event is an inbound plain message from the chat transport.
type Event struct {
	AuthorID   string
	AuthorName string
	Text       string
	Channel    string
}
