package models

// EventMessage is the event type carried by content posts; polls skip
// every other event (keepalives, poll markers).
const EventMessage = "message"

// Message is one relay record as it appears on the wire, one JSON
// object per line in poll responses. Time is unix seconds.
type Message struct {
	ID         string      `json:"id"`
	Time       int64       `json:"time"`
	Event      string      `json:"event"`
	Message    string      `json:"message"`
	Title      string      `json:"title,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Attachment points at downloadable content referenced by a message.
type Attachment struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}
