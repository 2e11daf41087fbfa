package models

// Attachment is a named in-memory file attached to a message
type Attachment struct {
	Name string
	Data []byte
}

// Message is an outgoing email
type Message struct {
	To          string
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

// ContentType returns the MIME type of the body
func (m Message) ContentType() string {
	if m.HTML {
		return "text/html"
	}
	return "text/plain"
}
