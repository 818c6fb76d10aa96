package domain

import "time"

// EmailMessage is a structured email record for batch ingestion.
type EmailMessage struct {
	// Subject is the message subject line.
	Subject string

	// From is the sender address.
	From string

	// To lists recipient addresses.
	To []string

	// CC lists carbon-copy addresses. May be empty.
	CC []string

	// Date is when the message was sent.
	Date time.Time

	// Body is the plain-text message body.
	Body string
}

// CalendarEvent is a structured calendar record for batch ingestion.
type CalendarEvent struct {
	// Title is the event title.
	Title string

	// Start is the event start time.
	Start time.Time

	// End is the event end time.
	End time.Time

	// Location is the event location. May be empty.
	Location string

	// Notes is free-form descriptive text. May be empty.
	Notes string
}
