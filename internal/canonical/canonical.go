// Package canonical renders structured records into deterministic text
// blocks for ingestion. Rendering is pure: the same record always
// produces byte-identical output, so content-addressed ids are stable
// and tests can match exactly.
package canonical

import (
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// BlockSeparator joins multiple rendered blocks into one document.
const BlockSeparator = "\n\n---\n\n"

// EmailBlock renders an email message as a canonical text block.
// The CC line is present only when the message has CC recipients.
func EmailBlock(msg domain.EmailMessage) string {
	var header strings.Builder
	header.WriteString("Subject: ")
	header.WriteString(msg.Subject)
	header.WriteString("\nFrom: ")
	header.WriteString(msg.From)
	header.WriteString("\nTo: ")
	header.WriteString(strings.Join(msg.To, ", "))
	header.WriteString("\nDate: ")
	header.WriteString(msg.Date.Format(time.RFC3339))
	if len(msg.CC) > 0 {
		header.WriteString("\nCC: ")
		header.WriteString(strings.Join(msg.CC, ", "))
	}

	return strings.TrimSpace(header.String()) + "\n\n" + msg.Body
}

// EventBlock renders a calendar event as a canonical text block.
func EventBlock(ev domain.CalendarEvent) string {
	location := ev.Location
	if location == "" {
		location = "N/A"
	}

	var b strings.Builder
	b.WriteString("Event: ")
	b.WriteString(ev.Title)
	b.WriteString("\nWhen: ")
	b.WriteString(ev.Start.Format(time.RFC3339))
	b.WriteString(" – ")
	b.WriteString(ev.End.Format(time.RFC3339))
	b.WriteString("\nLocation: ")
	b.WriteString(location)
	b.WriteString("\nNotes: ")
	b.WriteString(strings.TrimSpace(ev.Notes))

	return strings.TrimSpace(b.String())
}

// EmailBatch renders messages and joins them with BlockSeparator.
func EmailBatch(messages []domain.EmailMessage) string {
	blocks := make([]string, len(messages))
	for i, msg := range messages {
		blocks[i] = EmailBlock(msg)
	}
	return strings.Join(blocks, BlockSeparator)
}

// EventBatch renders events and joins them with BlockSeparator.
func EventBatch(events []domain.CalendarEvent) string {
	blocks := make([]string, len(events))
	for i, ev := range events {
		blocks[i] = EventBlock(ev)
	}
	return strings.Join(blocks, BlockSeparator)
}
