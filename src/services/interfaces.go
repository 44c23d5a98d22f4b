// src/services/interfaces.go
package services

import "errors"

// EmailMessage is one raw mailbox message handed to the extraction engine:
// the subject line plus the body, preferring the HTML part when one exists.
type EmailMessage struct {
	Subject string
	Body    string
}

// Define common service errors
var (
	// ErrMailboxLogin signals failed IMAP authentication, typically a wrong
	// password or a provider that requires an app password.
	ErrMailboxLogin = errors.New("mailbox login failed")
)

// MailScout defines the interface for the mailbox collaborator that yields
// raw trade-confirmation emails.
type MailScout interface {
	// TestConnection verifies credentials and folder access without
	// consuming any messages.
	TestConnection() error
	// FetchTradeEmails returns the unread messages whose subject matches
	// any of the configured criteria, newest first.
	FetchTradeEmails() ([]EmailMessage, error)
}

// PriceService defines the interface for fetching current market prices.
type PriceService interface {
	// PriceFor returns the live price for an instrument code, or 0 when no
	// price could be obtained. It never returns an error.
	PriceFor(code string) float64
}
