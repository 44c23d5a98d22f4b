// src/services/mail_service.go
package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/username/tradefolio/src/config"
	"github.com/username/tradefolio/src/logger"
)

// imapScout monitors an IMAP mailbox for unread trade-confirmation emails.
type imapScout struct {
	host     string
	port     int
	user     string
	password string
	folder   string
	criteria []string
	limit    uint32
	timeout  time.Duration
}

// NewMailScout builds the IMAP mailbox collaborator from configuration.
func NewMailScout(cfg *config.AppConfig) MailScout {
	return &imapScout{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		folder:   cfg.IMAPFolder,
		criteria: cfg.SubjectCriteria,
		limit:    cfg.FetchLimit,
		timeout:  cfg.FetchTimeout,
	}
}

func (s *imapScout) addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// connect dials the server over TLS and authenticates. Callers must Logout.
func (s *imapScout) connect() (*client.Client, error) {
	c, err := client.DialTLS(s.addr(), nil)
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", s.addr(), err)
	}
	c.Timeout = s.timeout
	if err := c.Login(s.user, s.password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: %v", ErrMailboxLogin, err)
	}
	return c, nil
}

// TestConnection verifies credentials and folder access.
func (s *imapScout) TestConnection() error {
	c, err := s.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select(s.folder, true); err != nil {
		return fmt.Errorf("select folder %q: %w", s.folder, err)
	}
	logger.L.Info("IMAP connection test successful", "host", s.host, "folder", s.folder)
	return nil
}

// FetchTradeEmails returns the unread messages whose subject matches any of
// the configured criteria. A body that fails to decode skips that message
// only; the scan continues.
func (s *imapScout) FetchTradeEmails() ([]EmailMessage, error) {
	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(s.folder, false); err != nil {
		return nil, fmt.Errorf("select folder %q: %w", s.folder, err)
	}

	search := imap.NewSearchCriteria()
	search.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(search)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// Cap the scan to the most recent messages; sequence numbers ascend
	// with arrival order.
	if s.limit > 0 && uint32(len(ids)) > s.limit {
		ids = ids[uint32(len(ids))-s.limit:]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var out []EmailMessage
	for msg := range messages {
		var subject string
		if msg.Envelope != nil {
			subject = msg.Envelope.Subject
		}
		if !s.subjectMatches(subject) {
			continue
		}

		r := msg.GetBody(section)
		if r == nil {
			logger.L.Warn("Matched message has no body section", "subject", subject)
			continue
		}
		body, err := extractBody(r)
		if err != nil {
			logger.L.Warn("Failed to decode message body", "subject", subject, "error", err)
			continue
		}

		logger.L.Info("Matched trade report", "subject", subject)
		out = append(out, EmailMessage{Subject: subject, Body: body})
	}

	if err := <-done; err != nil {
		return out, fmt.Errorf("imap fetch: %w", err)
	}
	return out, nil
}

func (s *imapScout) subjectMatches(subject string) bool {
	lower := strings.ToLower(subject)
	for _, c := range s.criteria {
		if c != "" && strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// extractBody walks the MIME structure and returns the HTML part when one
// exists, otherwise the first plain-text part.
func extractBody(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}

	var plainBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		b, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch contentType {
		case "text/html":
			if htmlBody == "" {
				htmlBody = string(b)
			}
		case "text/plain":
			if plainBody == "" {
				plainBody = string(b)
			}
		}
	}

	if htmlBody != "" {
		return htmlBody, nil
	}
	return plainBody, nil
}
