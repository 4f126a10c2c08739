package email

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Email represents a parsed email reduced to the fields the classifier reads
type Email struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Headers     map[string]string
	Attachments []Attachment
	ParsedAt    time.Time
}

// Attachment represents an email attachment
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// Parser handles email parsing
type Parser struct{}

// NewParser creates a new email parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFromFile parses an email from a file
func (p *Parser) ParseFromFile(path string) (*Email, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse parses an email from a reader. Text parts are decoded to UTF-8 and
// concatenated into Body; other parts are recorded as attachments.
func (p *Parser) Parse(reader io.Reader) (*Email, error) {
	mr, err := mail.CreateReader(reader)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}
	defer mr.Close()

	email := &Email{
		Headers:  make(map[string]string),
		ParsedAt: time.Now(),
	}

	if subject, err := mr.Header.Subject(); err == nil {
		email.Subject = subject
	} else {
		email.Subject = mr.Header.Get("Subject")
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
	} else {
		email.From = mr.Header.Get("From")
	}

	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, addr.Address)
		}
	}

	fields := mr.Header.Fields()
	for fields.Next() {
		key := fields.Key()
		if prev, ok := email.Headers[key]; ok {
			email.Headers[key] = prev + "; " + fields.Value()
		} else {
			email.Headers[key] = fields.Value()
		}
	}

	if err := p.readParts(mr, email); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}

	return email, nil
}

func (p *Parser) readParts(mr *mail.Reader, email *Email) error {
	var texts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return err
		}
		if part == nil {
			continue
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			content, err := io.ReadAll(part.Body)
			if err != nil {
				return err
			}
			if contentType == "" || strings.HasPrefix(contentType, "text/") {
				texts = append(texts, string(content))
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			size, _ := io.Copy(io.Discard, part.Body)
			email.Attachments = append(email.Attachments, Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        size,
			})
		}
	}

	email.Body = strings.Join(texts, "\n")
	return nil
}

// Text returns the document the classifier reads: subject and body joined
// by a single space.
func (e *Email) Text() string {
	return e.Subject + " " + e.Body
}
