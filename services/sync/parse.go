package sync

import (
	"bytes"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/prismateams/mailroom/internal/utils"
)

// ParsedAttachment is one attachment part lifted out of a MIME message.
type ParsedAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ParsedMessage is the folder-independent view of a raw RFC 5322 message.
type ParsedMessage struct {
	MessageID   string
	Subject     string
	FromAddress string
	ToAddresses []string
	CcAddresses []string
	ReceivedAt  *time.Time
	BodyText    string
	BodyHTML    string
	Attachments []ParsedAttachment
}

// ParseMessage decodes a raw message into its stored form. A missing or empty
// Message-ID header gets a synthesized identifier so every row has one; the
// synthesized form is unique per (folder, uid) and never collides with real
// server-assigned IDs.
func ParseMessage(raw []byte, folder string, uid uint32) (*ParsedMessage, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message")
	}

	parsed := &ParsedMessage{
		MessageID: utils.NormalizeMessageID(envelope.GetHeader("Message-Id")),
		Subject:   utils.DecodeHeader(envelope.GetHeader("Subject")),
		BodyText:  envelope.Text,
		BodyHTML:  envelope.HTML,
	}

	if parsed.MessageID == "" {
		parsed.MessageID = utils.SynthesizeMessageID(folder, uid)
	}

	if from, err := envelope.AddressList("From"); err == nil && len(from) > 0 {
		parsed.FromAddress = from[0].Address
	} else {
		parsed.FromAddress = utils.DecodeHeader(envelope.GetHeader("From"))
	}

	parsed.ToAddresses = addressStrings(envelope, "To")
	parsed.CcAddresses = addressStrings(envelope, "Cc")

	if date := envelope.GetHeader("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			t = t.UTC()
			parsed.ReceivedAt = &t
		}
	}

	if parsed.BodyText == "" && parsed.BodyHTML != "" {
		parsed.BodyText = utils.HTMLToText(parsed.BodyHTML)
	}

	// Text parts are body content even when the sender flags them with an
	// attachment disposition; only non-text parts become stored attachments.
	for _, part := range envelope.Attachments {
		if isTextPart(part.ContentType) {
			continue
		}
		parsed.Attachments = append(parsed.Attachments, ParsedAttachment{
			Filename:    part.FileName,
			ContentType: part.ContentType,
			Content:     part.Content,
		})
	}
	for _, part := range envelope.Inlines {
		if part.FileName == "" || isTextPart(part.ContentType) {
			continue
		}
		parsed.Attachments = append(parsed.Attachments, ParsedAttachment{
			Filename:    part.FileName,
			ContentType: part.ContentType,
			Content:     part.Content,
		})
	}

	return parsed, nil
}

func isTextPart(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "text/")
}

func addressStrings(envelope *enmime.Envelope, header string) []string {
	list, err := envelope.AddressList(header)
	if err != nil || len(list) == 0 {
		value := strings.TrimSpace(envelope.GetHeader(header))
		if value == "" {
			return nil
		}
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(utils.DecodeHeader(part)); part != "" {
				out = append(out, part)
			}
		}
		return out
	}

	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, addr.Address)
	}
	return out
}
