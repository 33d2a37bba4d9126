package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/models"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/internal/utils"
)

type Config struct {
	Server      string `env:"SMTP_SERVER"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	FromAddress string `env:"SMTP_FROM_ADDRESS"`
	SentFolder  string `env:"SMTP_SENT_FOLDER" envDefault:"Sent"`
}

// ComposeRequest is a locally composed outbound message. ReplyToID
// optionally references a stored email to quote and thread against.
type ComposeRequest struct {
	To        []string `json:"to"`
	Cc        []string `json:"cc"`
	Subject   string   `json:"subject"`
	BodyText  string   `json:"bodyText"`
	BodyHTML  string   `json:"bodyHtml"`
	ReplyToID string   `json:"replyToId"`
}

// Sender delivers composed mail over SMTP and records it as a Sent-folder
// row. These rows bypass the synchronizer entirely.
type Sender struct {
	cfg    *Config
	emails interfaces.EmailRepository
	log    logger.Logger
}

func NewSender(cfg *Config, emails interfaces.EmailRepository, log logger.Logger) *Sender {
	return &Sender{cfg: cfg, emails: emails, log: log}
}

func (s *Sender) Send(ctx context.Context, req *ComposeRequest) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Sender.Send")
	defer span.Finish()
	tracing.TagComponentService(span)

	if err := s.validate(req); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if req.ReplyToID != "" {
		if err := s.applyReplyContext(ctx, req); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	validation := mailvalidate.ValidateEmailSyntax(s.cfg.FromAddress)
	if !validation.IsValid {
		err := errors.New("from address is not valid")
		tracing.TraceErr(span, err)
		return nil, err
	}

	messageID := utils.GenerateMessageID(validation.Domain, "")

	buffer, err := s.buildMessage(req, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	recipients := append(append([]string{}, req.To...), req.Cc...)
	if err := s.deliver(ctx, recipients, buffer); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	email := &models.Email{
		MessageID:    utils.NormalizeMessageID(messageID),
		Folder:       s.cfg.SentFolder,
		Subject:      req.Subject,
		FromAddress:  s.cfg.FromAddress,
		ToAddresses:  req.To,
		CcAddresses:  req.Cc,
		BodyText:     req.BodyText,
		BodyHTML:     req.BodyHTML,
		ReceivedAt:   utils.NowPtr(),
		LastSyncedAt: utils.NowPtr(),
		Outbound:     true,
		SentAt:       utils.NowPtr(),
	}
	if err := s.emails.Create(ctx, email); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "message sent but failed to record it")
	}

	s.log.Infof("sent message %s to %d recipients", messageID, len(recipients))
	return email, nil
}

func (s *Sender) validate(req *ComposeRequest) error {
	if s.cfg.Server == "" || s.cfg.FromAddress == "" {
		return errors.New("smtp transport is not configured")
	}
	if len(req.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	if req.BodyText == "" && req.BodyHTML == "" {
		return errors.New("message must have either text or HTML content")
	}
	for _, addr := range append(append([]string{}, req.To...), req.Cc...) {
		if v := mailvalidate.ValidateEmailSyntax(addr); !v.IsValid {
			return fmt.Errorf("recipient address is not valid: %s", addr)
		}
	}
	return nil
}

// applyReplyContext threads the request against a stored message: prefixes
// the subject and appends a quoted copy of the original body.
func (s *Sender) applyReplyContext(ctx context.Context, req *ComposeRequest) error {
	original, err := s.emails.GetByID(ctx, req.ReplyToID)
	if err != nil {
		return err
	}
	if original == nil {
		return errors.New("message to reply to was not found")
	}

	if req.Subject == "" {
		req.Subject = "Re: " + utils.NormalizeSubject(original.Subject)
	}

	quoted := original.BodyText
	if quoted == "" && original.BodyHTML != "" {
		quoted = utils.HTMLToText(original.BodyHTML)
	}
	if quoted != "" {
		var b strings.Builder
		b.WriteString(req.BodyText)
		b.WriteString("\n\nOn ")
		if original.ReceivedAt != nil {
			b.WriteString(original.ReceivedAt.Format("Mon, 2 Jan 2006 15:04"))
		}
		b.WriteString(", ")
		b.WriteString(original.FromAddress)
		b.WriteString(" wrote:\n")
		for _, line := range strings.Split(quoted, "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		req.BodyText = b.String()
	}

	return nil
}

func (s *Sender) buildMessage(req *ComposeRequest, messageID string) (*bytes.Buffer, error) {
	buffer := bytes.NewBuffer(nil)

	headers := map[string]string{
		"From":         s.cfg.FromAddress,
		"To":           strings.Join(req.To, ", "),
		"Subject":      req.Subject,
		"Message-Id":   messageID,
		"Date":         time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
	}
	if len(req.Cc) > 0 {
		headers["Cc"] = strings.Join(req.Cc, ", ")
	}

	if req.BodyHTML == "" {
		headers["Content-Type"] = "text/plain; charset=utf-8"
		writeHeaders(headers, buffer)
		buffer.WriteString(req.BodyText)
		return buffer, nil
	}

	writer := multipart.NewWriter(buffer)
	headers["Content-Type"] = "multipart/alternative; boundary=" + writer.Boundary()
	writeHeaders(headers, buffer)

	if req.BodyText != "" {
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type": []string{"text/plain; charset=utf-8"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write([]byte(req.BodyText)); err != nil {
			return nil, err
		}
	}

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": []string{"text/html; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(req.BodyHTML)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer, nil
}

func writeHeaders(headers map[string]string, buffer *bytes.Buffer) {
	for key, value := range headers {
		buffer.WriteString(key)
		buffer.WriteString(": ")
		buffer.WriteString(value)
		buffer.WriteString("\r\n")
	}
	buffer.WriteString("\r\n")
}

func (s *Sender) deliver(ctx context.Context, recipients []string, buffer *bytes.Buffer) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "Sender.deliver")
	defer span.Finish()
	tracing.TagComponentService(span)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)

	var err error
	if s.cfg.Port == 465 {
		err = s.sendWithExplicitTLS(addr, auth, recipients, buffer)
	} else {
		err = s.sendWithSTARTTLS(addr, auth, recipients, buffer)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to deliver message")
	}
	return nil
}

func (s *Sender) sendWithSTARTTLS(addr string, auth smtp.Auth, recipients []string, buffer *bytes.Buffer) error {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: s.cfg.Server}); err != nil {
			return err
		}
	}

	if err = client.Auth(auth); err != nil {
		return err
	}

	return s.transmit(client, recipients, buffer)
}

func (s *Sender) sendWithExplicitTLS(addr string, auth smtp.Auth, recipients []string, buffer *bytes.Buffer) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Server})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return err
	}

	return s.transmit(client, recipients, buffer)
}

func (s *Sender) transmit(client *smtp.Client, recipients []string, buffer *bytes.Buffer) error {
	if err := client.Mail(s.cfg.FromAddress); err != nil {
		return err
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(buffer.Bytes()); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
