package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/tracing"
)

const (
	dialTimeout  = 30 * time.Second
	fetchTimeout = 60 * time.Second
)

type Config struct {
	Server   string `env:"IMAP_SERVER,required"`
	Port     int    `env:"IMAP_PORT" envDefault:"993"`
	Username string `env:"IMAP_USERNAME,required"`
	Password string `env:"IMAP_PASSWORD,required"`
	UseTLS   bool   `env:"IMAP_TLS" envDefault:"true"`
}

type clientFactory struct {
	cfg *Config
	log logger.Logger
}

func NewClientFactory(cfg *Config, log logger.Logger) interfaces.MailClientFactory {
	return &clientFactory{cfg: cfg, log: log}
}

// Connect dials the IMAP server, authenticates, and returns a live session.
func (f *clientFactory) Connect(ctx context.Context) (interfaces.MailClient, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "clientFactory.Connect")
	defer span.Finish()
	tracing.TagComponentImapClient(span)

	serverAddr := fmt.Sprintf("%s:%d", f.cfg.Server, f.cfg.Port)

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	var c *client.Client
	var err error
	if f.cfg.UseTLS {
		tlsConfig := &tls.Config{ServerName: f.cfg.Server}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		err = fmt.Errorf("connection error: %w", err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	c.Timeout = dialTimeout
	if err = c.Login(f.cfg.Username, f.cfg.Password); err != nil {
		c.Logout()
		err = fmt.Errorf("login error: %w", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	c.Timeout = 0

	f.log.Infof("connected to imap server %s", serverAddr)
	return &mailClient{c: c, log: f.log}, nil
}

type mailClient struct {
	c   *client.Client
	log logger.Logger
}

func (m *mailClient) ListFolders(ctx context.Context) ([]interfaces.FolderInfo, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "mailClient.ListFolders")
	defer span.Finish()
	tracing.TagComponentImapClient(span)

	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- m.c.List("", "*", mailboxes)
	}()

	var folders []interfaces.FolderInfo
	for mb := range mailboxes {
		folders = append(folders, interfaces.FolderInfo{
			Name:       mb.Name,
			Delimiter:  mb.Delimiter,
			Attributes: mb.Attributes,
		})
	}

	if err := <-done; err != nil {
		err = fmt.Errorf("error listing folders: %w", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return folders, nil
}

func (m *mailClient) Select(ctx context.Context, folder string) (uint32, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "mailClient.Select")
	defer span.Finish()
	tracing.TagComponentImapClient(span)
	tracing.TagFolder(span, folder)

	status, err := m.c.Select(folder, true)
	if err != nil {
		err = fmt.Errorf("error selecting folder %s: %w", folder, err)
		tracing.TraceErr(span, err)
		return 0, err
	}
	return status.Messages, nil
}

func (m *mailClient) SearchAllUIDs(ctx context.Context) ([]uint32, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "mailClient.SearchAllUIDs")
	defer span.Finish()
	tracing.TagComponentImapClient(span)

	criteria := imap.NewSearchCriteria()
	uids, err := m.c.UidSearch(criteria)
	if err != nil {
		err = fmt.Errorf("error searching uids: %w", err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return uids, nil
}

func (m *mailClient) FetchRaw(ctx context.Context, uid uint32) ([]byte, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "mailClient.FetchRaw")
	defer span.Finish()
	tracing.TagComponentImapClient(span)

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	m.c.Timeout = fetchTimeout
	go func() {
		done <- m.c.UidFetch(seqSet, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, readErr := io.ReadAll(body)
		if readErr != nil {
			m.log.Warnf("error reading body for uid %d: %v", uid, readErr)
			continue
		}
		raw = data
	}
	m.c.Timeout = 0

	if err := <-done; err != nil {
		err = fmt.Errorf("error fetching message %d: %w", uid, err)
		tracing.TraceErr(span, err)
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("no body returned for uid %d", uid)
	}
	return raw, nil
}

func (m *mailClient) Logout() error {
	return m.c.Logout()
}
