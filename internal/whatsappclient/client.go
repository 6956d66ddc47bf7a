package whatsappclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KILLERTIAN/skillchaseBot/internal/bus"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"golang.org/x/term"
)

// Publisher receives platform events. *bus.Inproc satisfies it.
type Publisher interface {
	Publish(ctx context.Context, ev bus.Event) error
}

type Options struct {
	// SessionPath is the SQLite file holding the paired device keys.
	SessionPath string
	Publisher   Publisher
	Logger      *slog.Logger
	// QRTerminal renders pairing codes as terminal QR art when QRWriter is
	// a terminal.
	QRTerminal bool
	QRWriter   io.Writer
}

type Client struct {
	wa        *whatsmeow.Client
	container *sqlstore.Container
	publisher Publisher
	logger    *slog.Logger
	qrOn      bool
	qrOut     io.Writer
	now       func() time.Time

	// ctx scopes bus publishes made from whatsmeow's event goroutines.
	ctx context.Context
}

const (
	qrEventCode    = "code"
	qrEventError   = "error"
	qrEventSuccess = "success"
)

func sessionDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Open loads (or creates) the device store at opts.SessionPath.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	path := strings.TrimSpace(opts.SessionPath)
	if path == "" {
		return nil, fmt.Errorf("whatsapp session path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	container, err := sqlstore.New(ctx, "sqlite3", sessionDSN(path), newWALogger(logger, "store"))
	if err != nil {
		return nil, fmt.Errorf("open whatsapp session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}
	qrOut := opts.QRWriter
	if qrOut == nil {
		qrOut = os.Stdout
	}
	c := &Client{
		wa:        whatsmeow.NewClient(device, newWALogger(logger, "client")),
		container: container,
		publisher: opts.Publisher,
		logger:    logger,
		qrOn:      opts.QRTerminal,
		qrOut:     qrOut,
		now:       time.Now,
		ctx:       ctx,
	}
	c.wa.AddEventHandler(c.handleEvent)
	logger.Info("whatsapp_session_opened", "path", path, "paired", device.ID != nil)
	return c, nil
}

// Connect starts the websocket session. An unpaired device first obtains a
// QR channel so pairing codes reach the terminal and the bus.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID == nil {
		qrChan, err := c.wa.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("whatsapp qr channel: %w", err)
		}
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("whatsapp connect: %w", err)
		}
		go c.watchQR(ctx, qrChan)
		return nil
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("whatsapp connect: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	c.wa.Disconnect()
	if err := c.container.Close(); err != nil {
		c.logger.Warn("whatsapp_session_close_error", "error", err.Error())
	}
}

func (c *Client) watchQR(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case qrEventCode:
			c.showQR(item.Code)
			c.publish(ctx, bus.KindQR, item.Code)
		case qrEventError:
			detail := "pairing error"
			if item.Error != nil {
				detail = item.Error.Error()
			}
			c.publish(ctx, bus.KindAuthFailure, detail)
		case qrEventSuccess:
		default:
			c.publish(ctx, bus.KindAuthFailure, "pairing "+item.Event)
		}
	}
}

func (c *Client) showQR(code string) {
	if c.qrOn && isTerminal(c.qrOut) {
		qrterminal.GenerateHalfBlock(code, qrterminal.L, c.qrOut)
		return
	}
	c.logger.Info("whatsapp_qr_code", "code", code)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *Client) handleEvent(evt any) {
	ctx := c.ctx
	if msg, ok := evt.(*events.Message); ok {
		inbound, ok := inboundFromEvent(msg)
		if !ok {
			return
		}
		ev, err := bus.NewMessageEvent(bus.ChannelWhatsApp, inbound, c.now())
		if err != nil {
			c.logger.Warn("whatsapp_inbound_invalid", "message_id", inbound.ID, "error", err.Error())
			return
		}
		if err := c.publisher.Publish(ctx, ev); err != nil {
			c.logger.Warn("whatsapp_bus_publish_error", "message_id", inbound.ID, "error", err.Error())
		}
		return
	}
	if kind, detail, ok := lifecycleFromEvent(evt); ok {
		c.publish(ctx, kind, detail)
	}
}

func (c *Client) publish(ctx context.Context, kind bus.Kind, detail string) {
	ev, err := bus.NewLifecycleEvent(bus.ChannelWhatsApp, kind, detail, c.now())
	if err != nil {
		c.logger.Warn("whatsapp_lifecycle_invalid", "kind", string(kind), "error", err.Error())
		return
	}
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.logger.Warn("whatsapp_bus_publish_error", "kind", string(kind), "error", err.Error())
	}
}

func parseJID(raw string) (types.JID, error) {
	jid, err := types.ParseJID(strings.TrimSpace(raw))
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid jid %q: %w", raw, err)
	}
	// ParseJID accepts a bare server name; a chat needs a user part.
	if jid.User == "" || jid.Server == "" {
		return types.JID{}, fmt.Errorf("invalid jid %q: missing user or server", raw)
	}
	return jid, nil
}

func (c *Client) Reply(ctx context.Context, msg bus.Message, text string) error {
	chat, err := parseJID(msg.ChatID)
	if err != nil {
		return err
	}
	if _, err := c.wa.SendMessage(ctx, chat, replyMessage(msg, text)); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (c *Client) Participants(ctx context.Context, chatID string) ([]string, error) {
	chat, err := parseJID(chatID)
	if err != nil {
		return nil, err
	}
	info, err := c.wa.GetGroupInfo(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("get group info: %w", err)
	}
	ids := make([]string, 0, len(info.Participants))
	for _, p := range info.Participants {
		ids = append(ids, p.JID.String())
	}
	return ids, nil
}

func (c *Client) SendMentions(ctx context.Context, chatID string, text string, mentions []string) error {
	chat, err := parseJID(chatID)
	if err != nil {
		return err
	}
	if _, err := c.wa.SendMessage(ctx, chat, mentionMessage(text, mentions)); err != nil {
		return fmt.Errorf("send mentions: %w", err)
	}
	return nil
}
