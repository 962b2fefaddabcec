package whatsapp

import (
	"context"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// Sender delivers plain text messages to a chat.
type Sender interface {
	SendText(ctx context.Context, to waTypes.JID, text string) error
}

// Client is the subset of the whatsmeow client the session drives.
type Client interface {
	Sender
	Connect() error
	Disconnect()
	IsConnected() bool
	IsLoggedIn() bool
	// Registered reports whether the device has been paired before.
	Registered() bool
	JID() waTypes.JID
	PairPhone(ctx context.Context, phone string) (string, error)
	Logout(ctx context.Context) error
	DeleteCredentials(ctx context.Context) error
	AddEventHandler(handler func(evt interface{}))
	// PhoneForLID maps a LID to the phone number JID known to the device.
	PhoneForLID(ctx context.Context, lid waTypes.JID) (waTypes.JID, error)
}

// ClientFactory loads the persisted credential state and builds a client for it.
type ClientFactory func(ctx context.Context) (Client, error)

// DeviceStore is the whatsmeow sqlstore container holding the credential state.
type DeviceStore struct {
	container  *sqlstore.Container
	log        waLog.Logger
	clientName string
}

// OpenDeviceStore opens (and upgrades) the sqlite credential store at dbfile.
func OpenDeviceStore(ctx context.Context, dbfile, clientName string, log waLog.Logger) (*DeviceStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", dbfile)
	container, err := sqlstore.New(ctx, "sqlite3", dsn, log.Sub("Database"))
	if err != nil {
		return nil, errors.Wrap(err, "open whatsmeow sqlstore")
	}
	return &DeviceStore{container: container, log: log, clientName: clientName}, nil
}

// NewClient implements ClientFactory. GetFirstDevice hands back a fresh,
// unregistered device when nothing has been paired yet.
func (d *DeviceStore) NewClient(ctx context.Context) (Client, error) {
	device, err := d.container.GetFirstDevice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load whatsmeow device")
	}
	cli := whatsmeow.NewClient(device, d.log.Sub("Client"))
	// reconnects are driven by Session
	cli.EnableAutoReconnect = false
	return &meowClient{cli: cli, clientName: d.clientName}, nil
}

type meowClient struct {
	cli        *whatsmeow.Client
	clientName string
}

func (m *meowClient) Connect() error    { return m.cli.Connect() }
func (m *meowClient) Disconnect()       { m.cli.Disconnect() }
func (m *meowClient) IsConnected() bool { return m.cli.IsConnected() }
func (m *meowClient) IsLoggedIn() bool  { return m.cli.IsLoggedIn() }
func (m *meowClient) Registered() bool  { return m.cli.Store.ID != nil }

func (m *meowClient) JID() waTypes.JID {
	if m.cli.Store.ID == nil {
		return waTypes.EmptyJID
	}
	return *m.cli.Store.ID
}

func (m *meowClient) PairPhone(ctx context.Context, phone string) (string, error) {
	return m.cli.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, m.clientName)
}

func (m *meowClient) Logout(ctx context.Context) error {
	return m.cli.Logout(ctx)
}

func (m *meowClient) DeleteCredentials(ctx context.Context) error {
	if m.cli.Store.ID == nil {
		return nil
	}
	return m.cli.Store.Delete(ctx)
}

func (m *meowClient) AddEventHandler(handler func(evt interface{})) {
	m.cli.AddEventHandler(handler)
}

func (m *meowClient) PhoneForLID(ctx context.Context, lid waTypes.JID) (waTypes.JID, error) {
	return m.cli.Store.LIDs.GetPNForLID(ctx, lid)
}

func (m *meowClient) SendText(ctx context.Context, to waTypes.JID, text string) error {
	msg := &waE2E.Message{Conversation: proto.String(text)}
	_, err := m.cli.SendMessage(ctx, to, msg)
	return err
}
