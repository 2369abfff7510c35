package pubsub

import (
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tinarmengineering/ltc/pkg/monitor"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

type NatsConfig struct {
	Servers       []string      `validate:"required,min=1"`
	ClientName    string
	ReconnectWait time.Duration `validate:"min=0"`
	MaxReconnects int
}

// NatsConnection shares one NATS connection between all monitors of a process.
// Each subscription is delivered on its own goroutine, so frames of one subscription arrive in order.
type NatsConnection struct {
	conn      *nats.Conn
	listeners listenerSet

	mutex         sync.Mutex
	subscriptions map[string]*nats.Subscription
}

func ConnectNats(config NatsConfig) (*NatsConnection, error) {
	options := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Infof("Reconnected to NATS at %s", conn.ConnectedUrl())
		}),
	}
	if config.ClientName != "" {
		options = append(options, nats.Name(config.ClientName))
	}
	if config.ReconnectWait > 0 {
		options = append(options, nats.ReconnectWait(config.ReconnectWait))
	}

	conn, err := nats.Connect(strings.Join(config.Servers, ","), options...)
	if err != nil {
		return nil, errors.WithMessagef(err, "connecting to NATS at %v", config.Servers)
	}
	return NewNatsConnection(conn), nil
}

func NewNatsConnection(conn *nats.Conn) *NatsConnection {
	return &NatsConnection{
		conn:          conn,
		subscriptions: map[string]*nats.Subscription{},
	}
}

func (c *NatsConnection) Subscribe(destination string, id string) error {
	subject, err := Subject(destination)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.subscriptions[id]; exists {
		return &ErrSubscription{Id: id, Message: "already subscribed"}
	}
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		c.listeners.deliver(frameFromMsg(id, msg))
	})
	if err != nil {
		return errors.WithStack(err)
	}
	c.subscriptions[id] = sub
	// make sure the server has registered interest before callers start the job
	return errors.WithStack(c.conn.Flush())
}

func (c *NatsConnection) Unsubscribe(id string) error {
	c.mutex.Lock()
	sub, exists := c.subscriptions[id]
	delete(c.subscriptions, id)
	c.mutex.Unlock()

	if !exists {
		return &ErrSubscription{Id: id, Message: "not subscribed"}
	}
	return errors.WithStack(sub.Unsubscribe())
}

func (c *NatsConnection) AddListener(listener monitor.Listener) {
	c.listeners.add(listener)
}

func (c *NatsConnection) RemoveListener(listener monitor.Listener) {
	c.listeners.remove(listener)
}

// Publish sends body to a concrete destination.
func (c *NatsConnection) Publish(destination string, body []byte) error {
	subject, err := Subject(destination)
	if err != nil {
		return err
	}
	return errors.WithStack(c.conn.Publish(subject, body))
}

func (c *NatsConnection) Flush() error {
	return errors.WithStack(c.conn.Flush())
}

// Close drops all remaining subscriptions and closes the underlying connection.
func (c *NatsConnection) Close() {
	c.mutex.Lock()
	for id, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.WithError(err).WithField("subscription", id).Warn("Failed to unsubscribe")
		}
	}
	c.subscriptions = map[string]*nats.Subscription{}
	c.mutex.Unlock()
	c.conn.Close()
}

func frameFromMsg(subscriptionId string, msg *nats.Msg) *progress.Frame {
	headers := make(map[string]string, len(msg.Header)+2)
	for key := range msg.Header {
		headers[strings.ToLower(key)] = msg.Header.Get(key)
	}
	headers[progress.HeaderDestination] = Destination(msg.Subject)
	headers[progress.HeaderSubscription] = subscriptionId
	return &progress.Frame{Headers: headers, Body: msg.Data}
}
