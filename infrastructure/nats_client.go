package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NATSOptions tune the connection and the event stream
type NATSOptions struct {
	Servers       string
	ClientName    string
	ReconnectWait time.Duration
	MaxReconnects int

	// Events older than Retention are dropped from the stream
	Retention time.Duration
	// Republished events with the same id inside DedupWindow are stored once
	DedupWindow time.Duration
}

// DefaultNATSOptions keeps a month of events and dedups within two minutes
func DefaultNATSOptions(servers string) NATSOptions {
	return NATSOptions{
		Servers:       servers,
		ClientName:    sourceService,
		ReconnectWait: 2 * time.Second,
		MaxReconnects: 10,
		Retention:     30 * 24 * time.Hour,
		DedupWindow:   2 * time.Minute,
	}
}

var errNotConnected = errors.New("not connected to NATS JetStream")

// NATSClient publishes investa events to a JetStream stream
type NATSClient struct {
	opts NATSOptions
	nc   *nats.Conn
	js   nats.JetStreamContext
}

// NewNATSClient creates a client for the given servers with default options
func NewNATSClient(servers string) *NATSClient {
	return NewNATSClientWithOptions(DefaultNATSOptions(servers))
}

func NewNATSClientWithOptions(opts NATSOptions) *NATSClient {
	return &NATSClient{opts: opts}
}

// Connect dials the servers and opens a JetStream context
func (c *NATSClient) Connect(ctx context.Context) error {
	nc, err := nats.Connect(c.opts.Servers,
		nats.Name(c.opts.ClientName),
		nats.MaxReconnects(c.opts.MaxReconnects),
		nats.ReconnectWait(c.opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS connection lost, outbound events will fail until it returns")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := ctx.Err(); err != nil {
		nc.Close()
		return err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc, c.js = nc, js
	log.WithFields(log.Fields{
		"servers": c.opts.Servers,
		"client":  c.opts.ClientName,
	}).Info("Connected to NATS")
	return nil
}

func (c *NATSClient) streamConfig(name string, subjects []string) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        name,
		Description: "investa approval and contract events",
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		Storage:     nats.FileStorage,
		MaxAge:      c.opts.Retention,
		Duplicates:  c.opts.DedupWindow,
		Replicas:    1,
	}
}

// EnsureStream creates the stream, or widens its subjects when new event types were added
func (c *NATSClient) EnsureStream(name string, subjects []string) error {
	if c.js == nil {
		return errNotConnected
	}

	info, err := c.js.StreamInfo(name)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		if _, err := c.js.AddStream(c.streamConfig(name, subjects)); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}
		log.WithFields(log.Fields{"stream": name, "subjects": subjects}).Info("Created event stream")
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect stream %s: %w", name, err)
	}

	missing := false
	for _, s := range subjects {
		if !slices.Contains(info.Config.Subjects, s) {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	if _, err := c.js.UpdateStream(c.streamConfig(name, subjects)); err != nil {
		return fmt.Errorf("failed to update stream %s: %w", name, err)
	}
	log.WithFields(log.Fields{"stream": name, "subjects": subjects}).Info("Updated event stream subjects")
	return nil
}

// Publish stores data on subject, tagging it with messageID for JetStream dedup
func (c *NATSClient) Publish(ctx context.Context, subject, messageID string, data []byte) error {
	if c.js == nil {
		return errNotConnected
	}

	opts := []nats.PubOpt{nats.Context(ctx)}
	if messageID != "" {
		opts = append(opts, nats.MsgId(messageID))
	}
	ack, err := c.js.Publish(subject, data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	if ack.Duplicate {
		log.WithFields(log.Fields{"subject": subject, "messageId": messageID}).Debug("Event already stored, skipped duplicate")
	}
	return nil
}

func (c *NATSClient) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close flushes pending publishes before closing
func (c *NATSClient) Close() error {
	if c.nc == nil {
		return nil
	}
	defer func() { c.nc, c.js = nil, nil }()
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
