// Package events publishes committed ledger transactions on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ppob_wallet/internal/domain"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectTransactionCreated carries one domain.TransactionEvent per committed transaction
const SubjectTransactionCreated = "ledger.transactions.created"

// conn is the subset of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends transaction events to NATS
type Publisher struct {
	nc      conn
	subject string
}

// NewPublisher publishes on SubjectTransactionCreated through nc
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc, subject: SubjectTransactionCreated}
}

// Connect dials NATS. An empty url disables publishing and returns a nil connection.
func Connect(url string, log logrus.FieldLogger) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("ppob-wallet"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.WithField("url", c.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// PublishTransaction encodes evt as JSON and publishes it
func (p *Publisher) PublishTransaction(_ context.Context, evt domain.TransactionEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode transaction event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
