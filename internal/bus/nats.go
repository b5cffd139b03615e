package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/poll"
)

// NATS carries events over a NATS server so separate processes share them.
type NATS struct {
	nc *nats.Conn
}

// ConnectNATS dials url and keeps reconnecting forever.
func ConnectNATS(url, name string) (*NATS, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Error().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{nc: nc}, nil
}

func (n *NATS) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := n.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (n *NATS) PublishResult(_ context.Context, ev ResultEvent) error {
	return n.publish(ResultSubject(ev.Result.Variant), ev)
}

func (n *NATS) PublishTally(_ context.Context, t poll.Tally) error {
	return n.publish(TallySubject, t)
}

func (n *NATS) SubscribeTally(fn func(poll.Tally)) (func(), error) {
	sub, err := n.nc.Subscribe(TallySubject, func(msg *nats.Msg) {
		var t poll.Tally
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed tally")
			return
		}
		fn(t)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TallySubject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (n *NATS) SubscribeResults(fn func(ResultEvent)) (func(), error) {
	subject := ResultSubjectPrefix + "*"
	sub, err := n.nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev ResultEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed result")
			return
		}
		fn(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
		return err
	}
	return nil
}
