package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daffahilmyf/users-api/internal/config"
	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/infra/messaging"
	"github.com/daffahilmyf/users-api/internal/infra/persistence"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const fetchBatch = 50

// auditRecorder is the part of the audit log repository the consumer needs.
type auditRecorder interface {
	Record(ctx context.Context, eventType, messageID string, payload []byte) error
}

// Consume pulls user events and stores each one in audit_logs until ctx is done.
func Consume(ctx context.Context, cfg config.Config) error {
	log, err := BuildLogger(cfg)
	if err != nil {
		return err
	}

	client, err := messaging.NewNATS(ctx, cfg.NATS)
	if err != nil {
		return err
	}
	if client == nil {
		return errors.New("nats url is required")
	}
	defer client.Close()

	dbCfg := persistence.ConfigFrom(cfg.Database)
	dbCfg.Models = []any{&entity.AuditLog{}}
	conn, err := persistence.New(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Sync(ctx); err != nil {
		return err
	}
	audit := persistence.NewAuditLogRepository(conn)

	js := client.JetStream()
	if err := ensureConsumer(ctx, cfg.NATS, js); err != nil {
		return err
	}
	sub, err := js.PullSubscribe(
		cfg.NATS.Wildcard(),
		cfg.NATS.ConsumerDurable,
		nats.Bind(cfg.NATS.Stream, cfg.NATS.ConsumerDurable),
	)
	if err != nil {
		return err
	}

	log.Infof("consumer: listening on %s (durable=%s)", cfg.NATS.Wildcard(), cfg.NATS.ConsumerDurable)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(2*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.Canceled) {
				continue
			}
			log.WithError(err).Warn("consumer: fetch failed")
			continue
		}
		for _, msg := range msgs {
			handleEvent(ctx, cfg.NATS, audit, msg, log)
		}
	}
}

func handleEvent(ctx context.Context, cfg config.NATS, audit auditRecorder, msg *nats.Msg, log *logrus.Logger) {
	msgID := msg.Header.Get(nats.MsgIdHdr)
	if msgID == "" {
		if md, err := msg.Metadata(); err == nil {
			msgID = fmt.Sprintf("seq-%d", md.Sequence.Stream)
		}
	}
	if err := audit.Record(ctx, msg.Subject, msgID, msg.Data); err != nil {
		log.WithError(err).WithField("subject", msg.Subject).Warn("consumer: audit log insert failed")
		retry(cfg, msg, log)
		return
	}
	log.WithField("subject", msg.Subject).Debug("consumer: event recorded")
	_ = msg.Ack()
}

// retry naks with the configured backoff, or terminates the message once
// it has been delivered max_deliver times.
func retry(cfg config.NATS, msg *nats.Msg, log *logrus.Logger) {
	md, err := msg.Metadata()
	if err != nil {
		_ = msg.Nak()
		return
	}
	if cfg.MaxDeliver > 0 && int(md.NumDelivered) >= cfg.MaxDeliver {
		log.WithField("stream_seq", md.Sequence.Stream).Error("consumer: giving up on event")
		_ = msg.Term()
		return
	}
	if delay := backoffFor(cfg.Backoff, md.NumDelivered); delay > 0 {
		_ = msg.NakWithDelay(delay)
		return
	}
	_ = msg.Nak()
}

func backoffFor(backoff []time.Duration, delivered uint64) time.Duration {
	if len(backoff) == 0 {
		return 0
	}
	idx := int(delivered) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoff) {
		idx = len(backoff) - 1
	}
	return backoff[idx]
}

func ensureConsumer(ctx context.Context, cfg config.NATS, js nats.JetStreamContext) error {
	if cfg.ConsumerDurable == "" {
		return errors.New("nats consumer durable is required")
	}
	maxDeliver := cfg.MaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = -1
	}

	info, err := js.ConsumerInfo(cfg.Stream, cfg.ConsumerDurable, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrConsumerNotFound) {
		return err
	}
	if info != nil && info.Config.MaxDeliver == maxDeliver && info.Config.FilterSubject == cfg.Wildcard() {
		return nil
	}
	if info != nil {
		if err := js.DeleteConsumer(cfg.Stream, cfg.ConsumerDurable, nats.Context(ctx)); err != nil {
			return err
		}
	}

	_, err = js.AddConsumer(cfg.Stream, &nats.ConsumerConfig{
		Durable:       cfg.ConsumerDurable,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxDeliver:    maxDeliver,
		FilterSubject: cfg.Wildcard(),
	}, nats.Context(ctx))
	return err
}
