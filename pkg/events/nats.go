package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSOptions configures a source that consumes events published on a subject.
type NATSOptions struct {
	URL     string
	Subject string
	Clock   func() time.Time
	// OnDecodeError is called for payloads that are not valid events. They are
	// skipped either way.
	OnDecodeError func(error)
}

// natsConn is the subset of *nats.Conn the source needs.
type natsConn interface {
	ChanSubscribe(subject string, ch chan *nats.Msg) (*nats.Subscription, error)
	Close()
}

// natsConnect allows test injection.
var natsConnect = func(url string, opts ...nats.Option) (natsConn, error) {
	return nats.Connect(url, opts...)
}

type natsSource struct {
	url      string
	subject  string
	clock    func() time.Time
	onDecode func(error)
}

// NewNATSSource returns a source reading JSON encoded events from subject.
func NewNATSSource(opts NATSOptions) (EventSource, error) {
	if opts.Subject == "" {
		return nil, errors.New("nats subject must not be empty")
	}
	url := opts.URL
	if url == "" {
		url = nats.DefaultURL
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &natsSource{url: url, subject: opts.Subject, clock: clock, onDecode: opts.OnDecodeError}, nil
}

func (s *natsSource) Stream(ctx context.Context, emit func(Event) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := natsConnect(s.url, nats.Name("tactile"), nats.Timeout(5*time.Second))
	if err != nil {
		return fmt.Errorf("connect nats %s: %w", s.url, err)
	}
	defer conn.Close()

	msgs := make(chan *nats.Msg, 64)
	sub, err := conn.ChanSubscribe(s.subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %q: %w", s.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := decodeMessage(msg.Data)
			if err != nil {
				if s.onDecode != nil {
					s.onDecode(fmt.Errorf("subject %s: %w", msg.Subject, err))
				}
				continue
			}
			if ev.Time.IsZero() {
				ev.Time = s.clock()
			}
			if err := emit(ev); err != nil {
				return err
			}
		}
	}
}

func decodeMessage(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind == KindUnknown && ev.RawType != 0 {
		ev.Kind = KindForRawType(ev.RawType)
	}
	return ev, nil
}
