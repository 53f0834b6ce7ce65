// Package notify delivers notification triples to subscribers over NATS,
// one subject per channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"nws_parser/internal/nws"
	"nws_parser/internal/observability"
)

// ErrCircuitOpen is returned when the breaker rejects a publish.
var ErrCircuitOpen = errors.New("notify: circuit breaker is open")

// Publisher is the subset of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config controls delivery.
type Config struct {
	// SubjectPrefix is prepended to every channel, e.g. "nws.notify".
	SubjectPrefix string

	// Rate is the sustained publish rate per second. Burst defaults to
	// the rate rounded up.
	Rate  float64
	Burst int

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the delivery defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		SubjectPrefix:   prefix,
		Rate:            20,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		BreakerTimeout:  30 * time.Second,
	}
}

// message is the wire form published on each subject.
type message struct {
	Plain     string   `json:"plain"`
	HTML      string   `json:"html"`
	Twitter   string   `json:"twitter"`
	Channels  []string `json:"channels"`
	ProductID string   `json:"product_id"`
}

// Notifier publishes notifications with rate limiting, retry and a
// circuit breaker around the transport.
type Notifier struct {
	pub     Publisher
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New creates a Notifier.
func New(pub Publisher, cfg Config, log zerolog.Logger, metrics *observability.Metrics) *Notifier {
	if cfg.Rate <= 0 {
		cfg.Rate = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.Rate + 0.999)
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	n := &Notifier{
		pub:     pub,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		log:     log,
		metrics: metrics,
	}
	n.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notify",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return n
}

// Subject maps a channel to its NATS subject. Characters NATS reserves
// are replaced with underscores.
func (n *Notifier) Subject(channel string) string {
	ch := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '*', '>', '\t':
			return '_'
		}
		return r
	}, channel)
	if n.cfg.SubjectPrefix == "" {
		return ch
	}
	return n.cfg.SubjectPrefix + "." + ch
}

// Send publishes one notification on each of its channels. Delivery stops
// at the first channel that fails.
func (n *Notifier) Send(ctx context.Context, note nws.Notification) error {
	data, err := json.Marshal(message{
		Plain:     note.Plain,
		HTML:      note.HTML,
		Twitter:   note.Attributes.Twitter,
		Channels:  note.Attributes.Channels,
		ProductID: note.Attributes.ProductID,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	for _, ch := range note.Attributes.Channels {
		if err := n.publish(ctx, n.Subject(ch), data); err != nil {
			n.drop(reason(err))
			return fmt.Errorf("publish %s: %w", ch, err)
		}
		if n.metrics != nil {
			n.metrics.NotificationsPublished.Inc()
		}
	}
	return nil
}

// SendAll publishes every notification, logging failures and carrying on.
func (n *Notifier) SendAll(ctx context.Context, notes []nws.Notification) int {
	sent := 0
	for _, note := range notes {
		if err := n.Send(ctx, note); err != nil {
			n.log.Error().Err(err).Str("product_id", note.Attributes.ProductID).Msg("notification not delivered")
			if ctx.Err() != nil {
				return sent
			}
			continue
		}
		sent++
	}
	return sent
}

func (n *Notifier) publish(ctx context.Context, subject string, data []byte) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = n.cfg.InitialInterval
	bo.MaxInterval = n.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	op := func() error {
		_, err := n.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, n.pub.Publish(subject, data)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, n.cfg.MaxRetries), ctx))
}

func (n *Notifier) drop(why string) {
	if n.metrics != nil {
		n.metrics.NotificationsDropped.WithLabelValues(why).Inc()
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "publish_error"
}

// BreakerState returns the current circuit breaker state.
func (n *Notifier) BreakerState() gobreaker.State {
	return n.breaker.State()
}

// Connect dials NATS with reconnect logging.
func Connect(url string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("nws_parser"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}
