// Package pipeline runs the ingest loop: raw product in, decoded result
// archived, persisted, streamed and announced.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"nws_parser/internal/nws"
	"nws_parser/internal/observability"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
	"nws_parser/internal/storage"
)

// Archiver records the raw text of each product.
type Archiver interface {
	Put(p *nws.TextProduct, family string) (bool, error)
}

// RecordSink persists the rows built from a result.
type RecordSink interface {
	Write(ctx context.Context, rec storage.Records) error
}

// Streamer forwards decoded results downstream.
type Streamer interface {
	Write(ctx context.Context, results ...registry.Result) error
}

// Sender delivers notifications and returns how many went out.
type Sender interface {
	SendAll(ctx context.Context, notes []nws.Notification) int
}

// Pipeline wires the decoder to its outputs. Every output is optional.
type Pipeline struct {
	Registry *registry.Registry
	Options  nws.Options
	Clock    clockwork.Clock
	Archive  Archiver
	Sinks    map[string]RecordSink
	Stream   Streamer
	Notifier Sender
	Log      zerolog.Logger
	Metrics  *observability.Metrics

	// SinkRetries bounds the retries of a failing sink write.
	SinkRetries uint64
}

// Process decodes one raw product and fans the result out. A product no
// decoder claims returns (nil, nil).
func (p *Pipeline) Process(ctx context.Context, raw []byte) (registry.Result, error) {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	opts := p.Options
	opts.Now = clock.Now().UTC()

	start := clock.Now()
	res, err := p.Registry.Decode(raw, opts)
	if p.Metrics != nil {
		p.Metrics.DecodeDuration.Observe(clock.Since(start).Seconds())
	}
	if err != nil {
		if p.Metrics != nil {
			p.Metrics.DecodeFailures.WithLabelValues(kindLabel(err)).Inc()
		}
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	prod := res.Base()
	log := p.Log.With().Str("product_id", prod.ProductID()).Str("family", res.Type()).Logger()
	if p.Metrics != nil {
		p.Metrics.ProductsDecoded.WithLabelValues(res.Type()).Inc()
	}
	for _, w := range prod.Warnings {
		log.Warn().Str("kind", kindLabel(w.Kind)).Msg(w.Message)
		if p.Metrics != nil {
			p.Metrics.Warnings.WithLabelValues(kindLabel(w.Kind)).Inc()
		}
	}

	if p.Archive != nil {
		replaced, err := p.Archive.Put(prod, res.Type())
		if err != nil {
			log.Error().Err(err).Msg("archive write failed")
		} else if replaced {
			log.Info().Msg("archive entry replaced")
		}
	}

	if len(p.Sinks) > 0 {
		rec := storage.BuildRecords(res)
		for name, sink := range p.Sinks {
			p.writeSink(ctx, log, name, sink, rec)
		}
	}

	if p.Stream != nil {
		if err := p.Stream.Write(ctx, res); err != nil {
			log.Error().Err(err).Msg("stream write failed")
		}
	}

	if n, ok := res.(registry.Notifier); ok && p.Notifier != nil {
		notes := n.Notifications()
		sent := p.Notifier.SendAll(ctx, notes)
		log.Debug().Int("sent", sent).Int("total", len(notes)).Msg("notifications")
	}

	return res, nil
}

func (p *Pipeline) writeSink(ctx context.Context, log zerolog.Logger, name string, sink RecordSink, rec storage.Records) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		return sink.Write(ctx, rec)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, p.SinkRetries), ctx))
	if err != nil {
		log.Error().Err(err).Str("sink", name).Msg("sink write failed")
		if p.Metrics != nil {
			p.Metrics.SinkErrors.WithLabelValues(name).Inc()
		}
		return
	}
	if p.Metrics != nil {
		p.Metrics.SinkWrites.WithLabelValues(name).Inc()
	}
}

// Run processes raw products from in until it is closed or ctx ends.
func (p *Pipeline) Run(ctx context.Context, in <-chan []byte) error {
	p.Log.Info().Msg("pipeline started")
	if p.Metrics != nil {
		p.Metrics.IngestRunning.Set(1)
		defer p.Metrics.IngestRunning.Set(0)
	}
	for {
		select {
		case <-ctx.Done():
			p.Log.Info().Err(ctx.Err()).Msg("pipeline stopping")
			return nil
		case raw, ok := <-in:
			if !ok {
				p.Log.Info().Msg("input closed")
				return nil
			}
			if _, err := p.Process(ctx, raw); err != nil {
				p.Log.Warn().Err(err).Msg("product rejected")
			}
		}
	}
}

// ReadLDM splits an LDM framed feed into products and sends each on out.
// Input without SOH framing is treated as a single product.
func ReadLDM(ctx context.Context, r io.Reader, out chan<- []byte) error {
	br := bufio.NewReaderSize(r, 64*1024)
	head, _ := br.Peek(512)
	if !patterns.HasLDMEnvelope(string(head)) {
		data, err := io.ReadAll(br)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
		return send(ctx, out, data)
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	sc.Split(patterns.ScanLDM)
	for sc.Scan() {
		frame := append([]byte(nil), sc.Bytes()...)
		if err := send(ctx, out, frame); err != nil {
			return err
		}
	}
	return sc.Err()
}

func send(ctx context.Context, out chan<- []byte, b []byte) error {
	select {
	case out <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// kindLabel maps an error to its metric label.
func kindLabel(err error) string {
	for _, k := range []struct {
		err   error
		label string
	}{
		{nws.ErrInvalidEnvelope, "invalid_envelope"},
		{nws.ErrInvalidTimestamp, "invalid_timestamp"},
		{nws.ErrInvalidGeometry, "invalid_geometry"},
		{nws.ErrUnknownCode, "unknown_code"},
		{nws.ErrOutOfBounds, "out_of_bounds"},
		{nws.ErrFutureTimestamp, "future_timestamp"},
		{registry.ErrMissingAFOS, "missing_afos"},
	} {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	if err == nil {
		return "none"
	}
	return "other"
}

// Describe returns a one line summary of a result for logs and the CLI.
func Describe(res registry.Result) string {
	p := res.Base()
	return fmt.Sprintf("%s %s %d segments %d warnings", res.Type(), p.ProductID(), len(p.Segments), len(p.Warnings))
}
