package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/ishanyash/btr-propflip/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// ReportEvent is the JSON value of a "report generated" message.
type ReportEvent struct {
	ReportID       string    `json:"report_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Address        string    `json:"address"`
	Postcode       string    `json:"postcode"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	Score          float64   `json:"score"`
	ScoreCategory  string    `json:"score_category"`
	MissingMetrics []string  `json:"missing_metrics,omitempty"`
	EstimatedValue *float64  `json:"estimated_value,omitempty"`
	GrossYieldPct  *float64  `json:"gross_yield_pct,omitempty"`
	Incomplete     bool      `json:"incomplete"`
	Gaps           []string  `json:"gaps,omitempty"`
	Curated        bool      `json:"curated"`
}

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces report events to a Kafka topic.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the report topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// Publish writes one event for report, keyed by report id so that
// re-publishes of the same report land on the same partition.
func (p *Publisher) Publish(ctx context.Context, report domain.Report) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		p.metrics.ReportsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.ReportsPublished.WithLabelValues("error").Inc()
		p.logger.Warn("report event not published", "report_id", report.ID, "error", err)
		return fmt.Errorf("publish report %s: %w", report.ID, err)
	}
	p.metrics.ReportsPublished.WithLabelValues("success").Inc()
	p.logger.Debug("report event published", "report_id", report.ID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newReportEvent(r domain.Report) ReportEvent {
	e := ReportEvent{
		ReportID:       r.ID,
		GeneratedAt:    r.GeneratedAt,
		Address:        r.Profile.Address,
		Postcode:       r.Profile.Postcode,
		Lat:            r.Profile.Geo.Lat,
		Lon:            r.Profile.Geo.Lon,
		Score:          r.Score.Total,
		ScoreCategory:  r.Score.Category,
		MissingMetrics: r.Score.Missing,
		GrossYieldPct:  r.GrossYieldPct,
		Incomplete:     r.Profile.Incomplete,
		Curated:        r.Commentary.Available,
	}
	if r.Valuation != nil {
		v := r.Valuation.Value
		e.EstimatedValue = &v
	}
	for _, g := range r.Profile.Gaps {
		e.Gaps = append(e.Gaps, g.Source+":"+g.Reason)
	}
	return e
}

// serializeToMessage marshals a report summary into a Kafka message.
func serializeToMessage(r domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(newReportEvent(r))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "score_category", Value: []byte(r.Score.Category)},
			{Key: "generated_at", Value: []byte(r.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
