package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/crime-temperature-analysis/internal/analysis"
	"github.com/couchcryptid/crime-temperature-analysis/internal/config"
	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

// Message kinds carried in the "kind" header.
const (
	KindObservation = "observation"
	KindRegression  = "regression"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces merged observations and the regression result to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one message per observation followed by the regression
// result, in a single WriteMessages call. It returns the number of messages written.
func (p *Publisher) Publish(ctx context.Context, obs []domain.Observation, res analysis.Result) (int, error) {
	processedAt := domain.Now()

	msgs := make([]kafkago.Message, 0, len(obs)+1)
	for i := range obs {
		msg, err := serializeObservation(obs[i], processedAt)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, msg)
	}
	msg, err := serializeResult(res, processedAt)
	if err != nil {
		return 0, err
	}
	msgs = append(msgs, msg)

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish %d messages: %w", len(msgs), err)
	}
	p.logger.Info("results published", "messages", len(msgs))
	return len(msgs), nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type observationValue struct {
	CrimeDate   string            `json:"crime_date"`
	CrimeCount  int               `json:"crime_count"`
	Temperature float64           `json:"temperature"`
	Weather     map[string]string `json:"weather,omitempty"`
}

// regressionValue uses pointers so non-finite statistics encode as null.
type regressionValue struct {
	Correlation  *float64    `json:"correlation"`
	NObs         int         `json:"n_obs"`
	Intercept    *float64    `json:"intercept"`
	Slope        *float64    `json:"slope"`
	StdErr       []*float64  `json:"std_err"`
	PValues      []*float64  `json:"p_values"`
	ConfInt      [][]float64 `json:"conf_int"`
	RSquared     *float64    `json:"r_squared"`
	AdjRSquared  *float64    `json:"adj_r_squared"`
	FValue       *float64    `json:"f_statistic"`
	FPValue      *float64    `json:"f_p_value"`
	AIC          *float64    `json:"aic"`
	BIC          *float64    `json:"bic"`
	DurbinWatson *float64    `json:"durbin_watson"`
}

func serializeObservation(o domain.Observation, processedAt time.Time) (kafkago.Message, error) {
	v := observationValue{
		CrimeDate:   o.CrimeDate.Format(domain.DateLayout),
		CrimeCount:  o.CrimeCount,
		Temperature: o.Temperature,
	}
	if len(o.Extra) > 0 {
		v.Weather = make(map[string]string, len(o.Extra))
		for _, f := range o.Extra {
			v.Weather[f.Name] = f.Value
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: %w", v.CrimeDate, err)
	}
	return newMessage(v.CrimeDate, KindObservation, data, processedAt), nil
}

func serializeResult(res analysis.Result, processedAt time.Time) (kafkago.Message, error) {
	m := res.Model
	v := regressionValue{
		Correlation:  finite(res.Correlation),
		NObs:         m.NObs,
		Intercept:    finite(m.Intercept()),
		Slope:        finite(m.Slope()),
		RSquared:     finite(m.RSquared),
		AdjRSquared:  finite(m.AdjRSquared),
		FValue:       finite(m.FValue),
		FPValue:      finite(m.FPValue),
		AIC:          finite(m.AIC),
		BIC:          finite(m.BIC),
		DurbinWatson: finite(m.Diagnostics.DurbinWatson),
	}
	for j := range m.Params {
		v.StdErr = append(v.StdErr, finite(m.StdErr[j]))
		v.PValues = append(v.PValues, finite(m.PValues[j]))
		v.ConfInt = append(v.ConfInt, []float64{m.ConfInt[j][0], m.ConfInt[j][1]})
	}
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize regression result: %w", err)
	}
	return newMessage(KindRegression, KindRegression, data, processedAt), nil
}

func newMessage(key, kind string, value []byte, processedAt time.Time) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}
