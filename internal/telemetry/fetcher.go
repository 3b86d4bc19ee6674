// Package telemetry reads per-instance CloudWatch statistics.
package telemetry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/rs/zerolog"

	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
	"github.com/santoshpalla27/cloud-economics/pkg/units"
)

const (
	DefaultStatistic     = "Average"
	DefaultWindowDays    = 7
	DefaultPeriodSeconds = 3600
)

// Sample is one aggregated datapoint.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Query selects one metric of one instance over a trailing window.
type Query struct {
	InstanceID    string
	MetricName    string
	Namespace     string
	Statistic     string
	Unit          string
	WindowDays    int
	PeriodSeconds int
}

func (q Query) withDefaults() Query {
	if q.Statistic == "" {
		q.Statistic = DefaultStatistic
	}
	if q.WindowDays <= 0 {
		q.WindowDays = DefaultWindowDays
	}
	if q.PeriodSeconds <= 0 {
		q.PeriodSeconds = DefaultPeriodSeconds
	}
	return q
}

// StatisticsAPI is the subset of the CloudWatch client used by Fetcher.
type StatisticsAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// Fetcher retrieves time-ordered samples from CloudWatch.
type Fetcher struct {
	client  StatisticsAPI
	timeout time.Duration
	now     func() time.Time
	metrics *platform.Metrics
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher. A zero timeout leaves calls bounded only by
// the caller's context. metrics may be nil.
func NewFetcher(client StatisticsAPI, timeout time.Duration, metrics *platform.Metrics, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: timeout,
		now:     time.Now,
		metrics: metrics,
		logger:  logger.With().Str("component", "telemetry").Logger(),
	}
}

// WithClock replaces the clock used to anchor the trailing window.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Fetch returns the samples of q in ascending time order. An empty result is
// an empty, non-nil slice. Every failure is a metric fetch error tagged with
// q.MetricName.
func (f *Fetcher) Fetch(ctx context.Context, q Query) ([]Sample, error) {
	q = q.withDefaults()
	start := time.Now()

	stat, err := parseStatistic(q.Statistic)
	if err != nil {
		f.metrics.ObserveMetricFetch(q.MetricName, platform.OutcomeError, time.Since(start))
		return nil, cerrors.MetricFetch(q.MetricName, err)
	}

	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	end := f.now().UTC()
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(q.Namespace),
		MetricName: aws.String(q.MetricName),
		Dimensions: []types.Dimension{
			{Name: aws.String("InstanceId"), Value: aws.String(q.InstanceID)},
		},
		StartTime:  aws.Time(end.Add(-units.DaysToDuration(q.WindowDays))),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(int32(q.PeriodSeconds)),
		Statistics: []types.Statistic{stat},
	}
	if q.Unit != "" {
		input.Unit = types.StandardUnit(q.Unit)
	}

	out, err := f.client.GetMetricStatistics(callCtx, input)
	if err != nil {
		f.metrics.ObserveMetricFetch(q.MetricName, platform.OutcomeError, time.Since(start))
		f.logger.Error().
			Err(err).
			Str("instance_id", q.InstanceID).
			Str("metric", q.MetricName).
			Str("namespace", q.Namespace).
			Msg("metric fetch failed")
		return nil, cerrors.MetricFetch(q.MetricName, err)
	}

	samples := make([]Sample, 0, len(out.Datapoints))
	for _, dp := range out.Datapoints {
		value, ok := statisticValue(dp, stat)
		if dp.Timestamp == nil || !ok {
			continue
		}
		samples = append(samples, Sample{Time: dp.Timestamp.UTC(), Value: value})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})

	outcome := platform.OutcomeOK
	if len(samples) == 0 {
		outcome = platform.OutcomeEmpty
	}
	f.metrics.ObserveMetricFetch(q.MetricName, outcome, time.Since(start))
	f.logger.Debug().
		Str("instance_id", q.InstanceID).
		Str("metric", q.MetricName).
		Int("samples", len(samples)).
		Msg("metric fetched")

	return samples, nil
}

func parseStatistic(name string) (types.Statistic, error) {
	for _, s := range types.StatisticAverage.Values() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown statistic %q", name)
}

func statisticValue(dp types.Datapoint, stat types.Statistic) (float64, bool) {
	var v *float64
	switch stat {
	case types.StatisticAverage:
		v = dp.Average
	case types.StatisticSum:
		v = dp.Sum
	case types.StatisticMinimum:
		v = dp.Minimum
	case types.StatisticMaximum:
		v = dp.Maximum
	case types.StatisticSampleCount:
		v = dp.SampleCount
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}
