package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the reconciliation flow.
const (
	MetricReconcileSucceeded = "ReconcileSucceeded"
	MetricReconcileDuplicate = "ReconcileDuplicate"
	MetricReconcileNotPaid   = "ReconcileNotPaid"
)

// Metrics emits outcome counters to CloudWatch. Callers treat failures as
// best-effort: a metrics outage must never fail a payment.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetrics returns a Metrics publisher under the given namespace.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
	}
}

// Count bumps a counter metric by 1.
func (m *Metrics) Count(ctx context.Context, name string) error {
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
