package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"
)

// Metrics writes order and payment figures to CloudWatch.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{CloudWatch: cw, Namespace: namespace, nowFunc: time.Now}
}

// RecordOrderPlaced emits OrdersPlaced and OrderValue, split by placement kind.
func (m *Metrics) RecordOrderPlaced(ctx context.Context, merged bool, total decimal.Decimal) error {
	kind := "new"
	if merged {
		kind = "merged"
	}
	dims := []cwtypes.Dimension{{Name: sdkaws.String("Placement"), Value: sdkaws.String(kind)}}
	return m.put(ctx,
		m.datum("OrdersPlaced", 1, cwtypes.StandardUnitCount, dims),
		m.datum("OrderValue", total.InexactFloat64(), cwtypes.StandardUnitNone, dims),
	)
}

func (m *Metrics) RecordPayment(ctx context.Context, amount decimal.Decimal) error {
	return m.put(ctx,
		m.datum("PaymentsRecorded", 1, cwtypes.StandardUnitCount, nil),
		m.datum("PaymentAmount", amount.InexactFloat64(), cwtypes.StandardUnitNone, nil),
	)
}

func (m *Metrics) datum(name string, value float64, unit cwtypes.StandardUnit, dims []cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(value),
		Unit:       unit,
		Timestamp:  sdkaws.Time(m.nowFunc()),
		Dimensions: dims,
	}
}

func (m *Metrics) put(ctx context.Context, data ...cwtypes.MetricDatum) error {
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.Namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
