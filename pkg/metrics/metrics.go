/*
Copyright 2026-Present Couchbase, Inc.

Use of this software is governed by the Business Source License included in
the file licenses/BSL-Couchbase.txt.  As of the Change Date specified in that
file, in accordance with the Business Source License, use of this software will
be governed by the Apache License, Version 2.0, included in the file
licenses/APL2.txt.
*/

package metrics

import (
	"context"
	"sync"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type ConnStrMetrics struct {
	Parses        metric.Int64Counter
	ParseFailures metric.Int64Counter
	DroppedItems  metric.Int64Counter
}

var (
	connStrMetrics     *ConnStrMetrics
	connStrMetricsLock sync.Mutex
)

func GetConnStrMetrics() *ConnStrMetrics {
	connStrMetricsLock.Lock()

	if connStrMetrics != nil {
		connStrMetricsLock.Unlock()
		return connStrMetrics
	}

	connStrMetrics = NewConnStrMetrics(otel.GetMeterProvider())

	connStrMetricsLock.Unlock()
	return connStrMetrics
}

func NewConnStrMetrics(provider metric.MeterProvider) *ConnStrMetrics {
	meter := provider.Meter("com.couchbase.stellar-connstr")

	parses, _ := meter.Int64Counter("connstr_parses_total")
	parseFailures, _ := meter.Int64Counter("connstr_parse_failures_total")
	droppedItems, _ := meter.Int64Counter("connstr_dropped_items_total")

	return &ConnStrMetrics{
		Parses:        parses,
		ParseFailures: parseFailures,
		DroppedItems:  droppedItems,
	}
}

// RecordParse counts a single parse attempt along with whatever the lenient
// parser skipped.  report may be nil when the parse failed.
func (m *ConnStrMetrics) RecordParse(ctx context.Context, report *mongoconnstr.ParseReport, err error) {
	m.Parses.Add(ctx, 1)

	if err != nil {
		m.ParseFailures.Add(ctx, 1)
		return
	}
	if report == nil {
		return
	}

	if n := len(report.DroppedSegments); n > 0 {
		m.DroppedItems.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", "segment")))
	}
	if n := len(report.DroppedHosts); n > 0 {
		m.DroppedItems.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", "host")))
	}
}
