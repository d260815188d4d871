/*
Copyright 2026-Present Couchbase, Inc.

Use of this software is governed by the Business Source License included in
the file licenses/BSL-Couchbase.txt.  As of the Change Date specified in that
file, in accordance with the Business Source License, use of this software will
be governed by the Apache License, Version 2.0, included in the file
licenses/APL2.txt.
*/

package mongoconnstr

import (
	"strings"
)

// ParseReport lists the pieces of a connection string which the parser
// skipped.  Skipping is not an error, the report only exists so that callers
// can surface it.
type ParseReport struct {
	// DroppedSegments holds `;` separated segments which were not of the form
	// `key=value`.
	DroppedSegments []string

	// DroppedHosts holds host tokens which were not of the form `host[:port]`.
	DroppedHosts []string

	// Overwritten holds keywords which appeared more than once.  The last
	// occurrence wins.
	Overwritten []string
}

func (r *ParseReport) Empty() bool {
	return len(r.DroppedSegments) == 0 &&
		len(r.DroppedHosts) == 0 &&
		len(r.Overwritten) == 0
}

// Parse reads a `key=value;key=value` connection string.  Malformed segments
// and host tokens are skipped, a non-numeric port aborts the parse with an
// error wrapping ErrInvalidPort.
func Parse(connStr string) (*Descriptor, error) {
	d, _, err := ParseWithReport(connStr)
	return d, err
}

func ParseWithReport(connStr string) (*Descriptor, *ParseReport, error) {
	d := New()
	report := &ParseReport{}

	for _, segment := range splitNonEmpty(connStr, ";") {
		parts := splitNonEmpty(segment, "=")
		if len(parts) != 2 {
			report.DroppedSegments = append(report.DroppedSegments, segment)
			continue
		}

		keyword := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if keyword == "" {
			report.DroppedSegments = append(report.DroppedSegments, segment)
			continue
		}

		if d.values.Has(keyword) {
			report.Overwritten = append(report.Overwritten, keyword)
		}

		if isHostKeyword(keyword) {
			hosts, dropped, err := parseHostList(value)
			if err != nil {
				return nil, nil, err
			}

			report.DroppedHosts = append(report.DroppedHosts, dropped...)
			d.values.Set(keyword, HostsValue(hosts))
			continue
		}

		d.values.Set(keyword, StringValue(value))
	}

	return d, report, nil
}
