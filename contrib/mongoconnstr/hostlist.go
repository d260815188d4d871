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

// HostList is the ordered set of servers named by the Host keyword.  More than
// one endpoint makes the list paired.  Duplicates are permitted.
type HostList struct {
	endpoints []HostEndpoint
}

func NewHostList(endpoints ...HostEndpoint) *HostList {
	l := &HostList{}
	l.endpoints = append(l.endpoints, endpoints...)
	return l
}

// ParseHostList parses `host[:port](,host[:port])*`.  Empty input yields an
// empty list and malformed tokens are skipped.
func ParseHostList(hostPart string) (*HostList, error) {
	l, _, err := parseHostList(hostPart)
	return l, err
}

func parseHostList(hostPart string) (*HostList, []string, error) {
	l := &HostList{}
	var dropped []string

	for _, token := range splitNonEmpty(hostPart, ",") {
		endpoint, ok, err := ParseHostEndpoint(token)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			dropped = append(dropped, token)
			continue
		}

		l.endpoints = append(l.endpoints, endpoint)
	}

	return l, dropped, nil
}

func (l *HostList) Add(endpoint HostEndpoint) {
	l.endpoints = append(l.endpoints, endpoint)
}

func (l *HostList) AddHost(host string, port int) {
	l.Add(HostEndpoint{Host: host, Port: port})
}

func (l *HostList) Len() int {
	return len(l.endpoints)
}

// Endpoints returns a copy of the endpoints in order.
func (l *HostList) Endpoints() []HostEndpoint {
	out := make([]HostEndpoint, len(l.endpoints))
	copy(out, l.endpoints)
	return out
}

// Left is the first endpoint, or the default endpoint when the list is empty.
func (l *HostList) Left() HostEndpoint {
	if len(l.endpoints) == 0 {
		return DefaultHostEndpoint()
	}
	return l.endpoints[0]
}

// Primary is an alias of Left.
func (l *HostList) Primary() HostEndpoint {
	return l.Left()
}

// Right is the second endpoint of a paired list.
func (l *HostList) Right() (HostEndpoint, bool) {
	if len(l.endpoints) < 2 {
		return HostEndpoint{}, false
	}
	return l.endpoints[1], true
}

func (l *HostList) IsPaired() bool {
	return len(l.endpoints) > 1
}

// String renders the Left endpoint alone for an unpaired list, otherwise
// every endpoint joined with commas.
func (l *HostList) String() string {
	if !l.IsPaired() {
		return l.Left().String()
	}

	parts := make([]string, len(l.endpoints))
	for i, endpoint := range l.endpoints {
		parts[i] = endpoint.String()
	}
	return strings.Join(parts, ",")
}

func (l *HostList) clone() *HostList {
	return NewHostList(l.endpoints...)
}
