/*
Copyright 2026-Present Couchbase, Inc.

Use of this software is governed by the Business Source License included in
the file licenses/BSL-Couchbase.txt.  As of the Change Date specified in that
file, in accordance with the Business Source License, use of this software will
be governed by the Apache License, Version 2.0, included in the file
licenses/APL2.txt.
*/

package mongoconnstr

type ValueKind int

const (
	KindString ValueKind = iota
	KindHosts
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHosts:
		return "hosts"
	}
	return "unknown"
}

// Value is the content of a single keyword: either plain text or, for the
// Host keyword, a HostList.
type Value struct {
	kind  ValueKind
	str   string
	hosts *HostList
}

func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

func HostsValue(hosts *HostList) Value {
	if hosts == nil {
		hosts = NewHostList()
	}
	return Value{kind: KindHosts, hosts: hosts}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) Hosts() (*HostList, bool) {
	if v.kind != KindHosts {
		return nil, false
	}
	return v.hosts, true
}

// String renders the value as it appears in a connection string.
func (v Value) String() string {
	switch v.kind {
	case KindHosts:
		return v.hosts.String()
	default:
		return v.str
	}
}
