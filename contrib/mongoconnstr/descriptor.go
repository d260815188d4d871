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

	"github.com/couchbase/stellar-connstr/contrib/keywordstore"
	"github.com/pkg/errors"
)

// Reserved keywords.  All keyword matching is case-insensitive.
const (
	KeywordHost     = "Host"
	KeywordSlaveOk  = "SlaveOK"
	KeywordPassword = "Password"
	KeywordUserID   = "User ID"
)

const redactedPassword = "*****"

var ErrHostValueType = errors.New("host keyword requires a host list value")

type Entry struct {
	Keyword string
	Value   Value
}

// Descriptor is a parsed connection string.  The typed accessors are views
// over the underlying keyword store, nothing is cached separately.
//
// A Descriptor is not safe for concurrent use.  EnsureHost and
// ConnectionString may insert the Host keyword, so even those calls need
// external locking when shared.
type Descriptor struct {
	values *keywordstore.Store[Value]
}

func New() *Descriptor {
	return &Descriptor{
		values: keywordstore.New[Value](),
	}
}

// FromEntries copies the entries in order.  Values are stored as given,
// except that the Host keyword must hold a host list.
func FromEntries(entries ...Entry) (*Descriptor, error) {
	d := New()
	for _, e := range entries {
		err := d.Set(e.Keyword, e.Value)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func isHostKeyword(keyword string) bool {
	return keywordstore.EqualKeywords(keyword, KeywordHost)
}

// IsPasswordKeyword reports whether keyword addresses the password, using the
// same matching as the keyword store.
func IsPasswordKeyword(keyword string) bool {
	return keywordstore.EqualKeywords(keyword, KeywordPassword)
}

func (d *Descriptor) Get(keyword string) (Value, bool) {
	return d.values.Get(keyword)
}

// Set stores value for keyword, replacing any existing value in place.
func (d *Descriptor) Set(keyword string, value Value) error {
	if isHostKeyword(keyword) && value.Kind() != KindHosts {
		return errors.Wrapf(ErrHostValueType, "keyword %q", keyword)
	}

	d.values.Set(keyword, value)
	return nil
}

// SetString stores a raw value the same way parsing would: the Host keyword
// is parsed as a host list, everything else is kept as text.
func (d *Descriptor) SetString(keyword string, value string) error {
	if isHostKeyword(keyword) {
		hosts, err := ParseHostList(value)
		if err != nil {
			return err
		}

		d.values.Set(keyword, HostsValue(hosts))
		return nil
	}

	d.values.Set(keyword, StringValue(value))
	return nil
}

func (d *Descriptor) Remove(keyword string) bool {
	return d.values.Remove(keyword)
}

func (d *Descriptor) Len() int {
	return d.values.Len()
}

func (d *Descriptor) Keywords() []string {
	return d.values.Keys()
}

func (d *Descriptor) Entries() []Entry {
	entries := make([]Entry, 0, d.values.Len())
	d.values.Range(func(keyword string, value Value) bool {
		entries = append(entries, Entry{Keyword: keyword, Value: value})
		return true
	})
	return entries
}

// Host returns the host list without modifying the descriptor.
func (d *Descriptor) Host() (*HostList, bool) {
	v, ok := d.values.Get(KeywordHost)
	if !ok {
		return nil, false
	}
	return v.Hosts()
}

// EnsureHost inserts an empty host list under the Host keyword when there is
// none, and returns the stored list.  Changes to the returned list are
// reflected in the descriptor.
func (d *Descriptor) EnsureHost() *HostList {
	if hosts, ok := d.Host(); ok {
		return hosts
	}

	hosts := NewHostList()
	d.values.Set(KeywordHost, HostsValue(hosts))
	return hosts
}

func (d *Descriptor) SlaveOk() bool {
	v, ok := d.values.Get(KeywordSlaveOk)
	if !ok {
		return false
	}

	s, ok := v.Str()
	if !ok {
		return false
	}

	return strings.EqualFold(s, "True")
}

func (d *Descriptor) SetSlaveOk(slaveOk bool) {
	if slaveOk {
		d.values.Set(KeywordSlaveOk, StringValue("True"))
	} else {
		d.values.Set(KeywordSlaveOk, StringValue("False"))
	}
}

func (d *Descriptor) stringKeyword(keyword string) (string, bool) {
	v, ok := d.values.Get(keyword)
	if !ok {
		return "", false
	}
	return v.Str()
}

func (d *Descriptor) UserID() (string, bool) {
	return d.stringKeyword(KeywordUserID)
}

func (d *Descriptor) SetUserID(userID string) {
	d.values.Set(KeywordUserID, StringValue(userID))
}

func (d *Descriptor) Password() (string, bool) {
	return d.stringKeyword(KeywordPassword)
}

func (d *Descriptor) SetPassword(password string) {
	d.values.Set(KeywordPassword, StringValue(password))
}

// ConnectionString returns the canonical `key=value;...` form in keyword
// order.  It calls EnsureHost first, so a descriptor without a Host keyword
// gains one at the end.  Values are not escaped, so a value containing `;`
// or `=` does not survive a round trip.
func (d *Descriptor) ConnectionString() string {
	d.EnsureHost()
	return d.join(false)
}

// RedactedString is ConnectionString with the password masked, for logs.
func (d *Descriptor) RedactedString() string {
	d.EnsureHost()
	return d.join(true)
}

func (d *Descriptor) String() string {
	return d.ConnectionString()
}

func (d *Descriptor) join(redact bool) string {
	pairs := make([]string, 0, d.values.Len())
	d.values.Range(func(keyword string, value Value) bool {
		valueStr := value.String()
		if redact && IsPasswordKeyword(keyword) {
			valueStr = redactedPassword
		}

		pairs = append(pairs, keyword+"="+valueStr)
		return true
	})
	return strings.Join(pairs, ";")
}

// Clone returns a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	out := &Descriptor{
		values: d.values.Clone(),
	}
	out.values.Range(func(keyword string, value Value) bool {
		if hosts, ok := value.Hosts(); ok {
			out.values.Set(keyword, HostsValue(hosts.clone()))
		}
		return true
	})
	return out
}
