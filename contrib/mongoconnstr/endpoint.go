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
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 27017
)

var ErrInvalidPort = errors.New("invalid port")

// HostEndpoint identifies a single server.  It is a value type and is never
// modified once constructed.
type HostEndpoint struct {
	Host string
	Port int
}

func DefaultHostEndpoint() HostEndpoint {
	return HostEndpoint{Host: DefaultHost, Port: DefaultPort}
}

func NewHostEndpoint(host string) HostEndpoint {
	return HostEndpoint{Host: host, Port: DefaultPort}
}

// ParseHostEndpoint parses a single `host[:port]` token.  A token that is not
// made of one or two non-empty parts yields ok=false and no error, a port
// which is not an integer yields an error wrapping ErrInvalidPort.
func ParseHostEndpoint(token string) (HostEndpoint, bool, error) {
	parts := splitNonEmpty(token, ":")

	switch len(parts) {
	case 1:
		return NewHostEndpoint(strings.TrimSpace(parts[0])), true, nil
	case 2:
		// ports are 32-bit signed integers, anything larger is malformed
		port, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return HostEndpoint{}, false, errors.Wrapf(ErrInvalidPort, "host token %q: %s", token, err)
		}

		return HostEndpoint{Host: strings.TrimSpace(parts[0]), Port: int(port)}, true, nil
	}

	return HostEndpoint{}, false, nil
}

// String omits the port when it is the default one.
func (e HostEndpoint) String() string {
	if e.Port == DefaultPort {
		return e.Host
	}
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// Address always includes the port, in a form suitable for net.Dial.
func (e HostEndpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// splitNonEmpty splits s by sep and drops the empty pieces, matching the
// tolerance the descriptor format has for stray separators.
func splitNonEmpty(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := raw[:0]
	for _, part := range raw {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
