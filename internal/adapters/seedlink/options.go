// Package seedlink implements the SEEDLink source: a reconnecting TCP
// client that negotiates a stream selection with a ring server, collects
// packets, and unpacks them into domain.Packets for the coordinator's
// ingress queue. It is grounded on
// original_source/include/uSEEDLinkToRingServer/{seedLinkClient,
// seedLinkClientOptions}.hpp for the handshake sequence and option set, and
// on internal/adapters/opcua.Collector for the
// Start/Stop/consume goroutine shape every Task in this pipeline follows.
package seedlink

import (
	"fmt"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

const (
	DefaultPort = 18000
	DefaultStateFileUpdateInterval = 100
	DefaultNetworkTimeout = 600 * time.Second
	DefaultNetworkReconnectDelay = 30 * time.Second
)

// StreamSelector names one network/station/channel/location/type the
// client asks the ring server to stream. Channel defaults to "*" and
// Location to "??" on the wire when left blank; Type defaults to "D"
// (data) records.
type StreamSelector struct {
	Network string
	Station string
	Channel string
	Location string
	Type string
}

// selectorString renders the SEEDLink SELECT wire syntax:
// "LLCCC.T" (location, channel, dot, type), following
// seedLinkClientOptions.cpp's selector builder.
func (s StreamSelector) selectorString() string {
	location := s.Location
	if location == "" {
		location = "??"
	}
	channel := s.Channel
	if channel == "" {
		channel = "*"
	}
	typ := s.Type
	if typ == "" {
		typ = "D"
	}
	return fmt.Sprintf("%s%s.%s", location, channel, typ)
}

func (s StreamSelector) key() string {
	return s.Network + "." + s.Station + "." + s.selectorString()
}

func (s StreamSelector) validate() error {
	if isBlankField(s.Network) {
		return fmt.Errorf("selector network is empty: %w", domain.ErrInvalidArgument)
	}
	if isBlankField(s.Station) {
		return fmt.Errorf("selector station is empty: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func isBlankField(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

// Options configures a Source.
type Options struct {
	Host string
	Port int

	// StateFile, if set, persists the sequence number of the last
	// successfully collected packet and loads it again on Start. The
	// handshake does not send that number to the server: every connection
	// starts streaming from the server's live head.
	StateFile string
	StateFileUpdateInterval int
	DeleteStateOnStart bool
	DeleteStateOnStop bool

	NetworkTimeout time.Duration
	NetworkReconnectDelay time.Duration
	Selectors []StreamSelector
	// MaxNameLength caps the rendered "NET STA" station line at 199
	// characters, per the ring server's fixed line-length assumption.
	MaxNameLength int
}

const defaultMaxNameLength = 199

// ApplyDefaults fills unset fields with the package defaults, following
// the ApplyDefaults-then-Validate convention the rest of this tree's
// Options types use.
func (o *Options) ApplyDefaults() {
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.StateFileUpdateInterval <= 0 {
		o.StateFileUpdateInterval = DefaultStateFileUpdateInterval
	}
	if o.NetworkTimeout <= 0 {
		o.NetworkTimeout = DefaultNetworkTimeout
	}
	if o.NetworkReconnectDelay <= 0 {
		o.NetworkReconnectDelay = DefaultNetworkReconnectDelay
	}
	if o.MaxNameLength <= 0 {
		o.MaxNameLength = defaultMaxNameLength
	}
}

// Validate rejects a Host-less config and duplicate selectors (same
// network/station/selector-string), mirroring seedLinkClientOptions.cpp's
// rejection of a redundant SELECT. An empty selector list is not an error:
// it requests uni-station mode, where the client skips STATION/SELECT
// negotiation entirely and lets the server's own single-station
// configuration decide what gets streamed.
func (o *Options) Validate() error {
	if isBlankField(o.Host) {
		return fmt.Errorf("host is required: %w", domain.ErrInvalidArgument)
	}
	seen := make(map[string]bool, len(o.Selectors))
	for _, sel := range o.Selectors {
		if err := sel.validate(); err != nil {
			return err
		}
		if len(sel.Network+" "+sel.Station) > o.MaxNameLength {
			return fmt.Errorf("station name exceeds %d characters: %w", o.MaxNameLength, domain.ErrInvalidArgument)
		}
		k := sel.key()
		if seen[k] {
			return fmt.Errorf("duplicate selector %q: %w", k, domain.ErrInvalidArgument)
		}
		seen[k] = true
	}
	return nil
}
