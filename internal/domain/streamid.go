package domain

import (
	"fmt"
	"strings"
)

// StreamIdentifier is the canonical network/station/channel/location tuple
// that addresses a single seismic channel (an "SNCL"). All four fields are
// normalized to whitespace-stripped uppercase ASCII; the location code may
// be set to the empty string but must be explicitly set before the
// identifier is considered complete.
type StreamIdentifier struct {
	network      string
	station      string
	channel      string
	location     string
	hasLocation  bool
	canonical    string
	canonicalSet bool
}

// NewStreamIdentifier builds a fully-set identifier in one call, returning
// ErrInvalidArgument if network, station, or channel is empty after
// whitespace removal.
func NewStreamIdentifier(network, station, channel, location string) (StreamIdentifier, error) {
	var id StreamIdentifier
	if err := id.SetNetwork(network); err != nil {
		return StreamIdentifier{}, err
	}
	if err := id.SetStation(station); err != nil {
		return StreamIdentifier{}, err
	}
	if err := id.SetChannel(channel); err != nil {
		return StreamIdentifier{}, err
	}
	if err := id.SetLocationCode(location); err != nil {
		return StreamIdentifier{}, err
	}
	return id, nil
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// SetNetwork sets the network code. Returns ErrInvalidArgument if network is
// empty after whitespace removal.
func (s *StreamIdentifier) SetNetwork(network string) error {
	if isBlank(network) {
		return fmt.Errorf("network is empty: %w", ErrInvalidArgument)
	}
	s.network = normalize(network)
	s.invalidate()
	return nil
}

// Network returns the network code. Returns ErrNotSet if it was never set.
func (s StreamIdentifier) Network() (string, error) {
	if !s.HasNetwork() {
		return "", fmt.Errorf("network: %w", ErrNotSet)
	}
	return s.network, nil
}

// HasNetwork reports whether the network code was set.
func (s StreamIdentifier) HasNetwork() bool { return s.network != "" }

// SetStation sets the station name. Returns ErrInvalidArgument if station is
// empty after whitespace removal.
func (s *StreamIdentifier) SetStation(station string) error {
	if isBlank(station) {
		return fmt.Errorf("station is empty: %w", ErrInvalidArgument)
	}
	s.station = normalize(station)
	s.invalidate()
	return nil
}

// Station returns the station name. Returns ErrNotSet if it was never set.
func (s StreamIdentifier) Station() (string, error) {
	if !s.HasStation() {
		return "", fmt.Errorf("station: %w", ErrNotSet)
	}
	return s.station, nil
}

// HasStation reports whether the station name was set.
func (s StreamIdentifier) HasStation() bool { return s.station != "" }

// SetChannel sets the channel code. Returns ErrInvalidArgument if channel is
// empty after whitespace removal.
func (s *StreamIdentifier) SetChannel(channel string) error {
	if isBlank(channel) {
		return fmt.Errorf("channel is empty: %w", ErrInvalidArgument)
	}
	s.channel = normalize(channel)
	s.invalidate()
	return nil
}

// Channel returns the channel code. Returns ErrNotSet if it was never set.
func (s StreamIdentifier) Channel() (string, error) {
	if !s.HasChannel() {
		return "", fmt.Errorf("channel: %w", ErrNotSet)
	}
	return s.channel, nil
}

// HasChannel reports whether the channel code was set.
func (s StreamIdentifier) HasChannel() bool { return s.channel != "" }

// SetLocationCode sets the location code. Unlike the other three fields, an
// empty (or all-whitespace) value is legal and simply records "set, but
// blank" -- the canonical form then omits the location segment entirely.
func (s *StreamIdentifier) SetLocationCode(location string) error {
	if isBlank(location) {
		s.location = ""
	} else {
		s.location = normalize(location)
	}
	s.hasLocation = true
	s.invalidate()
	return nil
}

// LocationCode returns the location code. Returns ErrNotSet if it was never
// set (an empty-but-set location returns "", nil).
func (s StreamIdentifier) LocationCode() (string, error) {
	if !s.hasLocation {
		return "", fmt.Errorf("location code: %w", ErrNotSet)
	}
	return s.location, nil
}

// HasLocationCode reports whether the location code was set (possibly to
// the empty string).
func (s StreamIdentifier) HasLocationCode() bool { return s.hasLocation }

func (s *StreamIdentifier) invalidate() {
	s.canonical = ""
	s.canonicalSet = false
}

// Canonical returns "NET.STA.CHA[.LOC]", omitting the location segment when
// it is set-but-empty. Returns ErrNotSet if network, station, channel, or
// the location-presence flag is missing.
func (s *StreamIdentifier) Canonical() (string, error) {
	if s.canonicalSet {
		return s.canonical, nil
	}
	if !s.HasNetwork() {
		return "", fmt.Errorf("network: %w", ErrNotSet)
	}
	if !s.HasStation() {
		return "", fmt.Errorf("station: %w", ErrNotSet)
	}
	if !s.HasChannel() {
		return "", fmt.Errorf("channel: %w", ErrNotSet)
	}
	if !s.hasLocation {
		return "", fmt.Errorf("location code: %w", ErrNotSet)
	}
	result := s.network + "." + s.station + "." + s.channel
	if s.location != "" {
		result += "." + s.location
	}
	s.canonical = result
	s.canonicalSet = true
	return result, nil
}

// DataLinkName returns the DataLink-flavored rendering
// "NET_STA_LOC_CHA/MSEED", with an empty location yielding a bare "__".
func (s *StreamIdentifier) DataLinkName() (string, error) {
	network, err := s.Network()
	if err != nil {
		return "", err
	}
	station, err := s.Station()
	if err != nil {
		return "", err
	}
	location, err := s.LocationCode()
	if err != nil {
		return "", err
	}
	channel, err := s.Channel()
	if err != nil {
		return "", err
	}
	return network + "_" + station + "_" + location + "_" + channel + "/MSEED", nil
}

// MetricsKey returns the lowercased "net_sta_cha[_loc]" key used to index
// per-stream metrics slots.
func (s *StreamIdentifier) MetricsKey() (string, error) {
	network, err := s.Network()
	if err != nil {
		return "", err
	}
	station, err := s.Station()
	if err != nil {
		return "", err
	}
	channel, err := s.Channel()
	if err != nil {
		return "", err
	}
	key := network + "_" + station + "_" + channel
	if s.hasLocation && s.location != "" {
		key += "_" + s.location
	}
	return strings.ToLower(key), nil
}

// Equal reports whether two identifiers have the same canonical string.
// Identifiers that are not fully set are never equal to anything, including
// another not-fully-set identifier.
func (s *StreamIdentifier) Equal(other *StreamIdentifier) bool {
	a, errA := s.Canonical()
	b, errB := other.Canonical()
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

// Less orders two identifiers by their canonical string; used for
// deterministic iteration in tests and metrics dumps.
func (s *StreamIdentifier) Less(other *StreamIdentifier) bool {
	a, errA := s.Canonical()
	b, errB := other.Canonical()
	if errA != nil || errB != nil {
		return errA == nil && errB != nil
	}
	return a < b
}

// String implements fmt.Stringer by returning the canonical form, or a
// placeholder if the identifier is not yet complete.
func (s *StreamIdentifier) String() string {
	canonical, err := s.Canonical()
	if err != nil {
		return "<incomplete stream identifier>"
	}
	return canonical
}
