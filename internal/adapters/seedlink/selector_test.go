package seedlink

import "testing"

func TestSelectorStringDefaults(t *testing.T) {
	sel := StreamSelector{Network: "UU", Station: "MPU"}
	if got, want := sel.selectorString(), "??*.D"; got != want {
		t.Fatalf("selectorString() = %q, want %q", got, want)
	}
}

func TestSelectorStringExplicit(t *testing.T) {
	sel := StreamSelector{Network: "UU", Station: "MPU", Channel: "HHZ", Location: "01", Type: "D"}
	if got, want := sel.selectorString(), "01HHZ.D"; got != want {
		t.Fatalf("selectorString() = %q, want %q", got, want)
	}
}

func TestOptionsValidateRejectsDuplicateSelectors(t *testing.T) {
	opts := Options{
		Host: "localhost",
		Selectors: []StreamSelector{
			{Network: "UU", Station: "MPU", Channel: "HHZ"},
			{Network: "UU", Station: "MPU", Channel: "HHZ"},
		},
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected duplicate-selector rejection")
	}
}

func TestOptionsValidateAcceptsDistinctSelectors(t *testing.T) {
	opts := Options{
		Host: "localhost",
		Selectors: []StreamSelector{
			{Network: "UU", Station: "MPU", Channel: "HHZ"},
			{Network: "UU", Station: "MPU", Channel: "HHN"},
		},
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestOptionsValidateAcceptsUniStationEmptySelectors(t *testing.T) {
	opts := Options{Host: "localhost"}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate: %v, want uni-station mode accepted", err)
	}
}

func TestOptionsApplyDefaults(t *testing.T) {
	var opts Options
	opts.ApplyDefaults()
	if opts.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d", opts.Port, DefaultPort)
	}
	if opts.StateFileUpdateInterval != DefaultStateFileUpdateInterval {
		t.Fatalf("StateFileUpdateInterval = %d, want %d", opts.StateFileUpdateInterval, DefaultStateFileUpdateInterval)
	}
	if opts.NetworkTimeout != DefaultNetworkTimeout {
		t.Fatalf("NetworkTimeout = %v, want %v", opts.NetworkTimeout, DefaultNetworkTimeout)
	}
}
