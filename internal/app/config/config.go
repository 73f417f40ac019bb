// Package config loads the pipeline's YAML configuration file, mapping the
// original INI [General]/[SEEDLink]/[DataLink_i] section layout onto Go
// structs the way internal/app/config.Config maps
// [opcua]/[timescale]/[metrics]/[wal] sections: one struct field per
// section, defaults and validation delegated to each adapter's own
// Options type.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uuss-seismo/slink2dali/internal/adapters/datalink"
	"github.com/uuss-seismo/slink2dali/internal/adapters/seedlink"
)

// GeneralConfig mirrors the original [General] section.
type GeneralConfig struct {
	LogLevel string `yaml:"log_level"`
}

func (g *GeneralConfig) applyDefaults() {
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
}

// SEEDLinkConfig mirrors [SEEDLink], flattening StreamSelector into a YAML
// list.
type SEEDLinkConfig struct {
	Host string `yaml:"host"`
	Port int `yaml:"port"`
	StateFile string `yaml:"state_file"`
	StateFileUpdateInterval int `yaml:"state_file_update_interval"`
	DeleteStateOnStart bool `yaml:"delete_state_on_start"`
	DeleteStateOnStop bool `yaml:"delete_state_on_stop"`
	NetworkTimeoutSeconds int `yaml:"network_timeout"`
	NetworkReconnectSeconds int `yaml:"network_reconnect_delay"`
	Selectors []SEEDLinkSelectorConfig `yaml:"selectors"`
}

// SEEDLinkSelectorConfig mirrors one selector entry.
type SEEDLinkSelectorConfig struct {
	Network string `yaml:"network"`
	Station string `yaml:"station"`
	Channel string `yaml:"channel"`
	Location string `yaml:"location"`
	Type string `yaml:"type"`
}

// ToOptions renders the YAML section into seedlink.Options.
func (s SEEDLinkConfig) ToOptions() seedlink.Options {
	opts := seedlink.Options{
		Host: s.Host,
		Port: s.Port,
		StateFile: s.StateFile,
		StateFileUpdateInterval: s.StateFileUpdateInterval,
		DeleteStateOnStart: s.DeleteStateOnStart,
		DeleteStateOnStop: s.DeleteStateOnStop,
		NetworkTimeout: time.Duration(s.NetworkTimeoutSeconds) * time.Second,
		NetworkReconnectDelay: time.Duration(s.NetworkReconnectSeconds) * time.Second,
	}
	for _, sel := range s.Selectors {
		opts.Selectors = append(opts.Selectors, seedlink.StreamSelector{
			Network: sel.Network,
			Station: sel.Station,
			Channel: sel.Channel,
			Location: sel.Location,
			Type: sel.Type,
		})
	}
	return opts
}

// DataLinkConfig mirrors one numbered [DataLink_i] section: the pipeline
// may publish to several ring servers at once.
type DataLinkConfig struct {
	Host string `yaml:"host"`
	Port int `yaml:"port"`
	Identifier string `yaml:"identifier"`
	MaxQueue int `yaml:"max_queue_size"`
	RecordSize int `yaml:"record_size"`
	WriteMSEED3 bool `yaml:"write_mseed3"`
}

// ToOptions renders the YAML section into datalink.Options.
func (d DataLinkConfig) ToOptions() datalink.Options {
	return datalink.Options{
		Host: d.Host,
		Port: d.Port,
		Identifier: d.Identifier,
		MaxQueueSize: d.MaxQueue,
		RecordSize: d.RecordSize,
		WriteMSEED3: d.WriteMSEED3,
	}
}

// MetricsConfig mirrors [OTelHTTPMetricsOptions]: the HTTP address the
// Prometheus handler listens on.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func (m *MetricsConfig) applyDefaults() {
	if m.Addr == "" {
		m.Addr = ":9100"
	}
}

// Config is the full pipeline configuration.
type Config struct {
	General GeneralConfig `yaml:"general"`
	SEEDLink SEEDLinkConfig `yaml:"seedlink"`
	DataLink []DataLinkConfig `yaml:"datalink"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Load reads and parses the YAML file at path, applying defaults and
// validating that at least one DataLink section is present.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.General.applyDefaults()
	c.Metrics.applyDefaults()
}

func (c *Config) validate() error {
	if len(c.DataLink) == 0 {
		return fmt.Errorf("at least one datalink section is required")
	}
	return nil
}
