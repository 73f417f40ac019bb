package slink2dali

import (
	"github.com/uuss-seismo/slink2dali/internal/app/config"
	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// Re-exported sentinel errors for convenience.
var (
	ErrInvalidArgument  = domain.ErrInvalidArgument
	ErrNetworkTransient = domain.ErrNetworkTransient
	ErrNetworkFatal     = domain.ErrNetworkFatal
	ErrFatal            = domain.ErrFatal
)

// LoadConfig reads and validates the YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
