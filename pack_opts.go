package oaf

import (
	"log/slog"

	"github.com/google/uuid"
)

// DefaultFragmentSize is the fragment size threshold used when no
// PackWithFragmentSize option is set (2 MiB).
const DefaultFragmentSize int64 = 2 << 20

// packConfig holds configuration for packing.
type packConfig struct {
	fragmentSize int64
	headerLength int64
	idFunc       func() string
	logger       *slog.Logger
}

func defaultPackConfig() packConfig {
	return packConfig{
		fragmentSize: DefaultFragmentSize,
		headerLength: int64(FragmentHeaderLen),
		idFunc:       uuid.NewString,
	}
}

// PackOption configures packing.
type PackOption func(*packConfig)

// PackWithFragmentSize sets the size threshold that seals a fragment.
// A fragment is sealed as soon as it grows past n bytes, header included,
// so it may exceed n by up to one asset. Values <= 0 use DefaultFragmentSize.
func PackWithFragmentSize(n int64) PackOption {
	return func(cfg *packConfig) {
		if n <= 0 {
			n = DefaultFragmentSize
		}
		cfg.fragmentSize = n
	}
}

// PackWithHeaderLength sets the number of bytes reserved at the start of
// each fragment. It must match the header written by [WriteFragment]; the
// default is [FragmentHeaderLen].
func PackWithHeaderLength(n int64) PackOption {
	return func(cfg *packConfig) {
		if n < 0 {
			n = 0
		}
		cfg.headerLength = n
	}
}

// PackWithIDFunc sets the generator for fragment ids.
// The default issues random UUIDs.
func PackWithIDFunc(fn func() string) PackOption {
	return func(cfg *packConfig) {
		if fn != nil {
			cfg.idFunc = fn
		}
	}
}

// PackWithLogger sets the logger for packing decisions.
// If not set, logging is disabled.
func PackWithLogger(logger *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = logger
	}
}
