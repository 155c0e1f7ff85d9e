package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// MIXPROOF_PROOF_HASHTYPE=sha256.
const EnvPrefix = "MIXPROOF"

// FromFile loads config from a specified file overriding defaults. If the file
// does not exist defaults are assumed, unless a fallback check refuses.
func FromFile(path string, opts ...LoadCfgOpt) (*Config, error) {
	loadOpts, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	path, err = homedir.Expand(path)
	if err != nil {
		return nil, xerrors.Errorf("expanding config path: %w", err)
	}

	file, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		if loadOpts.canFallbackOnDefault != nil {
			if err := loadOpts.canFallbackOnDefault(); err != nil {
				return nil, err
			}
		}
		return FromReader(strings.NewReader(""), opts...)
	case err != nil:
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	cfgBs, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config for validation checks %w", err)
	}
	if loadOpts.validate != nil {
		if err := loadOpts.validate(string(cfgBs)); err != nil {
			return nil, xerrors.Errorf("config failed validation: %w", err)
		}
	}
	return FromReader(bytes.NewReader(cfgBs), opts...)
}

// FromReader decodes TOML from reader on top of the defaults and then applies
// environment overrides.
func FromReader(reader io.Reader, opts ...LoadCfgOpt) (*Config, error) {
	loadOpts, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	md, err := toml.NewDecoder(reader).Decode(cfg)
	if err != nil {
		return nil, xerrors.Errorf("decoding config: %w", err)
	}

	var warningOut io.Writer = os.Stderr
	if loadOpts.warningWriter != nil {
		warningOut = loadOpts.warningWriter
	}
	for _, key := range md.Undecoded() {
		_, _ = fmt.Fprintf(warningOut, "WARNING: Unknown configuration option '%s' is ignored\n", key.String())
	}

	err = envconfig.Process(EnvPrefix, cfg)
	if err != nil {
		return nil, xerrors.Errorf("processing env vars overrides: %w", err)
	}

	if _, err := cfg.Proof.Hasher(); err != nil {
		return nil, xerrors.Errorf("invalid proof config: %w", err)
	}
	if cfg.Proof.ChunkSize <= 0 {
		return nil, xerrors.Errorf("invalid proof config: chunk size must be positive, got %d", cfg.Proof.ChunkSize)
	}
	if cfg.Challenge.NoncePosition > uint32(cfg.Proof.ChunkSize) {
		return nil, xerrors.Errorf("nonce position %d is past the end of a %d byte chunk", cfg.Challenge.NoncePosition, cfg.Proof.ChunkSize)
	}

	return cfg, nil
}

// Render encodes cfg as TOML.
func Render(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, xerrors.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// SubsystemNames lists the subsystems with an explicit log level, sorted.
func (c *Config) SubsystemNames() []string {
	names := lo.Keys(c.Logging.SubsystemLevels)
	slices.Sort(names)
	return names
}

type cfgLoadOpts struct {
	canFallbackOnDefault func() error
	validate             func(string) error
	warningWriter        io.Writer
}

type LoadCfgOpt func(opts *cfgLoadOpts) error

func applyOpts(opts ...LoadCfgOpt) (cfgLoadOpts, error) {
	var loadOpts cfgLoadOpts
	var err error
	for _, opt := range opts {
		if err = opt(&loadOpts); err != nil {
			return loadOpts, fmt.Errorf("failed to apply load cfg option: %w", err)
		}
	}
	return loadOpts, nil
}

func SetCanFallbackOnDefault(f func() error) LoadCfgOpt {
	return func(opts *cfgLoadOpts) error {
		opts.canFallbackOnDefault = f
		return nil
	}
}

func SetValidate(f func(string) error) LoadCfgOpt {
	return func(opts *cfgLoadOpts) error {
		opts.validate = f
		return nil
	}
}

func SetWarningWriter(w io.Writer) LoadCfgOpt {
	return func(opts *cfgLoadOpts) error {
		opts.warningWriter = w
		return nil
	}
}
