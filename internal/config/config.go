// Package config loads the pipeline configuration.
//
// The file is YAML. It is checked twice: first against the embedded CUE
// schema, which reports bad values with their path, then decoded strictly
// so unknown keys are rejected. Anything the file leaves out keeps its
// default.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/orderingest/internal/archive"
	"github.com/roach88/orderingest/internal/extract"
	"github.com/roach88/orderingest/internal/fingerprint"
	"github.com/roach88/orderingest/internal/order"
	"github.com/roach88/orderingest/internal/output"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "config/orderingest.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete pipeline configuration.
type Config struct {
	Paths       Paths               `yaml:"paths"`
	Shops       Shops               `yaml:"shops"`
	Fingerprint Fingerprint         `yaml:"fingerprint"`
	Archive     Archive             `yaml:"archive"`
	Retry       Retry               `yaml:"retry"`
	Filter      Filter              `yaml:"filter"`
	Columns     map[string][]string `yaml:"columns"`
	Sort        Sort                `yaml:"sort"`
	Inbound     Inbound             `yaml:"inbound"`
	Output      Output              `yaml:"output"`
	Run         Run                 `yaml:"run"`
	Ledger      Ledger              `yaml:"ledger"`
	Logging     Logging             `yaml:"logging"`
}

type Paths struct {
	Inbound   string `yaml:"inbound"`
	Archive   string `yaml:"archive"`
	Processed string `yaml:"processed"`
	Logs      string `yaml:"logs"`
}

type Shops struct {
	Path     string `yaml:"path"`
	Platform string `yaml:"platform"`
}

type Fingerprint struct {
	PrefixLength int `yaml:"prefix_length"`
}

type Archive struct {
	Tag string `yaml:"tag"`
}

type Retry struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

type Filter struct {
	PendingStatuses []string `yaml:"pending_statuses"`
}

type Sort struct {
	Locale string `yaml:"locale"`
}

type Inbound struct {
	Extensions               []string `yaml:"extensions"`
	RemoveArchivedDuplicates bool     `yaml:"remove_archived_duplicates"`
	ShopTokenPattern         string   `yaml:"shop_token_pattern"`
	Sheet                    string   `yaml:"sheet"`
}

type Output struct {
	HeaderLang string `yaml:"header_lang"`
}

type Run struct {
	Workers int `yaml:"workers"`
}

type Ledger struct {
	Path string `yaml:"path"`
}

type Logging struct {
	Retention time.Duration `yaml:"retention"`
}

// Default returns the configuration used when no file is present. Paths
// are relative to the working directory.
func Default() Config {
	return Config{
		Paths: Paths{
			Inbound:   "data_raw",
			Archive:   "data_archive",
			Processed: "data_processed",
			Logs:      "logs",
		},
		Shops: Shops{
			Path:     filepath.Join("config", "A02_Shops_Master - Shops_Master.csv"),
			Platform: "Shopee",
		},
		Fingerprint: Fingerprint{PrefixLength: fingerprint.DefaultPrefixLength},
		Archive:     Archive{Tag: archive.DefaultTag},
		Retry:       Retry{Attempts: archive.DefaultAttempts, BaseDelay: archive.DefaultBaseDelay},
		Filter:      Filter{PendingStatuses: append([]string(nil), order.DefaultPendingStatuses...)},
		Sort:        Sort{Locale: order.DefaultLocale},
		Inbound: Inbound{
			Extensions:               []string{".xlsx", ".csv"},
			RemoveArchivedDuplicates: true,
			ShopTokenPattern:         extract.DefaultShopTokenPattern,
		},
		Output:  Output{HeaderLang: output.LangZH},
		Run:     Run{Workers: 1},
		Logging: Logging{Retention: 48 * time.Hour},
	}
}

// Load reads path over the defaults. When optional is set a missing file
// yields the defaults instead of an error.
func Load(path string, optional bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates and decodes YAML config data over the defaults.
func Parse(data []byte) (Config, error) {
	if err := validate(data); err != nil {
		return Config{}, err
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

// validate checks the raw document against the CUE schema.
func validate(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalid, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
	}
	return nil
}

// Resolve makes every relative path absolute against base.
func (c *Config) Resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Paths.Inbound = abs(c.Paths.Inbound)
	c.Paths.Archive = abs(c.Paths.Archive)
	c.Paths.Processed = abs(c.Paths.Processed)
	c.Paths.Logs = abs(c.Paths.Logs)
	c.Shops.Path = abs(c.Shops.Path)
	c.Ledger.Path = abs(c.Ledger.Path)
}

// Namer returns the archive naming scheme.
func (c *Config) Namer() archive.Namer {
	return archive.Namer{Tag: c.Archive.Tag, PrefixLength: c.Fingerprint.PrefixLength}
}

// RetryPolicy returns the archive move retry policy.
func (c *Config) RetryPolicy() archive.RetryPolicy {
	return archive.RetryPolicy{Attempts: c.Retry.Attempts, BaseDelay: c.Retry.BaseDelay}
}

// ColumnAliases returns the configured header aliases per field.
func (c *Config) ColumnAliases() map[extract.Field][]string {
	out := make(map[extract.Field][]string, len(c.Columns))
	for k, v := range c.Columns {
		out[extract.Field(k)] = v
	}
	return out
}
