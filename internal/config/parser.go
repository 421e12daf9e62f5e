package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func defaultParserConfig() ParserConfig {
	return ParserConfig{
		Concurrency:           3,
		ArchiveEstimate:       5,
		CacheTTL:              24 * time.Hour,
		DatasetBackwardWindow: 500,
		DatasetModeWindow:     200,
	}
}

// loadParserConfig layers defaults, the optional DSX_PARSER_CONFIG file and
// DSX_* environment variables, in that order.
func loadParserConfig() (ParserConfig, error) {
	p := defaultParserConfig()
	if path := os.Getenv("DSX_PARSER_CONFIG"); path != "" {
		if err := p.mergeFile(path); err != nil {
			return ParserConfig{}, err
		}
	}

	p.Concurrency = envInt("DSX_CONCURRENCY", p.Concurrency)
	p.ArchiveEstimate = envInt("DSX_ARCHIVE_ESTIMATE", p.ArchiveEstimate)
	p.CacheTTL = envDuration("DSX_CACHE_TTL", p.CacheTTL)
	p.DatasetBackwardWindow = envInt("DSX_DATASET_BACKWARD_WINDOW", p.DatasetBackwardWindow)
	p.DatasetModeWindow = envInt("DSX_DATASET_MODE_WINDOW", p.DatasetModeWindow)
	p.TransformExclude = envList("DSX_TRANSFORM_EXCLUDE", p.TransformExclude)
	p.TransformExcludePrefixes = envList("DSX_TRANSFORM_EXCLUDE_PREFIXES", p.TransformExcludePrefixes)
	return p, nil
}

// mergeFile overlays the keys present in a YAML file. Unknown keys are
// rejected so a typo does not silently fall back to a default.
func (p *ParserConfig) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("DSX_PARSER_CONFIG: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("DSX_PARSER_CONFIG %s: %w", path, err)
	}
	return nil
}

func (p ParserConfig) validate() error {
	var errs []error
	if p.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("DSX_CONCURRENCY must be at least 1, got %d", p.Concurrency))
	}
	if p.ArchiveEstimate < 1 {
		errs = append(errs, fmt.Errorf("DSX_ARCHIVE_ESTIMATE must be at least 1, got %d", p.ArchiveEstimate))
	}
	if p.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("DSX_CACHE_TTL must not be negative, got %s", p.CacheTTL))
	}
	if p.DatasetBackwardWindow < 1 || p.DatasetModeWindow < 1 {
		errs = append(errs, errors.New("DSX_DATASET_BACKWARD_WINDOW and DSX_DATASET_MODE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}
