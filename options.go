package mddocx

import (
	"fmt"
	"strings"
)

// MissingImagePolicy decides what happens to image references whose
// filename is not in the image set.
type MissingImagePolicy uint8

const (
	// MissingImageOmit drops unresolved references silently.
	MissingImageOmit MissingImagePolicy = iota
	// MissingImagePlaceholder replaces unresolved references with a visible
	// "[missing image: name]" text fragment.
	MissingImagePlaceholder
)

func (p MissingImagePolicy) String() string {
	switch p {
	case MissingImagePlaceholder:
		return "placeholder"
	default:
		return "omit"
	}
}

// ParseMissingImagePolicy maps "omit" or "placeholder" to a policy.
func ParseMissingImagePolicy(s string) (MissingImagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "omit", "skip", "drop":
		return MissingImageOmit, nil
	case "placeholder", "mark", "show":
		return MissingImagePlaceholder, nil
	default:
		return MissingImageOmit, fmt.Errorf("unknown missing image policy %q: expected omit|placeholder", s)
	}
}

// ParseOption configures parsing behavior.
type ParseOption func(*parseConfig)

type parseConfig struct {
	missing          MissingImagePolicy
	stripFrontMatter bool
}

func newParseConfig(opts []ParseOption) parseConfig {
	cfg := parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithMissingImages sets the policy for unresolved image references.
func WithMissingImages(policy MissingImagePolicy) ParseOption {
	return func(cfg *parseConfig) {
		cfg.missing = policy
	}
}

// WithStripFrontMatter removes a leading YAML, TOML or JSON front matter
// block before parsing.
func WithStripFrontMatter(enabled bool) ParseOption {
	return func(cfg *parseConfig) {
		cfg.stripFrontMatter = enabled
	}
}
