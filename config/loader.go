package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Loader reads topology documents from disk and applies environment
// overrides.
type Loader struct {
	envPrefix string
}

// NewLoader creates a loader with the default SKYMESH environment
// prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "SKYMESH"}
}

// SetEnvPrefix changes the environment variable prefix.
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load reads and parses the document at path.
func (l *Loader) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := l.parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

// LoadFromReader parses a document from an io.Reader.
func (l *Loader) LoadFromReader(r io.Reader) (*Document, error) {
	return l.parse(r)
}

func (l *Loader) parse(r io.Reader) (*Document, error) {
	doc := &Document{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}

	if err := l.applyEnv(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (l *Loader) applyEnv(doc *Document) error {
	key := l.envPrefix + "_MIN_DRONES"
	if raw, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s=%q is not a valid count",
				ErrDocumentInvalid, key, raw)
		}
		doc.MinDrones = n
	}

	return nil
}
