package strategy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newthinker/tradelab/internal/core"
)

type definitionsFile struct {
	Strategies []Definition `yaml:"strategies"`
}

// ParseDefinitions decodes a YAML document holding a strategies list.
// Unknown keys are rejected.
func ParseDefinitions(data []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file definitionsFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decode strategy definitions: %w", err))
	}
	for _, def := range file.Strategies {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Strategies, nil
}

// LoadDefinitionsFile reads and parses a YAML definitions file
func LoadDefinitionsFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.ErrIO, fmt.Errorf("read %s: %w", path, err))
	}
	return ParseDefinitions(data)
}
