package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML registry file and overlays it onto the built-in defaults.
// Keys missing from the file keep their default value; maps are merged key by key
// and lists replace the default list.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML registry data on top of the built-in defaults.
func Parse(data []byte) (*Registry, error) {
	def := DefaultDefinition()
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return New(def)
}
