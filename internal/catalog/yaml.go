package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anvil-platform/suitepath/internal/semver"
)

// catalogFile models a libs.versions.yaml document:
//
//	versions:
//	  commons: "1.9.4"
//	libraries:
//	  commons-beanutils:
//	    group: commons-beanutils
//	    name: commons-beanutils
//	    version: { ref: commons }
//	bundles:
//	  groovy: [groovy-core, groovy-json, groovy-nio]
type catalogFile struct {
	Versions  map[string]string      `yaml:"versions"`
	Libraries map[string]libraryDecl `yaml:"libraries"`
	Bundles   map[string][]string    `yaml:"bundles"`
}

type libraryDecl struct {
	Group   string      `yaml:"group"`
	Name    string      `yaml:"name"`
	Version versionDecl `yaml:"version"`
}

// versionDecl accepts either a scalar exact version or a mapping with
// ref / strictly / prefer keys.
type versionDecl struct {
	selector semver.Selector
}

func (v *versionDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var exact string
		if err := node.Decode(&exact); err != nil {
			return err
		}
		v.selector = semver.Selector{Exact: exact}
		return nil
	case yaml.MappingNode:
		var spec struct {
			Ref      string `yaml:"ref"`
			Strictly string `yaml:"strictly"`
			Prefer   string `yaml:"prefer"`
		}
		if err := node.Decode(&spec); err != nil {
			return err
		}
		v.selector = semver.Selector{Ref: spec.Ref, Strictly: spec.Strictly, Prefer: spec.Prefer}
		return nil
	default:
		return fmt.Errorf("catalog: version must be a scalar or a mapping, got yaml kind %d", node.Kind)
	}
}

// ParseYAML decodes a catalog document and builds the catalog through
// the same Builder path programmatic construction uses.
func ParseYAML(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: document is empty")
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode document: %w", err)
	}
	b := NewBuilder()
	for ref, version := range file.Versions {
		b.Version(ref, version)
	}
	for alias, lib := range file.Libraries {
		if lib.Group == "" || lib.Name == "" {
			return nil, fmt.Errorf("catalog: library %q requires group and name", alias)
		}
		b.Library(alias, lib.Group, lib.Name, lib.Version.selector)
	}
	for alias, members := range file.Bundles {
		b.Bundle(alias, members...)
	}
	return b.Build(), nil
}

// LoadFile reads and parses a catalog file from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cat, nil
}
