// manifest.go: package manifest and lock file loading
//
// Hosts that do not hand over their own package objects can load them from
// disk. The manifest carries the root package; the lock file lists the
// installed packages in install order. Formats are detected from the file
// extension; files with an unknown extension (composer.lock) are read as
// JSON.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// Manifest is a package description read from a manifest or lock file.
type Manifest struct {
	PackageName string
	Version     string
	Type        string
	ExtraData   map[string]any
}

// NewPackage creates an in-memory package with the given extra metadata.
func NewPackage(name string, extra map[string]any) *Manifest {
	if extra == nil {
		extra = make(map[string]any)
	}
	return &Manifest{PackageName: name, ExtraData: extra}
}

// Name implements Package.
func (m *Manifest) Name() string { return m.PackageName }

// Extra implements Package.
func (m *Manifest) Extra() map[string]any {
	if m.ExtraData == nil {
		return map[string]any{}
	}
	return m.ExtraData
}

// Handlers returns the handler identifiers the package declares.
func (m *Manifest) Handlers() []string {
	ids, _, err := HandlerIdentifiers(m)
	if err != nil {
		return nil
	}
	return ids
}

// LockFile lists the packages installed by the host.
type LockFile struct {
	Packages    []*Manifest
	PackagesDev []*Manifest
}

// PackageList returns every locked package, runtime packages first.
func (l *LockFile) PackageList() []Package {
	list := make([]Package, 0, len(l.Packages)+len(l.PackagesDev))
	for _, m := range l.Packages {
		list = append(list, m)
	}
	for _, m := range l.PackagesDev {
		list = append(list, m)
	}
	return list
}

// LoadManifest reads the package manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	m, err := bindManifest(raw)
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}
	return m, nil
}

// LoadLockFile reads the lock file at path.
func LoadLockFile(path string) (*LockFile, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	lock := &LockFile{}
	if lock.Packages, err = bindManifestList(raw, "packages"); err != nil {
		return nil, NewConfigParseError(path, err)
	}
	if lock.PackagesDev, err = bindManifestList(raw, "packages-dev"); err != nil {
		return nil, NewConfigParseError(path, err)
	}
	return lock, nil
}

func readDocument(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, NewConfigParseError(path, err)
	}

	parsed, err := parseDocument(data, argus.DetectFormat(path))
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}

	// Round-trip through JSON so every parser yields the same value shapes
	// (map[string]interface{} objects, []interface{} lists).
	jsonBytes, err := json.Marshal(parsed)
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}
	raw := make(map[string]interface{})
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return nil, NewConfigParseError(path, err)
	}
	return raw, nil
}

// parseDocument uses yaml.v3 for YAML and argus for everything else.
func parseDocument(data []byte, format argus.ConfigFormat) (map[string]interface{}, error) {
	switch format {
	case argus.FormatYAML:
		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	case argus.FormatTOML:
		return argus.ParseConfig(data, format)
	default:
		return argus.ParseConfig(data, argus.FormatJSON)
	}
}

func bindManifest(raw map[string]interface{}) (*Manifest, error) {
	m := &Manifest{ExtraData: make(map[string]any)}

	var err error
	if m.PackageName, err = stringField(raw, "name"); err != nil {
		return nil, err
	}
	if m.Version, err = stringField(raw, "version"); err != nil {
		return nil, err
	}
	if m.Type, err = stringField(raw, "type"); err != nil {
		return nil, err
	}

	if extra, ok := raw["extra"]; ok && extra != nil {
		em, ok := extra.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field 'extra' must be an object, got %T", extra)
		}
		m.ExtraData = em
	}
	return m, nil
}

func bindManifestList(raw map[string]interface{}, key string) ([]*Manifest, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field '%s' must be a list, got %T", key, value)
	}

	list := make([]*Manifest, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be an object, got %T", key, i, item)
		}
		m, err := bindManifest(entry)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		list = append(list, m)
	}
	return list, nil
}

func stringField(raw map[string]interface{}, key string) (string, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field '%s' must be a string, got %T", key, value)
	}
	return s, nil
}
