// composer.go: static package-manager context
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

// StaticComposer is a Composer over a fixed package set.
type StaticComposer struct {
	Root  Package
	Local []Package
}

// RootPackage implements Composer.
func (c *StaticComposer) RootPackage() Package { return c.Root }

// LocalPackages implements Composer.
func (c *StaticComposer) LocalPackages() []Package { return c.Local }

// LoadComposer builds a StaticComposer from a manifest and a lock file.
// A missing lock file yields an empty local package set.
func LoadComposer(manifestPath, lockPath string) (*StaticComposer, error) {
	root, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	composer := &StaticComposer{Root: root}
	if lockPath == "" {
		return composer, nil
	}

	lock, err := LoadLockFile(lockPath)
	if err != nil {
		if hasCode(err, ErrCodeConfigNotFound) {
			return composer, nil
		}
		return nil, err
	}
	composer.Local = lock.PackageList()
	return composer, nil
}
