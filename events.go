// events.go: host events and their lifecycle bindings
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"fmt"
)

// Host events the plugin subscribes to. Names are case-sensitive.
const (
	EventPostInstallCmd         = "post-install-cmd"
	EventPostUpdateCmd          = "post-update-cmd"
	EventPostCreateProjectCmd   = "post-create-project-cmd"
	EventPostRootPackageInstall = "post-root-package-install"
	EventPostPackageInstall     = "post-package-install"
	EventPostPackageUpdate      = "post-package-update"
	EventPrePackageUninstall    = "pre-package-uninstall"
)

// Short spellings of the command-level events. Bound exactly like their
// "-cmd" counterparts.
const (
	EventPostInstall       = "post-install"
	EventPostUpdate        = "post-update"
	EventPostCreateProject = "post-create-project"
)

// Metadata keys read from package extras.
const (
	// KeyHandlers lists the handler identifiers a package declares.
	KeyHandlers = "composer-events-handler"

	// KeyLogPath overrides the persistent log location. Only read from the
	// root package.
	KeyLogPath = "composer-events-log"
)

// Event is a host lifecycle event.
//
// Package-level events carry the affected package. Command-level events
// (install, update, create-project) finalize every package in Packages, or
// the host's local package set when Packages is nil.
type Event struct {
	Name     string
	Package  Package
	Packages []Package
}

type eventBinding struct {
	method   LifecycleMethod
	finalize bool
}

var eventBindings = map[string]eventBinding{
	EventPostInstallCmd:         {method: MethodFinalize, finalize: true},
	EventPostUpdateCmd:          {method: MethodFinalize, finalize: true},
	EventPostCreateProjectCmd:   {method: MethodFinalize, finalize: true},
	EventPostInstall:            {method: MethodFinalize, finalize: true},
	EventPostUpdate:             {method: MethodFinalize, finalize: true},
	EventPostCreateProject:      {method: MethodFinalize, finalize: true},
	EventPostRootPackageInstall: {method: MethodInstall},
	EventPostPackageInstall:     {method: MethodInstall},
	EventPostPackageUpdate:      {method: MethodUpdate},
	EventPrePackageUninstall:    {method: MethodUninstall},
}

// SubscribedEvents returns the subscribed event names and the lifecycle
// method each one triggers.
func SubscribedEvents() map[string]LifecycleMethod {
	events := make(map[string]LifecycleMethod, len(eventBindings))
	for name, binding := range eventBindings {
		events[name] = binding.method
	}
	return events
}

// MethodForEvent returns the lifecycle method bound to event.
func MethodForEvent(event string) (LifecycleMethod, error) {
	binding, ok := eventBindings[event]
	if !ok {
		return "", NewUnknownEventError(event)
	}
	return binding.method, nil
}

// HandlerIdentifiers returns the handlers declared by pkg, in declaration
// order. The boolean is false when the package declares none. A value of
// the wrong shape is reported as an error.
func HandlerIdentifiers(pkg Package) ([]string, bool, error) {
	if pkg == nil {
		return nil, false, nil
	}
	raw, ok := pkg.Extra()[KeyHandlers]
	if !ok || raw == nil {
		return nil, false, nil
	}

	switch v := raw.(type) {
	case []string:
		ids := make([]string, len(v))
		copy(ids, v)
		return ids, true, nil
	case []any:
		ids := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false, NewConfigValidationError(
					fmt.Sprintf("%s[%d] of package '%s' must be a string, got %T", KeyHandlers, i, pkg.Name(), item), nil)
			}
			ids = append(ids, s)
		}
		return ids, true, nil
	default:
		return nil, false, NewConfigValidationError(
			fmt.Sprintf("%s of package '%s' must be a list of handler names, got %T", KeyHandlers, pkg.Name(), raw), nil)
	}
}

// logPathOverride returns the log location declared by the root package.
func logPathOverride(root Package) string {
	if root == nil {
		return ""
	}
	if path, ok := root.Extra()[KeyLogPath].(string); ok {
		return path
	}
	return ""
}
