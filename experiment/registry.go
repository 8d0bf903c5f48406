/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
)

// targetRegistry maps target names to their registration. The batch lock guards it.
type targetRegistry map[string]TargetInfo

// register returns the target named name, registering it on first reference.
// Later references must pass identical metadata or none.
func (r targetRegistry) register(name, typ string, metadata map[string]any) (TargetInfo, bool, error) {
	if name == "" {
		return TargetInfo{}, false, errors.New("target name must not be empty")
	}
	if existing, ok := r[name]; ok {
		if len(metadata) > 0 && !reflect.DeepEqual(existing.Metadata, metadata) {
			return existing, false, fmt.Errorf("%w: target %q is registered with %v, got %v",
				ErrTargetMetadataConflict, name, existing.Metadata, metadata)
		}
		return existing, false, nil
	}

	if typ == "" {
		typ = DefaultTargetType
	}
	info := TargetInfo{
		ID:   name,
		Name: name,
		Type: typ,
	}
	if len(metadata) > 0 {
		info.Metadata = maps.Clone(metadata)
	}
	r[name] = info
	return info, true, nil
}
