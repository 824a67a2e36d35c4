package toolregistry

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// Static is an in-memory Registry, used in tests and as a fallback for
// the onboarding wizard's dry-run mode.
type Static struct {
	defs []protocol.ToolDefinition
}

// NewStatic builds a Static registry seeded with defs.
func NewStatic(defs []protocol.ToolDefinition) *Static {
	return &Static{defs: defs}
}

// ByID implements Registry.
func (s *Static) ByID(_ context.Context, toolID string) (*protocol.ToolDefinition, error) {
	for _, d := range s.defs {
		if d.ToolID == toolID {
			def := d
			return &def, nil
		}
	}
	return nil, fmt.Errorf("toolregistry: unknown tool id %q", toolID)
}

// ByDisplayName implements Registry.
func (s *Static) ByDisplayName(_ context.Context, displayName string) (*protocol.ToolDefinition, error) {
	for _, d := range s.defs {
		if d.DisplayName == displayName {
			def := d
			return &def, nil
		}
	}
	return nil, fmt.Errorf("toolregistry: unknown tool display name %q", displayName)
}

// List implements Registry.
func (s *Static) List(_ context.Context) ([]protocol.ToolDefinition, error) {
	return s.defs, nil
}
