package generation

import (
	"testing"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

func TestMutateSeedNumeric(t *testing.T) {
	got := MutateSeed(map[string]any{"input_seed": 100})
	if got != 101 {
		t.Errorf("MutateSeed = %v, want 101", got)
	}
}

func TestMutateSeedMissingProducesInt(t *testing.T) {
	got := MutateSeed(map[string]any{})
	if _, ok := got.(int32); !ok {
		t.Errorf("MutateSeed missing seed = %T, want int32", got)
	}
}

func TestBuildTweakApplyRequestFiltersUnknownAndDunderKeys(t *testing.T) {
	tool := &protocol.ToolDefinition{
		ToolID: "img-quick",
		InputSchema: map[string]protocol.ParamSpec{
			"input_prompt": {Type: protocol.ParamString},
			"input_steps":  {Type: protocol.ParamInteger},
		},
	}
	ancestor := &protocol.GenerationRecord{ID: "g1"}

	req := BuildTweakApplyRequest(TweakApplyInput{
		Ancestor: ancestor,
		Tool:     tool,
		Payload: map[string]any{
			"input_prompt":      "a cat",
			"input_steps":       30,
			"input_seed":        42,
			"__canonicalToolId__": "x",
		},
		MasterAccountID: "maid-1",
	})

	if _, ok := req.Inputs["input_seed"]; ok {
		t.Error("input_seed should have been dropped (not declared in schema)")
	}
	if _, ok := req.Inputs["__canonicalToolId__"]; ok {
		t.Error("dunder key leaked into execute request")
	}
	if req.Inputs["input_steps"] != 30 {
		t.Errorf("input_steps = %v, want 30", req.Inputs["input_steps"])
	}
	if req.Metadata.ParentGenerationID != "g1" {
		t.Errorf("ParentGenerationID = %q, want g1", req.Metadata.ParentGenerationID)
	}
	if !req.Metadata.IsTweaked {
		t.Error("IsTweaked should be true")
	}
}

func TestBuildRerunRequestExplicitPayloadWinsOverPreferences(t *testing.T) {
	tool := &protocol.ToolDefinition{
		ToolID: "img-quick",
		InputSchema: map[string]protocol.ParamSpec{
			"input_prompt": {Type: protocol.ParamString},
			"input_seed":   {Type: protocol.ParamInteger},
		},
	}
	ancestor := &protocol.GenerationRecord{
		ID:             "g1",
		RequestPayload: map[string]any{"input_prompt": "a cat", "input_seed": 5},
		Metadata:       protocol.GenerationMetadata{RerunCount: 2},
	}

	req := BuildRerunRequest(RerunInput{
		Ancestor:        ancestor,
		Tool:            tool,
		Preferences:     map[string]any{"input_prompt": "preference prompt"},
		MasterAccountID: "maid-1",
	})

	if req.Inputs["input_prompt"] != "a cat" {
		t.Errorf("input_prompt = %v, want explicit ancestor value to win", req.Inputs["input_prompt"])
	}
	if req.Inputs["input_seed"] != 6 {
		t.Errorf("input_seed = %v, want 6", req.Inputs["input_seed"])
	}
	if req.Metadata.RerunCount != 3 {
		t.Errorf("RerunCount = %d, want 3", req.Metadata.RerunCount)
	}
	if !req.Metadata.IsRerun {
		t.Error("IsRerun should be true")
	}
}
