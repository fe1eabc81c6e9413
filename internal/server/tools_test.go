package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	expectedTools := []string{
		"graphene_image_info",
		"graphene_scale",
		"graphene_exclusion",
		"graphene_flakes",
		"graphene_contrast",
		"graphene_crop",
		"graphene_measure",
		"graphene_default_config",
	}

	tools := GetToolDefinitions()
	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required argument must be described.
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required argument %q has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_ScaleArguments(t *testing.T) {
	withScaleArgs := map[string]bool{
		"graphene_scale":     true,
		"graphene_exclusion": true,
		"graphene_flakes":    true,
		"graphene_measure":   true,
	}

	for _, tool := range GetToolDefinitions() {
		if !withScaleArgs[tool.Name] {
			continue
		}
		t.Run(tool.Name, func(t *testing.T) {
			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, name := range []string{"path", "scale_micrometers", "scale_pixels", "footer_height"} {
				if _, ok := props[name]; !ok {
					t.Errorf("missing %s", name)
				}
			}
		})
	}
}

func TestToolDefinitions_CropRegions(t *testing.T) {
	var tool Tool
	for _, tt := range GetToolDefinitions() {
		if tt.Name == "graphene_crop" {
			tool = tt
		}
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	regionProp, ok := props["region"].(map[string]interface{})
	if !ok {
		t.Fatal("region property should exist and be a map")
	}
	enum, ok := regionProp["enum"].([]string)
	if !ok {
		t.Fatal("region should have enum")
	}
	if len(enum) != 9 {
		t.Errorf("got %d regions, want 9", len(enum))
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
