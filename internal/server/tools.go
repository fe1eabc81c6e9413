package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// regionNames are the values accepted by imaging.NamedRegion.
var regionNames = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the micrograph (TIFF, PNG, JPEG, GIF or BMP)",
	}
}

// withScale adds the path and the optional scale override to properties.
func withScale(properties map[string]interface{}) map[string]interface{} {
	properties["path"] = pathProperty()
	properties["scale_micrometers"] = map[string]interface{}{
		"type":        "number",
		"description": "Length in micrometers of a known distance. With scale_pixels, replaces recognition of the footer scale bar",
	}
	properties["scale_pixels"] = map[string]interface{}{
		"type":        "integer",
		"description": "Length in pixels of the distance given by scale_micrometers",
	}
	properties["footer_height"] = map[string]interface{}{
		"type":        "integer",
		"description": "Height in pixels of the footer to cut off when the scale is given. Defaults to the configured scale bar height",
	}
	return properties
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "graphene_image_info",
			Description: "Load a micrograph and return its dimensions, format, color depth and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "graphene_scale",
			Description: "Read the calibration scale bar in the footer of a micrograph and return the micrometers per pixel, the printed length, the bar length in pixels and the footer height.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withScale(map[string]interface{}{
					"include_label": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the cropped label given to OCR as base64 PNG. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "graphene_exclusion",
			Description: "Compute the bacteria exclusion ratio: the share of the micrograph within the exclusion radius of a graphene edge. Optionally corrects for the circular field of view.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withScale(map[string]interface{}{
					"contrast_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum directional contrast (0-255) of an edge pixel. Defaults to the configuration",
					},
					"minimum_edge_area": map[string]interface{}{
						"type":        "integer",
						"description": "Area in pixels an edge region must exceed to be kept. Defaults to the configuration",
					},
					"exclusion_radius": map[string]interface{}{
						"type":        "number",
						"description": "Exclusion radius around edges in micrometers. Defaults to the configuration",
					},
					"radius_adjusted": map[string]interface{}{
						"type":        "boolean",
						"description": "Normalize the ratio over the field of view and return the radial profile",
					},
					"include_overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the edges (and field of view hull) drawn over the micrograph as base64 PNG. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "graphene_flakes",
			Description: "Find elongated graphene flakes and return their orientation, length and center along with angle and length histograms.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withScale(map[string]interface{}{
					"blur": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian blur sigma applied before thresholding. Defaults to the configuration",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level (0-255) flakes must exceed. Defaults to the configuration",
						"minimum":     0,
						"maximum":     255,
					},
					"min_size": map[string]interface{}{
						"type":        "number",
						"description": "Minimum flake length in micrometers. Defaults to the configuration",
					},
					"min_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Minimum length to width ratio. Defaults to the configuration",
					},
					"include_overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the flakes marked over the micrograph as base64 PNG. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "graphene_contrast",
			Description: "Run the directional contrast edge detector on a whole image and return the edge pixel count with a base64 PNG, to tune the exclusion thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum directional contrast (0-255) of an edge pixel. Defaults to the configuration",
					},
					"minimum_edge_area": map[string]interface{}{
						"type":        "integer",
						"description": "Area in pixels an edge region must exceed to be kept. Defaults to the configuration",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Returned image: edges over the image, the contrast magnitude or the edge mask",
						"enum":        []string{"overlay", "magnitude", "mask"},
						"default":     "overlay",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "graphene_crop",
			Description: "Crop a region of a micrograph, optionally zoomed, and return it as base64 PNG. Give either a named region or x1, y1, x2, y2.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"region": map[string]interface{}{
						"type":        "string",
						"description": "Named region, used instead of the coordinates",
						"enum":        regionNames,
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"zoom": map[string]interface{}{
						"type":        "number",
						"description": "Resize factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "graphene_measure",
			Description: "Measure the distance between two points of a micrograph in pixels and micrometers, using the recognized or given scale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withScale(map[string]interface{}{
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "First point X coordinate",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "First point Y coordinate",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Second point X coordinate",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Second point Y coordinate",
					},
				}),
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "graphene_default_config",
			Description: "Return the default configuration as YAML, ready to be saved and edited.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
