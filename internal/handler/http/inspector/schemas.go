package inspector

// filterSchemas hand-rolls a JSON Schema (draft-07 style, object
// subset) describing each catalog filter's options, for the config UI
// to render option forms without the server executing any script.
var filterSchemas = map[string]interface{}{
	"full_text": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"timeout":         map[string]interface{}{"type": "integer", "default": 10},
			"parallelism":     map[string]interface{}{"type": "integer", "default": 20},
			"simplify":        map[string]interface{}{"type": "boolean", "default": false},
			"append_mode":     map[string]interface{}{"type": "boolean", "default": false},
			"keep_element":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"remove_element":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
	},
	"simplify_html": map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
	"keep_element": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"selector"},
	},
	"remove_element": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"selector"},
	},
	"split": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":   map[string]interface{}{"type": "string"},
			"link":    map[string]interface{}{"type": "string"},
			"content": map[string]interface{}{"type": "string"},
			"author":  map[string]interface{}{"type": "string"},
		},
		"required": []string{"title", "link", "content"},
	},
	"sanitize": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ops": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"remove":       map[string]interface{}{"type": "string"},
						"remove_regex": map[string]interface{}{"type": "string"},
						"replace": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"from": map[string]interface{}{"type": "string"},
								"to":   map[string]interface{}{"type": "string"},
							},
						},
						"replace_regex": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"from": map[string]interface{}{"type": "string"},
								"to":   map[string]interface{}{"type": "string"},
							},
						},
					},
				},
			},
		},
	},
	"keep_only": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"field":          map[string]interface{}{"type": "string", "enum": []string{"title", "body", "link", "author"}},
			"pattern":        map[string]interface{}{"type": "string"},
			"regex":          map[string]interface{}{"type": "boolean", "default": false},
			"case_sensitive": map[string]interface{}{"type": "boolean", "default": false},
		},
		"required": []string{"field", "pattern"},
	},
	"discard": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"field":          map[string]interface{}{"type": "string", "enum": []string{"title", "body", "link", "author"}},
			"pattern":        map[string]interface{}{"type": "string"},
			"regex":          map[string]interface{}{"type": "boolean", "default": false},
			"case_sensitive": map[string]interface{}{"type": "boolean", "default": false},
		},
		"required": []string{"field", "pattern"},
	},
	"highlight": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"terms":          map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"case_sensitive": map[string]interface{}{"type": "boolean", "default": false},
		},
		"required": []string{"terms"},
	},
	"merge": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"sources": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"sources"},
	},
	"convert_to": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"format": map[string]interface{}{"type": "string", "enum": []string{"rss", "atom", "json"}},
		},
		"required": []string{"format"},
	},
	"note": map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
	"modify_post": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"script": map[string]interface{}{"type": "string", "description": "must define function modify_post(post)"},
		},
		"required": []string{"script"},
	},
	"modify_feed": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"script": map[string]interface{}{"type": "string", "description": "must define function modify_feed(feed)"},
		},
		"required": []string{"script"},
	},
	"js": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"script": map[string]interface{}{"type": "string", "description": "must define function update_post(feed, post)"},
		},
		"required": []string{"script"},
	},
	"limit": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"value": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"value"},
	},
	"sort": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"order": map[string]interface{}{"type": "string", "enum": []string{"asc", "desc"}, "default": "desc"},
		},
	},
	"uniq": map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}
