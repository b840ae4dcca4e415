package tools

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// toolArgSchemas declares each built-in tool's argument shape as an
// inline JSON Schema. Compiled once at package init and checked before
// a call ever reaches its handler, so a malformed tool call from a
// provider surfaces as a normal execution error instead of a panic or
// a handler-specific type assertion failure deep in dispatch.
var toolArgSchemas = map[string]string{
	toolReadFile:   `{"type":"object","required":["path"],"properties":{"path":{"type":"string"}}}`,
	toolWriteFile:  `{"type":"object","required":["path","content"],"properties":{"path":{"type":"string"},"content":{"type":"string"}}}`,
	toolListFiles:  `{"type":"object","properties":{"path":{"type":"string"}}}`,
	toolDeleteFile: `{"type":"object","required":["path"],"properties":{"path":{"type":"string"}}}`,
	toolCommand:    `{"type":"object","required":["command"],"properties":{"command":{"type":"string"}}}`,

	// The three graph tools leave every field optional at the schema
	// level: each handler already enforces its own required-argument
	// and capability rules (e.g. spawn_node needs edgeManagement=all
	// before it ever looks at "label"), and schema validation runs
	// ahead of those checks, so requiring fields here would pre-empt
	// those handler-level error messages with a generic one.
	toolSpawnNode: `{"type":"object","properties":{
		"label":{"type":"string"},
		"roleTemplate":{"type":"string"},
		"provider":{"type":"string"},
		"nativeToolHandling":{"type":"string"}
	}}`,
	toolCreateEdge: `{"type":"object","properties":{
		"fromNodeId":{"type":"string"},
		"toNodeId":{"type":"string"},
		"type":{"type":"string"},
		"label":{"type":"string"},
		"bidirectional":{"type":"boolean"}
	}}`,
	toolSendHandoff: `{"type":"object","properties":{
		"toNodeId":{"type":"string"},
		"message":{"type":"string"},
		"structured":{"type":"object"},
		"contextRef":{"type":"string"},
		"responseExpectation":{"type":"string"}
	}}`,
}

var compiledToolSchemas = compileToolSchemas()

func compileToolSchemas() map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(toolArgSchemas))
	for name, raw := range toolArgSchemas {
		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			panic(fmt.Sprintf("tools: invalid built-in schema for %s: %v", name, err))
		}
		compiler := jsonschema.NewCompiler()
		url := "builtin://" + name
		if err := compiler.AddResource(url, doc); err != nil {
			panic(fmt.Sprintf("tools: invalid built-in schema for %s: %v", name, err))
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("tools: failed to compile built-in schema for %s: %v", name, err))
		}
		out[name] = schema
	}
	return out
}

// validateArgs checks call.Args against the built-in tool's declared
// schema, if one exists. Unknown tool names (MCP-sourced or otherwise)
// are not validated here — MCPSource is responsible for its own tools'
// argument shapes.
func validateArgs(call string, args map[string]any) error {
	schema, ok := compiledToolSchemas[call]
	if !ok {
		return nil
	}
	return schema.Validate(args)
}
