package openapi

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// httpMethods lists the field names a Path Item object may carry that denote an
// operation, per the OpenAPI v3 schema. Any other key on the object (summary,
// description, parameters, $ref, vendor extensions, ...) is not a method.
var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

func isHTTPMethod(key string) bool {
	for _, m := range httpMethods {
		if key == m {
			return true
		}
	}
	return false
}

// rawDocument mirrors the subset of an OpenAPI v3 document this package cares
// about, decoded permissively via a generic map so unknown fields never fail
// parsing.
type rawDocument struct {
	Paths map[string]map[string]json.RawMessage
}

// Parse decodes raw document bytes (JSON or YAML, per kind) into a Document.
//
// Per the gateway's routing contract, the upstream's own `servers` array is never
// authoritative for the proxy's public URL space: it is discarded before typed
// parsing and replaced with a single default server of "/", so every compiled
// route is anchored at the gateway's own origin rather than whatever base path the
// upstream document happens to declare.
func Parse(data []byte, kind ContentKind, upstreamName string) (*Document, error) {
	pathsRaw, err := decodePaths(data, kind)
	if err != nil {
		return nil, &ParseError{Upstream: upstreamName, Err: err}
	}

	paths := make(map[string]Path, len(pathsRaw))
	for pathTemplate, fields := range pathsRaw {
		p, err := decodePath(fields, kind)
		if err != nil {
			return nil, &ParseError{Upstream: upstreamName, Err: err}
		}
		paths[pathTemplate] = p
	}

	return &Document{
		Servers: []Server{{URL: "/"}},
		Paths:   paths,
	}, nil
}

// decodePaths decodes just the top-level `paths` map, leaving each path item as a
// bag of raw per-key fields so decodePath can tell parameters from operations.
func decodePaths(data []byte, kind ContentKind) (map[string]map[string]json.RawMessage, error) {
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}

	switch kind {
	case ContentJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ContentYAML:
		// yaml.v3 happily unmarshals into json.RawMessage-shaped maps by
		// round-tripping through an intermediate generic structure.
		var generic struct {
			Paths map[string]map[string]yaml.Node `yaml:"paths"`
		}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		doc.Paths = make(map[string]map[string]json.RawMessage, len(generic.Paths))
		for pathTemplate, fields := range generic.Paths {
			converted := make(map[string]json.RawMessage, len(fields))
			for key, node := range fields {
				var v interface{}
				if err := node.Decode(&v); err != nil {
					return nil, err
				}
				b, err := json.Marshal(v)
				if err != nil {
					return nil, err
				}
				converted[key] = b
			}
			doc.Paths[pathTemplate] = converted
		}
	}

	return doc.Paths, nil
}

// decodePath splits a path item's raw fields into its parameter list and its
// per-method operation records. Field decoding always goes through encoding/json:
// decodePaths has already normalized YAML nodes into json.RawMessage above.
func decodePath(fields map[string]json.RawMessage, kind ContentKind) (Path, error) {
	p := Path{Methods: make(map[string]MethodRecord)}

	if raw, ok := fields["parameters"]; ok {
		var params []Parameter
		if err := json.Unmarshal(raw, &params); err != nil {
			return Path{}, err
		}
		p.Parameters = params
	}

	for key, raw := range fields {
		if !isHTTPMethod(key) {
			continue
		}
		var op struct {
			Parameters []Parameter `json:"parameters"`
		}
		if err := json.Unmarshal(raw, &op); err != nil {
			return Path{}, err
		}
		p.Methods[key] = MethodRecord{Parameters: op.Parameters}
	}

	return p, nil
}

// DetectContentKind chooses JSON vs YAML by content-type label first, falling back
// to the URL's file extension, per §4.3.
func DetectContentKind(contentType, url string) ContentKind {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "application/yaml", "application/yml":
		return ContentYAML
	case "application/json":
		return ContentJSON
	}

	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml") {
		return ContentYAML
	}
	return ContentJSON
}
