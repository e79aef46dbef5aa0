package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type operation struct {
	Responses map[string]struct{}
	// Params holds the names of required parameters
	Params map[string]struct{}
}

type parsedSpec struct {
	Paths map[string]map[string]operation
}

func loadSpecFile(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}
	return parseSpec(raw)
}

// parseSpec reads a Swagger 2.0 or OpenAPI 3 document. JSON is accepted since
// it is a subset of YAML.
func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}
	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}
	for pathKey, pathEntry := range pathsMap {
		pathOpsRaw, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOpsRaw {
			methodLower := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[methodLower]; !supported {
				continue
			}
			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}
			ops[methodLower] = operation{
				Responses: responseCodes(methodMap),
				Params:    requiredParams(methodMap),
			}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}
	return spec, nil
}

func responseCodes(op map[string]interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	responses, ok := toMap(op["responses"])
	if !ok {
		return set
	}
	for code := range responses {
		normalized := strings.ToLower(strings.TrimSpace(code))
		if normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func requiredParams(op map[string]interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	list, ok := op["parameters"].([]interface{})
	if !ok {
		return set
	}
	for _, entry := range list {
		p, ok := toMap(entry)
		if !ok {
			continue
		}
		if required, _ := p["required"].(bool); !required {
			continue
		}
		name, _ := p["name"].(string)
		in, _ := p["in"].(string)
		if name != "" {
			set[in+":"+name] = struct{}{}
		}
	}
	return set
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// compare lists everything the revision breaks for clients of base: removed
// paths, operations and response codes, and parameters that became required.
func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for responseCode := range baseOp.Responses {
				if _, ok := revOp.Responses[responseCode]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(responseCode),
					))
				}
			}
			for param := range revOp.Params {
				if _, ok := baseOp.Params[param]; !ok {
					issues = append(issues, fmt.Sprintf(
						"new required parameter: %s %s -> %s",
						strings.ToUpper(method), path, param,
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
