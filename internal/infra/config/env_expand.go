package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// lookupFunc resolves a variable name, reporting whether it was set.
type lookupFunc func(key string) (string, bool)

// expandConfigEnv replaces ${VAR} references in YAML scalar values and returns
// the re-encoded document with the sorted list of unresolved names.
func expandConfigEnv(raw []byte, lookup lookupFunc) (string, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}

	missing := make(map[string]struct{})
	expandNode(&root, lookup, missing)

	expanded, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return string(expanded), missingList(missing), nil
}

func expandNode(node *yaml.Node, lookup lookupFunc, missing map[string]struct{}) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			expandNode(child, lookup, missing)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			expandNode(node.Content[i+1], lookup, missing)
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			expandNode(node.Alias, lookup, missing)
		}
	case yaml.ScalarNode:
		expandScalar(node, lookup, missing)
	}
}

func expandScalar(node *yaml.Node, lookup lookupFunc, missing map[string]struct{}) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}

	expanded := expandWithTracking(node.Value, lookup, missing)
	if expanded == node.Value {
		return
	}
	// Expanded values stay strings; the viper decoder converts numbers and
	// booleans, and secrets such as "0042" keep their leading zeros.
	node.Tag = "!!str"
	node.Style = yaml.DoubleQuotedStyle
	node.Value = expanded
}

func expandWithTracking(value string, lookup lookupFunc, missing map[string]struct{}) string {
	return os.Expand(value, func(key string) string {
		if val, ok := lookup(key); ok {
			return val
		}
		missing[key] = struct{}{}
		return ""
	})
}

func missingList(missing map[string]struct{}) []string {
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
