// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// instanceIndex is appended to every leaf's OID: each value is a
// scalar object and is served at instance ".1".
const instanceIndex = 1

// Entry is one node of a metric group's configuration tree.
type Entry struct {
	// Name is a human-readable label used in logs and errors.
	Name string `yaml:"name"`

	// OID is this node's suffix relative to the group base.
	OID oid.OID `yaml:"oid"`

	// Children are nested entries. Map keys only need to be unique;
	// placement in the tree is decided by each child's OID.
	Children Entries `yaml:"children,omitempty"`

	// Literal is a fixed string value. Mutually exclusive with
	// JSONPath. A pointer so that an explicit empty literal is
	// distinguishable from no literal.
	Literal *string `yaml:"literal,omitempty"`

	// JSONPath selects the value from the command's JSON output.
	JSONPath string `yaml:"json_path,omitempty"`

	// Convert is a comma-separated converter chain applied after
	// extraction.
	Convert string `yaml:"convert,omitempty"`

	// DataType and Unit are descriptive only.
	DataType string `yaml:"data_type,omitempty"`
	Unit     string `yaml:"unit,omitempty"`
}

// HasValue reports whether the entry produces a value.
func (e *Entry) HasValue() bool {
	return e.Literal != nil || e.JSONPath != ""
}

// Group is one metric group: a command and the entries resolved from
// its output.
type Group struct {
	Name        string        `yaml:"name"`
	Command     string        `yaml:"command"`
	RelativeOID oid.OID       `yaml:"relative_oid"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Entries     Entries       `yaml:"entries"`
}

// Entries maps a key to a child entry. Keys only need to be unique.
type Entries map[uint32]*Entry

// UnmarshalYAML accepts keys written as plain or quoted integers, so
// that JSON configuration (where object keys are always strings)
// decodes the same way as YAML.
func (e *Entries) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: entries must be a mapping", node.Line)
	}
	result := make(Entries, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		key, err := strconv.ParseUint(keyNode.Value, 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: entry key %q is not an unsigned 32-bit integer", keyNode.Line, keyNode.Value)
		}
		if _, duplicate := result[uint32(key)]; duplicate {
			return fmt.Errorf("line %d: duplicate entry key %d", keyNode.Line, key)
		}
		if valueNode.ShortTag() == "!!null" {
			result[uint32(key)] = nil
			continue
		}
		entry := new(Entry)
		if err := valueNode.Decode(entry); err != nil {
			return err
		}
		result[uint32(key)] = entry
	}
	*e = result
	return nil
}

// Walk calls visit once for every entry reachable from roots. The
// traversal uses an explicit stack, so depth is bounded by memory and
// not by the goroutine stack. Sibling order is unspecified. Nil map
// values are skipped. Walk stops at the first error visit returns.
func Walk(roots Entries, visit func(*Entry) error) error {
	stack := make([]*Entry, 0, len(roots))
	for _, entry := range roots {
		if entry != nil {
			stack = append(stack, entry)
		}
	}
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range entry.Children {
			if child != nil {
				stack = append(stack, child)
			}
		}
		if err := visit(entry); err != nil {
			return err
		}
	}
	return nil
}

// leaf is a compiled leaf-bearing entry.
type leaf struct {
	name     string
	key      oid.OID
	literal  *string
	pathText string
	path     jp.Expr
	chain    Chain
}

// compiledGroup is a Group with every string rule parsed.
type compiledGroup struct {
	name    string
	command string
	timeout time.Duration
	base    oid.OID
	leaves  []leaf
}

// compileGroup validates group and parses its converter chains and
// JSONPath expressions. All problems are reported together, each
// wrapping ErrConfiguration.
func compileGroup(base oid.OID, group Group) (*compiledGroup, error) {
	compiled := &compiledGroup{
		name:    group.Name,
		command: group.Command,
		timeout: group.Timeout,
		base:    oid.Join(base, group.RelativeOID),
	}

	var errs []error
	if group.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: group %q: timeout must not be negative", ErrConfiguration, group.Name))
	}

	owners := make(map[string]string)
	walkErr := Walk(group.Entries, func(entry *Entry) error {
		if !entry.HasValue() {
			return nil
		}
		compiledLeaf, err := compileLeaf(compiled.base, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("group %q: %w", group.Name, err))
			return nil
		}
		keyText := compiledLeaf.key.String()
		if owner, taken := owners[keyText]; taken {
			errs = append(errs, fmt.Errorf("%w: group %q: entries %q and %q both resolve to %s",
				ErrConfiguration, group.Name, owner, entry.Name, keyText))
			return nil
		}
		owners[keyText] = entry.Name
		compiled.leaves = append(compiled.leaves, compiledLeaf)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("group %q: %w", group.Name, walkErr))
	}

	if compiled.needsCommand() && len(splitCommand(group.Command)) == 0 {
		errs = append(errs, fmt.Errorf("%w: group %q: command is empty", ErrConfiguration, group.Name))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return compiled, nil
}

// needsCommand reports whether any leaf reads the command's output.
// Groups made only of literals never run their command.
func (g *compiledGroup) needsCommand() bool {
	for i := range g.leaves {
		if g.leaves[i].literal == nil {
			return true
		}
	}
	return false
}

func compileLeaf(base oid.OID, entry *Entry) (leaf, error) {
	if entry.Literal != nil && entry.JSONPath != "" {
		return leaf{}, fmt.Errorf("%w: entry %q sets both literal and json_path", ErrConfiguration, entry.Name)
	}
	key := oid.Join(base, entry.OID, oid.OID{instanceIndex})
	if len(key) > oid.MaxLength {
		return leaf{}, fmt.Errorf("%w: entry %q: oid %s is longer than %d sub-identifiers",
			ErrConfiguration, entry.Name, key, oid.MaxLength)
	}

	chain, err := ParseChain(entry.Convert)
	if err != nil {
		return leaf{}, fmt.Errorf("entry %q: %w", entry.Name, err)
	}

	compiled := leaf{
		name:    entry.Name,
		key:     key,
		literal: entry.Literal,
		chain:   chain,
	}
	if entry.JSONPath != "" {
		path, err := jp.ParseString(entry.JSONPath)
		if err != nil {
			return leaf{}, fmt.Errorf("%w: entry %q: json_path %q: %v", ErrConfiguration, entry.Name, entry.JSONPath, err)
		}
		compiled.pathText = entry.JSONPath
		compiled.path = path
	}
	return compiled, nil
}

// Compile validates every group against base without constructing an
// engine. Configuration loading uses it to reject bad files early.
func Compile(base oid.OID, groups []Group) error {
	_, err := compileGroups(base, groups)
	return err
}

func compileGroups(base oid.OID, groups []Group) ([]*compiledGroup, error) {
	var errs []error
	compiled := make([]*compiledGroup, 0, len(groups))
	owners := make(map[string]string)
	for _, group := range groups {
		result, err := compileGroup(base, group)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, compiledLeaf := range result.leaves {
			keyText := compiledLeaf.key.String()
			if owner, taken := owners[keyText]; taken {
				errs = append(errs, fmt.Errorf("%w: groups %q and %q both serve %s",
					ErrConfiguration, owner, group.Name, keyText))
				continue
			}
			owners[keyText] = group.Name
		}
		compiled = append(compiled, result)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return compiled, nil
}
