// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines WorkflowDefinition and NodeDeclaration, the documents the
// engine accepts at its ingress boundary.
package model

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// WorkflowDefinition is an immutable description of a DAG of nodes.
type WorkflowDefinition struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Nodes       []NodeDeclaration `json:"nodes"`
	// Variables are defaults for the workflow-scoped variables. Values passed
	// at submission time take precedence.
	Variables map[string]any `json:"variables,omitempty"`

	FSInformation *FSInfo `json:"-"`
}

// NodeDeclaration is a single node of a workflow as authored.
type NodeDeclaration struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Name         string         `json:"name,omitempty"`
	Inputs       map[string]any `json:"inputs,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
}

// Node returns the declaration with the given id.
func (w *WorkflowDefinition) Node(id string) (NodeDeclaration, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeDeclaration{}, false
}

// UnmarshalJSON accepts `nodes` either as an array of declarations or as an
// object keyed by node id. Object keys fill in missing ids and are visited in
// lexical order so the resulting slice is stable.
func (w *WorkflowDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Variables   map[string]any  `json:"variables"`
		Nodes       json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = WorkflowDefinition{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Variables:   raw.Variables,
	}

	nodes, err := decodeNodes(raw.Nodes)
	if err != nil {
		return err
	}
	w.Nodes = nodes
	return nil
}

func decodeNodes(data json.RawMessage) ([]NodeDeclaration, error) {
	trimmed := skipSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var list []NodeDeclaration
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decoding nodes array: %w", err)
		}
		return list, nil
	case '{':
		var keyed map[string]NodeDeclaration
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("decoding nodes object: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		list := make([]NodeDeclaration, 0, len(keyed))
		for _, k := range keys {
			n := keyed[k]
			if n.ID == "" {
				n.ID = k
			}
			list = append(list, n)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("nodes must be an array or an object")
	}
}

func skipSpace(b []byte) []byte {
	for len(b) > 0 {
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			b = b[1:]
		default:
			return b
		}
	}
	return b
}

// DecodeJSON parses a workflow document.
func DecodeJSON(data []byte) (*WorkflowDefinition, error) {
	var def WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}
	return &def, nil
}
