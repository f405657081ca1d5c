// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// =============================================================================
// NODE
// =============================================================================

// Node is a syntax tree node handed to AST detection programs.
//
// Description:
//
//	Node is a plain Go value detached from the parser that produced it, so
//	it stays valid after the underlying tree-sitter tree is closed. The
//	fields are exported and a holder can rewrite them; callers that hand a
//	tree to untrusted code pass a Clone.
//
//	Positions are 0-indexed. A detection program reporting a node's line
//	returns StartLine unchanged; the executor converts it to 1-indexed.
//	Columns are byte offsets within the line.
//
// Thread Safety: Safe for concurrent reads. Not safe for concurrent writes.
type Node struct {
	// Type is the grammar node type, e.g. "interface_declaration".
	Type string `json:"type"`

	// Field is the field name this node occupies in its parent, if any.
	Field string `json:"field,omitempty"`

	// Named is false for anonymous tokens such as punctuation.
	Named bool `json:"named"`

	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
	StartByte   int `json:"startByte"`
	EndByte     int `json:"endByte"`

	// HasError is true when this node or a descendant is a syntax error.
	HasError bool `json:"hasError,omitempty"`

	Children []*Node `json:"children,omitempty"`
	Parent   *Node   `json:"-"`

	source []byte
}

// Text returns the source text spanned by the node.
func (n *Node) Text() string {
	if n == nil || n.source == nil {
		return ""
	}
	if n.StartByte < 0 || n.EndByte > len(n.source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(n.source[n.StartByte:n.EndByte])
}

// Walk visits n and its descendants depth-first in source order.
// Returning false from fn skips the children of the current node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// FindAll returns every node of the given type under n, n included,
// in source order.
func (n *Node) FindAll(nodeType string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Type == nodeType {
			out = append(out, c)
		}
		return true
	})
	return out
}

// ChildByField returns the first direct child stored under the field name.
func (n *Node) ChildByField(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Field == name {
			return c
		}
	}
	return nil
}

// NamedChildren returns direct children that are named nodes.
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Clone returns a deep copy of the subtree rooted at n. The copy's root
// has no parent. The source text is shared; it is never written.
func (n *Node) Clone() *Node {
	return n.clone(nil)
}

func (n *Node) clone(parent *Node) *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Parent = parent
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone(&c)
		}
	}
	return &c
}
