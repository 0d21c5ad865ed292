// Copyright 2025 OpenDesign Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package project holds the document model of the page builder: a flat map
// of nodes keyed by id, plus the structural operations the editor performs
// on it (delete, template instantiation, undo history, code export).
package project

import (
	"encoding/json"

	"github.com/OpenDesignlabs/vectra/internal/utils"
)

// Node is one element of the document tree. The schema is open: besides the
// id and child links, a node carries whatever fields the editor attached
// (type, name, props, content, hidden, ...). Those travel in Extra and are
// flattened into the same JSON object on the wire.
type Node struct {
	ID       string
	Children []string
	Extra    map[string]interface{}
}

func (n *Node) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(n.Extra)+2)
	for k, v := range n.Extra {
		obj[k] = v
	}
	obj["id"] = n.ID
	if n.Children != nil {
		obj["children"] = n.Children
	}
	return utils.MarshalJSONBytes(obj)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	n.ID, _ = obj["id"].(string)
	delete(obj, "id")
	if raw, ok := obj["children"]; ok {
		if list, ok := raw.([]interface{}); ok {
			n.Children = make([]string, 0, len(list))
			for _, c := range list {
				if s, ok := c.(string); ok {
					n.Children = append(n.Children, s)
				}
			}
		}
		delete(obj, "children")
	}
	n.Extra = obj
	return nil
}

// Clone deep-copies the node far enough for template instantiation: the
// children slice is copied, Extra values are shared.
func (n *Node) Clone() *Node {
	c := &Node{ID: n.ID}
	if n.Children != nil {
		c.Children = append([]string(nil), n.Children...)
	}
	c.Extra = make(map[string]interface{}, len(n.Extra))
	for k, v := range n.Extra {
		c.Extra[k] = v
	}
	return c
}

func (n *Node) stringField(key string) string {
	s, _ := n.Extra[key].(string)
	return s
}

// Type returns the editor node type ("page", "text", "icon", ...).
func (n *Node) Type() string { return n.stringField("type") }

// Name returns the user-visible node name.
func (n *Node) Name() string { return n.stringField("name") }

// Content returns the node's text content.
func (n *Node) Content() string { return n.stringField("content") }

// Hidden reports whether the node is excluded from export.
func (n *Node) Hidden() bool {
	b, _ := n.Extra["hidden"].(bool)
	return b
}

// Props returns the node's props object, nil when absent.
func (n *Node) Props() map[string]interface{} {
	p, _ := n.Extra["props"].(map[string]interface{})
	return p
}

func (n *Node) propString(key string) string {
	s, _ := n.Props()[key].(string)
	return s
}

// Project is the whole document: every node, keyed by id.
type Project map[string]*Node
