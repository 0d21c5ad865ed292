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

package project

import (
	"fmt"
	"sync/atomic"
	"time"
)

// DeleteNode removes a node and its whole subtree from the project in place,
// unlinking it from its parent first. It returns the ids that were removed.
func DeleteNode(p Project, nodeID string) []string {
	for _, node := range p {
		for i, c := range node.Children {
			if c == nodeID {
				node.Children = append(node.Children[:i], node.Children[i+1:]...)
				break
			}
		}
	}

	var removed []string
	stack := []string{nodeID}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		removed = append(removed, curr)
		if node, ok := p[curr]; ok {
			stack = append(stack, node.Children...)
		}
	}
	for _, id := range removed {
		delete(p, id)
	}
	return removed
}

// TemplateResult is a freshly instantiated subtree with remapped ids.
type TemplateResult struct {
	NewNodes Project `json:"new_nodes"`
	RootID   string  `json:"root_id"`
}

// InstantiateTemplate copies the subtree rooted at rootID out of a template
// project, giving every node a fresh id. Child links pointing outside the
// subtree are dropped rather than left dangling.
func InstantiateTemplate(template Project, rootID string) *TemplateResult {
	var descendants []string
	stack := []string{rootID}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		descendants = append(descendants, curr)
		if node, ok := template[curr]; ok {
			stack = append(stack, node.Children...)
		}
	}

	idMap := make(map[string]string, len(descendants))
	for _, oldID := range descendants {
		idMap[oldID] = newNodeID()
	}

	newNodes := make(Project, len(descendants))
	for _, oldID := range descendants {
		old, ok := template[oldID]
		if !ok {
			continue
		}
		node := old.Clone()
		node.ID = idMap[oldID]
		if node.Children != nil {
			kept := node.Children[:0]
			for _, c := range node.Children {
				if nid, ok := idMap[c]; ok {
					kept = append(kept, nid)
				}
			}
			node.Children = kept
		}
		newNodes[node.ID] = node
	}

	newRoot := rootID
	if nid, ok := idMap[rootID]; ok {
		newRoot = nid
	}
	return &TemplateResult{NewNodes: newNodes, RootID: newRoot}
}

// UpdateCode stores component source on a node, creating the node when the
// project has not seen the owner before.
func (p Project) UpdateCode(nodeID, code string) {
	node, ok := p[nodeID]
	if !ok {
		node = &Node{ID: nodeID, Extra: map[string]interface{}{}}
		p[nodeID] = node
	}
	node.Extra["code"] = code
}

var idSeq atomic.Uint64

func newNodeID() string {
	return fmt.Sprintf("el-%d-%d", time.Now().UnixMilli(), idSeq.Add(1))
}
