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

package sandbox

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// FragmentTag is the tag used for fragment nodes (<>...</>). Fragments emit
// only their children.
const FragmentTag = "#fragment"

// TextTag marks plain text nodes; the text lives in Node.Text.
const TextTag = "#text"

// Node is one element of a rendered component tree. It is the concrete form
// of the component handle produced by a successful execution: a plain tree
// the host application can walk, diff, or serialize.
type Node struct {
	Tag      string
	Props    map[string]interface{}
	Children []*Node
	Text     string
}

// NewNode makes an element node with an empty prop set.
func NewNode(tag string) *Node {
	return &Node{Tag: tag, Props: map[string]interface{}{}}
}

// NewText wraps a string in a text node.
func NewText(s string) *Node {
	return &Node{Tag: TextTag, Text: s}
}

// IsText reports whether the node is a plain text node.
func (n *Node) IsText() bool { return n.Tag == TextTag }

// voidTags have no closing tag in HTML output.
var voidTags = map[string]bool{
	"img": true, "input": true, "br": true, "hr": true, "meta": true, "link": true,
}

// HTML renders the node tree as an HTML string. Used for shell output and
// inline diagnostics; the editor consumes the tree itself, not this string.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.IsText() {
		b.WriteString(html.EscapeString(n.Text))
		return
	}
	if n.Tag == FragmentTag {
		for _, c := range n.Children {
			c.writeHTML(b)
		}
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, k := range sortedKeys(n.Props) {
		v := n.Props[k]
		if v == nil {
			continue
		}
		name := k
		if name == "className" {
			name = "class"
		}
		switch tv := v.(type) {
		case bool:
			if tv {
				fmt.Fprintf(b, " %s", name)
			}
		case string:
			fmt.Fprintf(b, " %s=%q", name, html.EscapeString(tv))
		default:
			fmt.Fprintf(b, " %s=%q", name, fmt.Sprint(tv))
		}
	}
	if voidTags[n.Tag] && len(n.Children) == 0 {
		b.WriteString(" />")
		return
	}
	b.WriteByte('>')
	for _, c := range n.Children {
		c.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reconcile replaces the contents of root with those of next while keeping
// the root node identity stable. The shell relies on this to reuse one
// persistent render root across reloads instead of recreating it.
func Reconcile(root, next *Node) {
	if root == nil || next == nil {
		return
	}
	root.Tag = next.Tag
	root.Props = next.Props
	root.Children = next.Children
	root.Text = next.Text
}
