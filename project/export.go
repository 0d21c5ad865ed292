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
	"sort"
	"strings"
	"unicode"
)

// GenerateReactCode turns the subtree rooted at rootID into a standalone
// React component file. A "page" root is unwrapped to its first child, icon
// usages become lucide-react imports, hidden nodes are skipped.
func GenerateReactCode(p Project, rootID string) string {
	exportRoot := rootID
	if node, ok := p[rootID]; ok && node.Type() == "page" && len(node.Children) > 0 {
		exportRoot = node.Children[0]
	}

	icons := map[string]bool{}
	collectIcons(p, exportRoot, icons)

	var b strings.Builder
	b.WriteString("import React from 'react';\n")
	if len(icons) > 0 {
		names := make([]string, 0, len(icons))
		for name := range icons {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "import { %s } from 'lucide-react';\n", strings.Join(names, ", "))
	}

	name := "MyComponent"
	if node, ok := p[exportRoot]; ok && node.Name() != "" {
		name = sanitizeIdent(node.Name())
	}
	fmt.Fprintf(&b, "\nexport default function %s() {\n  return (\n", name)
	b.WriteString(emitNode(p, exportRoot, 2))
	b.WriteString("  );\n}")
	return b.String()
}

func collectIcons(p Project, id string, icons map[string]bool) {
	node, ok := p[id]
	if !ok {
		return
	}
	if icon := node.propString("iconName"); icon != "" {
		icons[icon] = true
	}
	for _, c := range node.Children {
		collectIcons(p, c, icons)
	}
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "MyComponent"
	}
	return b.String()
}

var exportTags = map[string]string{
	"text":    "p",
	"heading": "h1",
	"button":  "button",
	"image":   "img",
	"input":   "input",
	"canvas":  "main",
	"webpage": "main",
}

func emitNode(p Project, id string, indent int) string {
	node, ok := p[id]
	if !ok || node.Hidden() {
		return ""
	}

	sp := strings.Repeat("  ", indent)
	props := node.Props()

	cls := node.propString("className")
	if node.propString("layoutMode") == "flex" && !strings.Contains(cls, "flex") {
		cls = "flex " + cls
	}
	var attrs string
	if cls != "" {
		attrs = fmt.Sprintf(" className=%q", strings.TrimSpace(cls))
	}

	if node.Type() == "icon" {
		name := node.propString("iconName")
		if name == "" {
			name = "Star"
		}
		size := 24
		if v, ok := props["iconSize"].(float64); ok {
			size = int(v)
		}
		return fmt.Sprintf("%s<%s%s size={%d} />\n", sp, name, attrs, size)
	}

	tag, ok := exportTags[node.Type()]
	if !ok {
		tag = "div"
	}
	if tag == "img" || tag == "input" {
		return fmt.Sprintf("%s<%s%s />\n", sp, tag, attrs)
	}

	var child strings.Builder
	content := node.Content()
	child.WriteString(content)
	if len(node.Children) > 0 {
		if content != "" {
			child.WriteString("\n")
		}
		for _, c := range node.Children {
			child.WriteString(emitNode(p, c, indent+1))
		}
		if strings.TrimSpace(child.String()) != "" && content != "" {
			child.WriteString(sp)
		}
	}

	body := child.String()
	switch {
	case body == "":
		return fmt.Sprintf("%s<%s%s />\n", sp, tag, attrs)
	case strings.Contains(body, "\n"):
		return fmt.Sprintf("%s<%s%s>\n%s%s</%s>\n", sp, tag, attrs, body, sp, tag)
	default:
		return fmt.Sprintf("%s<%s%s>%s</%s>\n", sp, tag, attrs, body, tag)
	}
}
