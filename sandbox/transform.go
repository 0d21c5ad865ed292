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
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// CompileError is a transform-stage failure. It is always raised before any
// fragment code has executed, so retrying (or healing) is side-effect free.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string { return e.Message }

// Compile converts normalized, markup-extended source into plain executable
// function-body source: JSX becomes Vectra.h(...) calls, type annotations are
// stripped, unresolved capitalized tags resolve through the Icon capability,
// and a trailing return hands back the entry binding.
func Compile(normalized string) (string, error) {
	js, err := Transform(normalized)
	if err != nil {
		return "", err
	}
	return js + "\n;return (typeof " + EntryMarker + " === \"undefined\") ? undefined : " + EntryMarker + ";", nil
}

// Transform rewrites TSX source to plain JavaScript. It does not wrap or
// append anything; Compile does.
func Transform(source string) (string, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	src := []byte(source)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return "", &CompileError{Message: fmt.Sprintf("parse failed: %v", err)}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstErrorNode(root); bad != nil {
			p := bad.StartPoint()
			return "", &CompileError{Message: fmt.Sprintf("syntax error at line %d, column %d", p.Row+1, p.Column+1)}
		}
		return "", &CompileError{Message: "syntax error"}
	}

	t := &transformer{src: src, declared: topLevelNames(root, src)}
	return t.emit(root), nil
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstErrorNode(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// topLevelNames collects identifiers declared at program scope. Capitalized
// JSX tags outside this set are treated as icon shorthand.
func topLevelNames(root *sitter.Node, src []byte) map[string]bool {
	names := map[string]bool{
		"Vectra": true, "Icon": true, "motion": true, EntryMarker: true,
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				names[name.Content(src)] = true
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(decl.NamedChildCount()); j++ {
				d := decl.NamedChild(j)
				if d.Type() != "variable_declarator" {
					continue
				}
				if name := d.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
					names[name.Content(src)] = true
				}
			}
		}
	}
	return names
}

type transformer struct {
	src      []byte
	declared map[string]bool
}

func (t *transformer) emit(n *sitter.Node) string {
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return t.emitJSX(n)
	case "type_annotation", "type_parameters", "type_arguments":
		return ""
	case "interface_declaration", "type_alias_declaration":
		return ""
	case "as_expression", "satisfies_expression", "non_null_expression":
		if n.NamedChildCount() > 0 {
			return t.emit(n.NamedChild(0))
		}
		return n.Content(t.src)
	}
	if n.ChildCount() == 0 {
		return n.Content(t.src)
	}
	var b strings.Builder
	pos := n.StartByte()
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		b.Write(t.src[pos:c.StartByte()])
		b.WriteString(t.emit(c))
		pos = c.EndByte()
	}
	b.Write(t.src[pos:n.EndByte()])
	return b.String()
}

func (t *transformer) emitJSX(n *sitter.Node) string {
	switch n.Type() {
	case "jsx_fragment":
		return t.createElement("Vectra.Fragment", "null", t.jsxChildren(n))
	case "jsx_self_closing_element":
		return t.createElement(t.tagExpr(n.ChildByFieldName("name")), t.propsExpr(n), nil)
	default: // jsx_element
		open := n.NamedChild(0)
		return t.createElement(t.tagExpr(open.ChildByFieldName("name")), t.propsExpr(open), t.jsxChildren(n))
	}
}

func (t *transformer) createElement(tag, props string, children []string) string {
	args := append([]string{tag, props}, children...)
	return "Vectra.h(" + strings.Join(args, ", ") + ")"
}

var lowerStart = regexp.MustCompile(`^[a-z]`)

// tagExpr renders a JSX tag: lowercase identifiers are intrinsic tags (quoted
// strings); capitalized identifiers with no top-level declaration are icon
// shorthand and resolve via the injected Icon capability; everything else
// (declared components, member expressions like motion.div) passes through.
func (t *transformer) tagExpr(name *sitter.Node) string {
	if name == nil {
		return `"div"`
	}
	txt := name.Content(t.src)
	if name.Type() == "identifier" || name.Type() == "jsx_identifier" {
		if lowerStart.MatchString(txt) {
			return fmt.Sprintf("%q", txt)
		}
		if !t.declared[txt] {
			return fmt.Sprintf("Icon(%q)", txt)
		}
	}
	return txt
}

// propsExpr builds the props argument from the attributes of an opening or
// self-closing element. Spread attributes force an Object.assign form.
func (t *transformer) propsExpr(el *sitter.Node) string {
	var pairs []string
	var parts []string
	hasSpread := false

	flush := func() {
		if len(pairs) > 0 {
			parts = append(parts, "{ "+strings.Join(pairs, ", ")+" }")
			pairs = nil
		}
	}

	for i := 0; i < int(el.NamedChildCount()); i++ {
		attr := el.NamedChild(i)
		switch attr.Type() {
		case "jsx_attribute":
			name := attr.NamedChild(0).Content(t.src)
			if strings.ContainsAny(name, "-:") {
				name = fmt.Sprintf("%q", name)
			}
			value := "true"
			if attr.NamedChildCount() > 1 {
				value = t.attrValue(attr.NamedChild(1))
			}
			pairs = append(pairs, name+": "+value)
		case "jsx_expression":
			// {...spread}
			inner := attr.NamedChild(0)
			if inner == nil {
				continue
			}
			expr := inner
			if inner.Type() == "spread_element" && inner.NamedChildCount() > 0 {
				expr = inner.NamedChild(0)
			}
			hasSpread = true
			flush()
			parts = append(parts, t.emit(expr))
		}
	}
	flush()

	if len(parts) == 0 {
		return "null"
	}
	if !hasSpread && len(parts) == 1 {
		return parts[0]
	}
	return "Object.assign({}, " + strings.Join(parts, ", ") + ")"
}

func (t *transformer) attrValue(v *sitter.Node) string {
	switch v.Type() {
	case "string":
		return v.Content(t.src)
	case "jsx_expression":
		if v.NamedChildCount() == 0 {
			return "null"
		}
		return t.emit(v.NamedChild(0))
	default:
		return t.emit(v)
	}
}

var wsRun = regexp.MustCompile(`\s+`)

func (t *transformer) jsxChildren(n *sitter.Node) []string {
	var out []string
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "jsx_opening_element", "jsx_closing_element":
			continue
		case "jsx_text":
			txt := strings.TrimSpace(wsRun.ReplaceAllString(c.Content(t.src), " "))
			if txt != "" {
				out = append(out, fmt.Sprintf("%q", txt))
			}
		case "jsx_expression":
			if c.NamedChildCount() == 0 {
				continue // {} or a comment
			}
			inner := c.NamedChild(0)
			if inner.Type() == "comment" {
				continue
			}
			out = append(out, t.emit(inner))
		default:
			out = append(out, t.emit(c))
		}
	}
	return out
}
