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
	"regexp"
	"strings"
)

// EntryMarker is the canonical name the normalizer binds the fragment's
// externally-visible entry point to. The execution host returns whatever this
// name holds after the fragment body ran.
const EntryMarker = "__vectra_default__"

// All rewriting below is line-anchored on purpose: a greedy multi-line match
// could swallow valid code separated by blank lines.
var (
	reImportFrom  = regexp.MustCompile(`^\s*import\s+[^'"]*?\bfrom\s+['"][^'"]*['"]\s*;?\s*$`)
	reImportBare  = regexp.MustCompile(`^\s*import\s+['"][^'"]*['"]\s*;?\s*$`)
	reImportOpen  = regexp.MustCompile(`^\s*import\s`)
	reImportClose = regexp.MustCompile(`\bfrom\s+['"][^'"]*['"]\s*;?\s*$`)

	reDefaultFunc  = regexp.MustCompile(`(?m)^(\s*)export\s+default\s+(async\s+)?function(\s+[A-Za-z_$][\w$]*)?\s*\(`)
	reDefaultIdent = regexp.MustCompile(`(?m)^\s*export\s+default\s+([A-Za-z_$][\w$]*)\s*;?\s*$`)
	reDefaultExpr  = regexp.MustCompile(`(?m)^(\s*)export\s+default\s+`)
	reExportBlock  = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}\s*;?\s*$`)
	reExportConst  = regexp.MustCompile(`(?m)^(\s*)export\s+const\s+([A-Za-z_$][\w$]*)`)
	reExportFunc   = regexp.MustCompile(`(?m)^(\s*)export\s+(async\s+)?function\s+([A-Za-z_$][\w$]*)`)
	reExportAny    = regexp.MustCompile(`(?m)^(\s*)export\s+`)

	reTopFunc  = regexp.MustCompile(`(?m)^(?:async\s+)?function\s+([A-Za-z_$][\w$]*)`)
	reTopConst = regexp.MustCompile(`(?m)^const\s+([A-Za-z_$][\w$]*)\s*=.*(?:=>|\bfunction\b)`)
)

// Normalize strips module imports and rewrites the fragment's entry point to
// a single unambiguous binding of EntryMarker. It is purely textual and
// idempotent: a second pass over its own output changes nothing.
//
// If no entry point is recognizable, the output carries no EntryMarker
// binding; the execution host then fails with "No default export found".
func Normalize(source string) string {
	s := stripImports(source)

	if !strings.Contains(s, EntryMarker) {
		s = rewriteEntry(s)
	}

	// Declarations the entry rewrite did not claim still need the export
	// keyword removed: module syntax is invalid in the synthesized function.
	s = reDefaultIdent.ReplaceAllString(s, "")
	s = reDefaultExpr.ReplaceAllString(s, "$1")
	s = reExportBlock.ReplaceAllString(s, "")
	s = reExportAny.ReplaceAllString(s, "$1")

	return strings.TrimRight(s, "\n \t") + "\n"
}

// stripImports removes import declarations line by line. A declaration that
// opens a brace list may span lines; the scan consumes until the closing
// "from '...'" line, bounded so malformed input never swallows the file.
func stripImports(source string) string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if reImportFrom.MatchString(line) || reImportBare.MatchString(line) {
			continue
		}
		if reImportOpen.MatchString(line) && strings.Contains(line, "{") && !strings.Contains(line, "}") {
			end := -1
			for j := i + 1; j < len(lines) && j <= i+32; j++ {
				if reImportClose.MatchString(lines[j]) {
					end = j
					break
				}
			}
			if end >= 0 {
				i = end
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// rewriteEntry applies exactly one entry-point rule, in fixed priority order:
// default-export function > default-export expression > default-export
// identifier > named export block > export const > export function > first
// top-level function or const-arrow declaration.
func rewriteEntry(s string) string {
	if m := reDefaultFunc.FindStringSubmatch(s); m != nil {
		name := strings.TrimSpace(m[3])
		if name == "" {
			name = "VectraComponent"
			s = reDefaultFunc.ReplaceAllString(s, "${1}${2}function "+name+"(")
		} else {
			s = reDefaultFunc.ReplaceAllString(s, "${1}${2}function${3}(")
		}
		return appendMarker(s, name)
	}
	if m := reDefaultIdent.FindStringSubmatch(s); m == nil {
		if loc := reDefaultExpr.FindStringIndex(s); loc != nil {
			// Expression form: bind it directly.
			s = reDefaultExpr.ReplaceAllString(s, "${1}const "+EntryMarker+" = ")
			return s
		}
	} else {
		s = reDefaultIdent.ReplaceAllString(s, "")
		return appendMarker(s, m[1])
	}
	if m := reExportBlock.FindStringSubmatch(s); m != nil {
		if name := blockEntryName(m[1]); name != "" {
			s = reExportBlock.ReplaceAllString(s, "")
			return appendMarker(s, name)
		}
	}
	if m := reExportConst.FindStringSubmatch(s); m != nil {
		s = reExportConst.ReplaceAllString(s, "${1}const ${2}")
		return appendMarker(s, m[2])
	}
	if m := reExportFunc.FindStringSubmatch(s); m != nil {
		s = reExportFunc.ReplaceAllString(s, "${1}${2}function ${3}")
		return appendMarker(s, m[3])
	}
	if m := reTopFunc.FindStringSubmatch(s); m != nil {
		return appendMarker(s, m[1])
	}
	if m := reTopConst.FindStringSubmatch(s); m != nil {
		return appendMarker(s, m[1])
	}
	return s
}

// blockEntryName picks the entry from "A, B as default, C": an explicit
// "as default" alias wins, otherwise the first exported name.
func blockEntryName(list string) string {
	parts := strings.Split(list, ",")
	first := ""
	for _, p := range parts {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 3 && fields[1] == "as" && fields[2] == "default" {
			return fields[0]
		}
		if first == "" {
			first = fields[0]
		}
	}
	return first
}

func appendMarker(s, name string) string {
	return strings.TrimRight(s, "\n \t") + "\nconst " + EntryMarker + " = " + name + ";\n"
}
