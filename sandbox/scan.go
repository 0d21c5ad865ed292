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
	"regexp"
)

// Rule is one deny-list entry of the security pre-scan.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Message string
}

// Violation reports the first deny-list rule a fragment matched, with an
// excerpt of the offending text.
type Violation struct {
	Rule    string
	Excerpt string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("security violation (%s): %s: %q", v.Rule, v.Message, v.Excerpt)
}

// defaultRules is the fixed, ordered deny-list. The scan is defense in depth,
// not a sandbox on its own: it must run strictly before any compilation, and
// be paired with capability-restricted execution in the host.
var defaultRules = []Rule{
	{"eval", regexp.MustCompile(`\beval\s*\(`), "dynamic code evaluation is not allowed"},
	{"function-constructor", regexp.MustCompile(`\bnew\s+Function\s*\(`), "dynamic code evaluation is not allowed"},
	{"dynamic-import", regexp.MustCompile(`\bimport\s*\(`), "dynamic module loading is not allowed"},
	{"local-storage", regexp.MustCompile(`\blocalStorage\b`), "persistent storage access is not allowed"},
	{"session-storage", regexp.MustCompile(`\bsessionStorage\b`), "persistent storage access is not allowed"},
	{"indexed-db", regexp.MustCompile(`\bindexedDB\b`), "persistent storage access is not allowed"},
	{"cookie", regexp.MustCompile(`\bdocument\s*\.\s*cookie\b`), "cookie access is not allowed"},
	{"fetch", regexp.MustCompile(`\bfetch\s*\(`), "network access is not allowed"},
	{"xhr", regexp.MustCompile(`\bXMLHttpRequest\b`), "network access is not allowed"},
	{"websocket", regexp.MustCompile(`\bnew\s+WebSocket\s*\(`), "network access is not allowed"},
	{"beacon", regexp.MustCompile(`\bsendBeacon\s*\(`), "network access is not allowed"},
	{"window-location", regexp.MustCompile(`\bwindow\s*\.\s*location\b`), "navigation is not allowed"},
	{"document-location", regexp.MustCompile(`\bdocument\s*\.\s*location\b`), "navigation is not allowed"},
	{"location-href", regexp.MustCompile(`\blocation\s*\.\s*(href|assign|replace)\b`), "navigation is not allowed"},
	{"window-open", regexp.MustCompile(`\bwindow\s*\.\s*open\s*\(`), "opening windows is not allowed"},
	{"window-parent", regexp.MustCompile(`\bwindow\s*\.\s*(top|parent|frames)\b`), "frame escape is not allowed"},
	{"navigator", regexp.MustCompile(`\bnavigator\s*\.`), "browser API access is not allowed"},
	{"process", regexp.MustCompile(`\bprocess\s*\.\s*env\b`), "process environment access is not allowed"},
	{"global-this", regexp.MustCompile(`\bglobalThis\s*\.`), "global object access is not allowed"},
}

// Scanner checks raw fragment source against an ordered deny-list.
type Scanner struct {
	rules []Rule
}

// NewScanner returns a scanner with the built-in rules plus any extras.
// Extra rules are checked after the built-ins, still first-match-wins.
func NewScanner(extra ...Rule) *Scanner {
	rules := make([]Rule, 0, len(defaultRules)+len(extra))
	rules = append(rules, defaultRules...)
	rules = append(rules, extra...)
	return &Scanner{rules: rules}
}

// Scan runs the deny-list over the raw, un-normalized source. It returns the
// first matching violation, or nil when the fragment is clean. It never
// modifies the source and must run before any transformation.
func (s *Scanner) Scan(source string) *Violation {
	for _, r := range s.rules {
		if loc := r.Pattern.FindString(source); loc != "" {
			return &Violation{Rule: r.Name, Excerpt: loc, Message: r.Message}
		}
	}
	return nil
}
