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
	"sort"
	"strings"

	"github.com/dop251/goja"
)

// RuntimeError is a failure raised while the fragment's own code was running:
// during the synthesized function call or the first render pass. Unlike a
// CompileError it may follow partial side effects.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// ErrNoDefaultExport is the classified message for fragments with no
// recognizable entry point.
const ErrNoDefaultExport = "No default export found"

// Component is the handle produced by a successful execution: the resolved
// node tree of the first render pass.
type Component struct {
	Root *Node
}

// Host synthesizes and runs compiled fragment source inside a fresh goja
// runtime per execution. Capabilities are passed as positional parameters;
// the fragment gets no module resolution and no ambient host globals beyond
// the ECMAScript built-ins.
type Host struct {
	// MaxRenderDepth bounds nested component invocation during the render
	// pass, so a self-referencing fragment fails instead of recursing forever.
	MaxRenderDepth int
}

// NewHost returns a Host with default limits.
func NewHost() *Host {
	return &Host{MaxRenderDepth: 64}
}

// Execute synthesizes a function from sandboxCode, invokes it with the
// whitelisted capability set (Vectra, cx, Icon, motion, require) and performs
// the first render pass on the returned component. Failures are classified:
// *CompileError before fragment code ran, *RuntimeError after.
func (h *Host) Execute(sandboxCode string) (comp *Component, err error) {
	defer func() {
		if r := recover(); r != nil {
			comp = nil
			err = &RuntimeError{Message: fmt.Sprintf("execution panic: %v", r)}
		}
	}()

	vm := goja.New()
	// Belt and braces on top of the pre-scan: the textual deny-list already
	// rejects these, but a fragment must not reach them even if a rule gap
	// lets one through.
	_ = vm.Set("eval", goja.Undefined())
	_ = vm.Set("Function", goja.Undefined())

	env := newCapabilityEnv(vm, h.MaxRenderDepth)

	wrapped := "(function(Vectra, cx, Icon, motion, require){\n" + sandboxCode + "\n})"
	v, runErr := vm.RunString(wrapped)
	if runErr != nil {
		return nil, &CompileError{Message: jsErrorMessage(runErr)}
	}
	entry, ok := goja.AssertFunction(v)
	if !ok {
		return nil, &CompileError{Message: "synthesized source is not callable"}
	}

	result, callErr := entry(goja.Undefined(), env.vectra, env.cx, env.icon, env.motion, env.require)
	if callErr != nil {
		return nil, &RuntimeError{Message: jsErrorMessage(callErr)}
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, &CompileError{Message: ErrNoDefaultExport}
	}
	compFn, ok := goja.AssertFunction(result)
	if !ok {
		return nil, &RuntimeError{Message: "default export is not a function"}
	}

	rendered, renderErr := compFn(goja.Undefined(), vm.NewObject())
	if renderErr != nil {
		return nil, &RuntimeError{Message: jsErrorMessage(renderErr)}
	}
	return &Component{Root: env.toNode(rendered)}, nil
}

func jsErrorMessage(err error) string {
	if ex, ok := err.(*goja.Exception); ok {
		return ex.Value().String()
	}
	return err.Error()
}

// capabilityEnv holds the whitelisted values injected into the fragment.
type capabilityEnv struct {
	vm       *goja.Runtime
	depth    int
	maxDepth int

	vectra  goja.Value
	cx      goja.Value
	icon    goja.Value
	motion  goja.Value
	require goja.Value
}

func newCapabilityEnv(vm *goja.Runtime, maxDepth int) *capabilityEnv {
	env := &capabilityEnv{vm: vm, maxDepth: maxDepth}

	vectra := vm.NewObject()
	_ = vectra.Set("h", env.createElement)
	_ = vectra.Set("createElement", env.createElement)
	_ = vectra.Set("Fragment", FragmentTag)
	env.vectra = vectra

	env.cx = vm.ToValue(env.mergeClasses)
	env.icon = vm.ToValue(env.iconComponent)
	env.motion = vm.NewDynamicObject(&motionNamespace{env: env})

	// The module loader always throws: an unlisted capability must fail
	// loudly, never resolve to undefined.
	env.require = vm.ToValue(func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		panic(vm.NewTypeError("module %q is not available: module resolution is disabled in the sandbox", name))
	})
	return env
}

// createElement is the injected rendering primitive. String tags build nodes
// directly; function tags are components and are invoked with their props
// (children attached) to resolve their subtree.
func (env *capabilityEnv) createElement(call goja.FunctionCall) goja.Value {
	tagVal := call.Argument(0)
	propsVal := call.Argument(1)
	childVals := call.Arguments[2:]

	if fn, ok := goja.AssertFunction(tagVal); ok {
		env.depth++
		defer func() { env.depth-- }()
		if env.depth > env.maxDepth {
			panic(env.vm.NewTypeError("max render depth exceeded (%d)", env.maxDepth))
		}
		props := env.propsObject(propsVal, childVals)
		res, err := fn(goja.Undefined(), props)
		if err != nil {
			if ex, ok := err.(*goja.Exception); ok {
				panic(ex.Value())
			}
			panic(env.vm.NewTypeError(err.Error()))
		}
		return res
	}

	node := &Node{Tag: tagVal.String(), Props: exportProps(env.vm, propsVal)}
	for _, cv := range childVals {
		env.appendChild(node, cv)
	}
	return env.vm.ToValue(node)
}

func (env *capabilityEnv) propsObject(propsVal goja.Value, childVals []goja.Value) *goja.Object {
	var props *goja.Object
	if propsVal == nil || goja.IsUndefined(propsVal) || goja.IsNull(propsVal) {
		props = env.vm.NewObject()
	} else {
		props = propsVal.ToObject(env.vm)
	}
	if len(childVals) > 0 {
		_ = props.Set("children", childVals)
	}
	return props
}

func exportProps(vm *goja.Runtime, propsVal goja.Value) map[string]interface{} {
	props := map[string]interface{}{}
	if propsVal == nil || goja.IsUndefined(propsVal) || goja.IsNull(propsVal) {
		return props
	}
	obj := propsVal.ToObject(vm)
	for _, k := range obj.Keys() {
		props[k] = obj.Get(k).Export()
	}
	return props
}

func (env *capabilityEnv) appendChild(parent *Node, v goja.Value) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return
	}
	switch ex := v.Export().(type) {
	case *Node:
		parent.Children = append(parent.Children, ex)
	case bool:
		// booleans render nothing, matching JSX conditional idiom
	case string:
		parent.Children = append(parent.Children, NewText(ex))
	case []interface{}:
		for _, item := range ex {
			env.appendChild(parent, env.vm.ToValue(item))
		}
	case []goja.Value:
		for _, item := range ex {
			env.appendChild(parent, item)
		}
	default:
		parent.Children = append(parent.Children, NewText(fmt.Sprint(ex)))
	}
}

// toNode converts a render result into a Node, tolerating text and empty
// returns.
func (env *capabilityEnv) toNode(v goja.Value) *Node {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return &Node{Tag: FragmentTag}
	}
	switch ex := v.Export().(type) {
	case *Node:
		return ex
	case string:
		return NewText(ex)
	default:
		return NewText(fmt.Sprint(ex))
	}
}

// mergeClasses is the injected style-merge helper: string arguments join with
// a space, object arguments contribute keys whose values are truthy.
func (env *capabilityEnv) mergeClasses(call goja.FunctionCall) goja.Value {
	var parts []string
	for _, arg := range call.Arguments {
		if arg == nil || goja.IsUndefined(arg) || goja.IsNull(arg) {
			continue
		}
		switch ex := arg.Export().(type) {
		case string:
			if ex != "" {
				parts = append(parts, ex)
			}
		case map[string]interface{}:
			keys := make([]string, 0, len(ex))
			for k := range ex {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if truthy(ex[k]) {
					parts = append(parts, k)
				}
			}
		case []interface{}:
			for _, item := range ex {
				if s, ok := item.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return env.vm.ToValue(strings.Join(parts, " "))
}

func truthy(v interface{}) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		return tv != ""
	case nil:
		return false
	case int64:
		return tv != 0
	case float64:
		return tv != 0
	default:
		return true
	}
}

// iconComponent is the injected icon-resolution proxy: Icon("Star") yields a
// component rendering a placeholder svg node carrying the icon name.
func (env *capabilityEnv) iconComponent(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	return env.vm.ToValue(func(inner goja.FunctionCall) goja.Value {
		props := exportProps(env.vm, inner.Argument(0))
		node := &Node{Tag: "svg", Props: map[string]interface{}{"data-icon": name}}
		if cls, ok := props["className"]; ok {
			node.Props["className"] = cls
		}
		if size, ok := props["size"]; ok {
			node.Props["width"] = size
			node.Props["height"] = size
		}
		return env.vm.ToValue(node)
	})
}

// motionNamespace backs the injected motion helper: any property access
// (motion.div, motion.span, ...) yields a component rendering the underlying
// tag with its animation props preserved as data attributes.
type motionNamespace struct {
	env *capabilityEnv
}

func (m *motionNamespace) Get(key string) goja.Value {
	env := m.env
	return env.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		props := exportProps(env.vm, call.Argument(0))
		node := &Node{Tag: key, Props: map[string]interface{}{"data-motion": "true"}}
		var children goja.Value
		if obj, ok := call.Argument(0).(*goja.Object); ok && obj != nil {
			children = obj.Get("children")
		}
		for k, v := range props {
			switch k {
			case "children":
			case "initial", "animate", "exit", "transition", "whileHover", "whileTap":
				// animation configs are kept but inert in the first render pass
				node.Props["data-motion-"+strings.ToLower(k)] = fmt.Sprint(v)
			default:
				node.Props[k] = v
			}
		}
		if children != nil {
			env.appendChild(node, children)
		}
		return env.vm.ToValue(node)
	})
}

func (m *motionNamespace) Set(key string, val goja.Value) bool { return false }
func (m *motionNamespace) Has(key string) bool                 { return true }
func (m *motionNamespace) Delete(key string) bool              { return false }
func (m *motionNamespace) Keys() []string                      { return nil }
