/**
 * Copyright 2025 OpenDesign Labs
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mcp

import (
	"context"
	"encoding/json"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/layout"
	"github.com/OpenDesignlabs/vectra/project"
)

const (
	ToolCompileComponent = "compile_component"
	DescCompileComponent = "Compile a TSX component fragment and render it to HTML inside the sandbox. Rejects sources that touch the network, storage, or the host page."

	ToolHealComponent = "heal_component"
	DescHealComponent = "Repair a broken component fragment with the fix collaborator, then compile and render the repaired source."

	ToolExportReactCode = "export_react_code"
	DescExportReactCode = "Generate a standalone React component file from a document subtree."

	ToolSnapLayout = "snap_layout"
	DescSnapLayout = "Resolve a drag step against sibling rectangles, returning the snapped position and alignment guides."
)

var (
	SchemaCompileComponent = GetJSONSchema(CompileComponentReq{})
	SchemaHealComponent    = GetJSONSchema(HealComponentReq{})
	SchemaExportReactCode  = GetJSONSchema(ExportReactCodeReq{})
	SchemaSnapLayout       = GetJSONSchema(SnapLayoutReq{})
)

type CompileComponentReq struct {
	Source string `json:"source" jsonschema:"description=the TSX source of the component fragment"`
}

type CompileComponentResp struct {
	HTML      string `json:"html" jsonschema:"description=the rendered HTML of the component"`
	CleanCode string `json:"clean_code" jsonschema:"description=the canonicalized source kept for the editor"`
}

type HealComponentReq struct {
	Owner  string `json:"owner" jsonschema:"description=the id of the component that owns the fragment"`
	Source string `json:"source" jsonschema:"description=the broken TSX source"`
	Error  string `json:"error" jsonschema:"description=the compile or runtime error message to fix"`
}

type HealComponentResp struct {
	FixedSource string `json:"fixed_source" jsonschema:"description=the repaired TSX source"`
	HTML        string `json:"html" jsonschema:"description=the rendered HTML of the repaired component"`
	CleanCode   string `json:"clean_code" jsonschema:"description=the canonicalized repaired source"`
}

type ExportReactCodeReq struct {
	Project map[string]interface{} `json:"project" jsonschema:"description=the document nodes keyed by id"`
	RootID  string                 `json:"root_id" jsonschema:"description=the id of the subtree root to export"`
}

type ExportReactCodeResp struct {
	Code string `json:"code" jsonschema:"description=the generated React component file"`
}

type SnapLayoutReq struct {
	Target    layout.Rect   `json:"target" jsonschema:"description=the rectangle being dragged"`
	Siblings  []layout.Rect `json:"siblings" jsonschema:"description=the sibling rectangles to align against"`
	DeltaX    float64       `json:"delta_x" jsonschema:"description=the horizontal drag delta"`
	DeltaY    float64       `json:"delta_y" jsonschema:"description=the vertical drag delta"`
	Threshold float64       `json:"threshold" jsonschema:"description=the snap distance in pixels"`
}

type engineTooling struct {
	engine *engine.Engine
}

func engineTools(e *engine.Engine) []Tool {
	t := &engineTooling{engine: e}
	return []Tool{
		NewTool(ToolCompileComponent, DescCompileComponent, SchemaCompileComponent, t.CompileComponent),
		NewTool(ToolHealComponent, DescHealComponent, SchemaHealComponent, t.HealComponent),
		NewTool(ToolExportReactCode, DescExportReactCode, SchemaExportReactCode, t.ExportReactCode),
		NewTool(ToolSnapLayout, DescSnapLayout, SchemaSnapLayout, t.SnapLayout),
	}
}

func (t *engineTooling) CompileComponent(ctx context.Context, req CompileComponentReq) (*CompileComponentResp, error) {
	comp, clean, err := t.engine.CompileOnce(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	return &CompileComponentResp{HTML: comp.Root.HTML(), CleanCode: clean}, nil
}

func (t *engineTooling) HealComponent(ctx context.Context, req HealComponentReq) (*HealComponentResp, error) {
	t.engine.ResetHeal(req.Owner)
	fixed, err := t.engine.Healer().Heal(ctx, req.Owner, req.Source, req.Error)
	if err != nil {
		return nil, err
	}
	comp, clean, err := t.engine.CompileOnce(ctx, fixed)
	if err != nil {
		return nil, err
	}
	return &HealComponentResp{FixedSource: fixed, HTML: comp.Root.HTML(), CleanCode: clean}, nil
}

func (t *engineTooling) ExportReactCode(ctx context.Context, req ExportReactCodeReq) (*ExportReactCodeResp, error) {
	js, err := json.Marshal(req.Project)
	if err != nil {
		return nil, err
	}
	var p project.Project
	if err := json.Unmarshal(js, &p); err != nil {
		return nil, err
	}
	return &ExportReactCodeResp{Code: project.GenerateReactCode(p, req.RootID)}, nil
}

func (t *engineTooling) SnapLayout(ctx context.Context, req SnapLayoutReq) (*layout.SnapResult, error) {
	res := layout.CalculateSnapping(req.Target, req.Siblings, req.DeltaX, req.DeltaY, req.Threshold)
	return &res, nil
}
