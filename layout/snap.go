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

// Package layout computes drag-time geometry for the canvas: edge and
// center alignment snapping against sibling rectangles.
package layout

import "math"

// Rect is an axis-aligned box on the canvas.
type Rect struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// Guide is an alignment line to draw while the snap is active.
type Guide struct {
	Orientation string  `json:"orientation"` // "vertical" | "horizontal"
	Pos         float64 `json:"pos"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Type        string  `json:"guide_type"`
}

// SnapResult is the adjusted position plus the guides that justify it.
type SnapResult struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Guides []Guide `json:"guides"`
}

// CalculateSnapping moves target by (dx, dy) and pulls each axis onto the
// nearest sibling alignment line within threshold. Per axis the candidate
// points are the target's left/center/right (top/center/bottom) edges against
// the sibling's; the first hit in sibling order wins and the axis locks.
func CalculateSnapping(target Rect, siblings []Rect, dx, dy, threshold float64) SnapResult {
	newX := target.X + dx
	newY := target.Y + dy
	guides := make([]Guide, 0, 2)

	snappedX, snappedY := false, false

	for _, sib := range siblings {
		if !snappedX {
			points := axisPoints(newX, target.W, sib.X, sib.W)
			for _, pt := range points {
				if math.Abs(pt.t-pt.s) < threshold {
					newX += pt.s - pt.t
					snappedX = true
					guides = append(guides, Guide{
						Orientation: "vertical",
						Pos:         pt.s,
						Start:       math.Min(newY, sib.Y),
						End:         math.Max(newY+target.H, sib.Y+sib.H),
						Type:        "align",
					})
					break
				}
			}
		}
		if !snappedY {
			points := axisPoints(newY, target.H, sib.Y, sib.H)
			for _, pt := range points {
				if math.Abs(pt.t-pt.s) < threshold {
					newY += pt.s - pt.t
					snappedY = true
					guides = append(guides, Guide{
						Orientation: "horizontal",
						Pos:         pt.s,
						Start:       math.Min(newX, sib.X),
						End:         math.Max(newX+target.W, sib.X+sib.W),
						Type:        "align",
					})
					break
				}
			}
		}
		if snappedX && snappedY {
			break
		}
	}

	return SnapResult{X: newX, Y: newY, Guides: guides}
}

type pointPair struct{ t, s float64 }

// axisPoints pairs the target's start/center/end with the sibling's, in the
// order the snap search probes them.
func axisPoints(pos, size, sibPos, sibSize float64) [9]pointPair {
	tp := [3]float64{pos, pos + size/2, pos + size}
	sp := [3]float64{sibPos, sibPos + sibSize/2, sibPos + sibSize}
	var out [9]pointPair
	i := 0
	for _, t := range tp {
		for _, s := range sp {
			out[i] = pointPair{t, s}
			i++
		}
	}
	return out
}
