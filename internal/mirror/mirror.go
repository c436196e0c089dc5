// Package mirror reorders layout trees for right-to-left reading order.
// Both passes walk the whole tree but never descend into component
// instances, whose internals are not owned by the conversion.
package mirror

import (
	"math"

	"rtl-converter/internal/document"
)

// PositionTolerance is the minimum offset delta worth writing when
// mirroring fixed-position children; smaller deltas are float noise.
const PositionTolerance = 0.5

// Flow mirrors auto-layout containers: horizontal containers get their
// children reversed, vertical containers anchored to the start edge are
// re-anchored to the end. Returns the number of containers whose child
// order was reversed.
//
// Flow is not idempotent as a whole: a second pass reverses child order
// back to the original, while the cross-axis re-anchoring sticks.
func Flow(root *document.Node) int {
	if root == nil || root.Type == document.NodeTypeInstance {
		return 0
	}

	reversed := 0

	if root.LayoutMode == document.LayoutHorizontal && len(root.Children) > 1 {
		for i, j := 0, len(root.Children)-1; i < j; i, j = i+1, j-1 {
			root.Children[i], root.Children[j] = root.Children[j], root.Children[i]
		}
		reversed++
	}

	if root.LayoutMode == document.LayoutVertical && root.CounterAxisAlignItems == document.AlignMin {
		root.CounterAxisAlignItems = document.AlignMax
	}

	for _, child := range root.Children {
		reversed += Flow(child)
	}

	return reversed
}

// Fixed mirrors explicitly positioned children across their container's
// width. Only containers without flow layout reposition their children;
// flow containers are still traversed, since fixed-position containers
// can nest anywhere below them. A container is processed before its
// descendants, so child offsets are mirrored against the width read at
// that moment. Returns the number of children whose offset changed.
//
// A second pass mirrors every offset back to its original value.
func Fixed(root *document.Node) int {
	if root == nil || root.Type == document.NodeTypeInstance {
		return 0
	}

	moved := 0

	if root.LayoutMode == document.LayoutNone {
		for _, child := range root.Children {
			mirrored := root.Width - child.X - child.Width
			if math.Abs(mirrored-child.X) > PositionTolerance {
				child.X = mirrored
				moved++
			}
		}
	}

	for _, child := range root.Children {
		moved += Fixed(child)
	}

	return moved
}
