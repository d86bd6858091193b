// Package scene models an SDF scene as a closed tree of primitive and
// combinator nodes, evaluated during ray marching.
//
// The node set is a closed tagged variant: the GPU target has no virtual
// dispatch, so evaluation is an explicit exhaustive switch over Kind, and
// the same tree can be lowered to WGSL source (see ShaderSource) where each
// node becomes a pure expression.
//
// A scene is compile-time input to the shader: it changes by editing and
// recompiling shader source, not by runtime mutation.
package scene

import (
	"math"

	"github.com/gogpu/sdfview"
)

// Kind identifies a node in the scene tree.
type Kind uint8

const (
	// KindSphere is a sphere of Radius centered at the node origin.
	KindSphere Kind = iota

	// KindBox is an axis-aligned box with half-extents Extent.
	KindBox

	// KindOcean is an animated directional wave field (a height field in y).
	KindOcean

	// KindUnion combines A and B with min(dA, dB).
	KindUnion

	// KindIntersect combines A and B with max(dA, dB).
	KindIntersect

	// KindSubtract removes B from A with max(dA, -dB).
	KindSubtract

	// KindSmoothUnion blends A and B with an exponential smooth minimum
	// parameterized by Blend.
	KindSmoothUnion

	// KindTranslate evaluates A at point - Offset.
	KindTranslate
)

// String returns the node kind name as it appears in generated shader comments.
func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindOcean:
		return "ocean"
	case KindUnion:
		return "union"
	case KindIntersect:
		return "intersect"
	case KindSubtract:
		return "subtract"
	case KindSmoothUnion:
		return "smooth_union"
	case KindTranslate:
		return "translate"
	default:
		return "unknown"
	}
}

// Node is one node of the scene tree. Leaf kinds use the parameter fields;
// combinator kinds use A and B; KindTranslate uses A and Offset.
//
// Nodes are immutable once built. Dist never mutates the tree, so a Node is
// safe for concurrent evaluation from multiple goroutines.
type Node struct {
	Kind Kind

	// Radius is the sphere radius (KindSphere).
	Radius float32

	// Extent holds the box half-extents (KindBox).
	Extent sdfview.Vec3

	// Blend is the smooth-union blend radius (KindSmoothUnion).
	Blend float32

	// Offset is the translation applied to A (KindTranslate).
	Offset sdfview.Vec3

	// A and B are the operands of combinator nodes.
	A, B *Node
}

// Sphere returns a sphere of radius r centered at the origin.
func Sphere(r float32) *Node {
	return &Node{Kind: KindSphere, Radius: r}
}

// Box returns an axis-aligned box with half-extents (hx, hy, hz).
func Box(hx, hy, hz float32) *Node {
	return &Node{Kind: KindBox, Extent: sdfview.V3(hx, hy, hz)}
}

// Ocean returns the animated wave height field.
func Ocean() *Node {
	return &Node{Kind: KindOcean}
}

// Union returns min(n, b): the surface of either operand.
func (n *Node) Union(b *Node) *Node {
	return &Node{Kind: KindUnion, A: n, B: b}
}

// Intersect returns max(n, b): only space inside both operands.
func (n *Node) Intersect(b *Node) *Node {
	return &Node{Kind: KindIntersect, A: n, B: b}
}

// Subtract returns max(n, -b): n with b carved out.
func (n *Node) Subtract(b *Node) *Node {
	return &Node{Kind: KindSubtract, A: n, B: b}
}

// SmoothUnion blends n and b with blend radius k. As k approaches zero the
// result converges to Union. See SmoothMin for the exact formula.
func (n *Node) SmoothUnion(b *Node, k float32) *Node {
	return &Node{Kind: KindSmoothUnion, A: n, B: b, Blend: k}
}

// Translate evaluates n at point - offset, moving it by offset.
func (n *Node) Translate(offset sdfview.Vec3) *Node {
	return &Node{Kind: KindTranslate, A: n, Offset: offset}
}

// Dist evaluates the signed distance from point p to the scene surface at
// the given time. Negative inside, positive outside. The evaluation is an
// exhaustive switch over the closed node set; unknown kinds report an
// infinitely distant surface so a malformed tree renders as empty rather
// than panicking per pixel.
//
// Dist is deterministic: the same (time, p) always produces the same value.
func (n *Node) Dist(time float32, p sdfview.Vec3) float32 {
	switch n.Kind {
	case KindSphere:
		return SphereDist(p, n.Radius)
	case KindBox:
		return BoxDist(p, n.Extent)
	case KindOcean:
		return OceanDist(time, p)
	case KindUnion:
		return Union(n.A.Dist(time, p), n.B.Dist(time, p))
	case KindIntersect:
		// The intersection lies inside B, so far outside a bounding
		// sphere its distance alone is a valid march bound and the other
		// operand need not be evaluated.
		if n.B.Kind == KindSphere {
			db := n.B.Dist(time, p)
			if db > n.B.Radius {
				return db
			}
			return Intersection(n.A.Dist(time, p), db)
		}
		return Intersection(n.A.Dist(time, p), n.B.Dist(time, p))
	case KindSubtract:
		return Subtraction(n.A.Dist(time, p), n.B.Dist(time, p))
	case KindSmoothUnion:
		return SmoothMin(n.A.Dist(time, p), n.B.Dist(time, p), n.Blend)
	case KindTranslate:
		return n.A.Dist(time, p.Sub(n.Offset))
	default:
		return float32(math.Inf(1))
	}
}

// Default returns the scene the viewer starts with when the shader source
// directory is empty: an animated ocean confined to a sphere, with a cheap
// bail-out for rays far outside the bounding volume.
func Default() *Node {
	return Ocean().Intersect(Sphere(7))
}
