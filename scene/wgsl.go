package scene

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/sdfview"
)

//go:embed shaders/viewer.wgsl
var viewerShaderTemplate string

// sceneMarker is the line in the template replaced by the generated scene
// function.
const sceneMarker = "// -- scene --"

// ShaderSource lowers the scene tree into a complete WGSL viewer shader.
// The fixed template (full-screen triangle, ray marcher, shading) is combined
// with a generated scene() distance function; the result is what gets written
// into the watched shader directory as the starting point for live editing.
//
// Entry points are vs_main (vertex) and fs_main (fragment).
func ShaderSource(n *Node) string {
	var b strings.Builder
	b.WriteString("fn scene(time: f32, p: vec3f) -> f32 {\n")
	if n.Kind == KindIntersect && n.B.Kind == KindSphere {
		// Same bail-out as Node.Dist: the bounding sphere's distance is
		// a valid march bound far outside it.
		r := wgslFloat(n.B.Radius)
		fmt.Fprintf(&b, "    let bound = sdf_sphere(p, %s);\n", r)
		fmt.Fprintf(&b, "    if (bound > %s) {\n        return bound;\n    }\n", r)
		fmt.Fprintf(&b, "    return max(%s, bound);\n", exprWGSL(n.A, "p"))
	} else {
		fmt.Fprintf(&b, "    return %s;\n", exprWGSL(n, "p"))
	}
	b.WriteString("}")
	return strings.Replace(viewerShaderTemplate, sceneMarker, b.String(), 1)
}

// exprWGSL emits the WGSL expression evaluating node n at the point
// expression pt. Combinators nest; translation rewrites the point expression.
func exprWGSL(n *Node, pt string) string {
	switch n.Kind {
	case KindSphere:
		return fmt.Sprintf("sdf_sphere(%s, %s)", pt, wgslFloat(n.Radius))
	case KindBox:
		return fmt.Sprintf("sdf_box(%s, %s)", pt, wgslVec3(n.Extent))
	case KindOcean:
		return fmt.Sprintf("sdf_ocean(time, %s)", pt)
	case KindUnion:
		return fmt.Sprintf("min(%s, %s)", exprWGSL(n.A, pt), exprWGSL(n.B, pt))
	case KindIntersect:
		return fmt.Sprintf("max(%s, %s)", exprWGSL(n.A, pt), exprWGSL(n.B, pt))
	case KindSubtract:
		return fmt.Sprintf("max(%s, -(%s))", exprWGSL(n.A, pt), exprWGSL(n.B, pt))
	case KindSmoothUnion:
		return fmt.Sprintf("op_smooth_min(%s, %s, %s)",
			exprWGSL(n.A, pt), exprWGSL(n.B, pt), wgslFloat(n.Blend))
	case KindTranslate:
		return exprWGSL(n.A, fmt.Sprintf("(%s - %s)", pt, wgslVec3(n.Offset)))
	default:
		return "FAR"
	}
}

// wgslFloat formats a float32 as a WGSL f32 literal. WGSL treats a bare
// integer literal as an abstract int, so a decimal point is forced.
func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func wgslVec3(v sdfview.Vec3) string {
	return fmt.Sprintf("vec3f(%s, %s, %s)", wgslFloat(v.X), wgslFloat(v.Y), wgslFloat(v.Z))
}
