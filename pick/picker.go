package pick

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
)

// Picker walks pickable structure from a root and collects hits.
//
// A Picker holds no per-call state, so one Picker can serve concurrent
// picks on the same graph.
type Picker struct {
	gate *Gate
}

// NewPicker creates a picker bound to the given update window. With a nil
// gate picking is allowed at any time.
func NewPicker(gate *Gate) *Picker {
	return &Picker{gate: gate}
}

// Pick runs req against the graph rooted at root.
//
// It returns ErrInvalidTiming when the gate is closed and ErrNotPickable
// when the root itself is excluded or does not match req.Mask. Interior
// nodes that fail the mask are pruned without error.
func (p *Picker) Pick(root Target, req *Request) ([]Result, error) {
	if p.gate != nil && !p.gate.IsOpen() {
		return nil, ErrInvalidTiming
	}
	if root == nil || excluded(root) || !root.CheckPickMask(req.Mask) {
		return nil, ErrNotPickable
	}

	w := walker{req: req}
	w.visit(root, mgl64.Ident4(), *req)

	switch req.Sort {
	case SortAllSorted:
		slices.SortStableFunc(w.results, func(a, b Result) int {
			return cmp.Compare(a.Distance, b.Distance)
		})
	case SortClosest:
		if len(w.results) > 1 {
			best := w.results[0]
			for _, r := range w.results[1:] {
				if r.Distance < best.Distance {
					best = r
				}
			}
			w.results = append(w.results[:0], best)
		}
	}
	return w.results, nil
}

func excluded(t Target) bool {
	e, ok := t.(Excludable)
	return ok && e.IsExcluded()
}

// walker carries the state of a single Pick call.
type walker struct {
	req     *Request
	results []Result
	done    bool
}

// test checks local, a request expressed in the space of vol. Ray
// parameters carry over unchanged from the caller's space.
func test(vol bounds.Volume, local *Request) (float64, bool) {
	if vol == nil {
		return 0, true
	}
	switch local.Geometry {
	case GeometryPoint:
		return 0, vol.ContainsPoint(local.Origin)
	case GeometryRay:
		return vol.IntersectRay(local.Origin, local.Direction)
	case GeometrySegment:
		d, ok := vol.IntersectRay(local.Origin, local.Direction)
		return d, ok && d <= 1
	case GeometrySphere:
		return 0, vol.IntersectSphere(local.Origin, local.Radius)
	default:
		return 0, false
	}
}

// visit handles node whose parent-to-world transform is parent. req is
// the request in the parent's space.
func (w *walker) visit(node Target, parent mgl64.Mat4, req Request) {
	if w.done || excluded(node) || !node.CheckPickMask(w.req.Mask) {
		return
	}

	world := parent
	local := req
	if tt, ok := node.(TransformTarget); ok {
		world = parent.Mul4(tt.Transform())
		local = req.Local(tt.InverseTransform())
	}

	var (
		dist float64
		hit  bool
	)
	kind := node.PickTargetType()
	if kind != TypeCustom {
		if dist, hit = test(node.PickableBounds(), &local); !hit {
			return
		}
	}

	switch kind {
	case TypeLeaf:
		w.results = append(w.results, Result{Target: node, Distance: dist, World: world})
		if w.req.Sort == SortAny {
			w.done = true
		}

	case TypeSingle:
		if st, ok := node.(SingleTarget); ok {
			if child := st.PickableChild(); child != nil {
				w.visit(child, world, local)
			}
		}

	case TypeGroup:
		gt, ok := node.(GroupTarget)
		if !ok {
			return
		}
		n := gt.NumPickableChildren()
		if n <= 0 {
			return
		}
		children := gt.PickableChildren()
		for _, child := range children[:min(n, len(children))] {
			if child == nil {
				continue
			}
			w.visit(child, world, local)
			if w.done {
				return
			}
		}

	case TypeCustom:
		ct, ok := node.(CustomTarget)
		if !ok {
			return
		}
		var out CustomData
		ct.PickChildren(&out, world, w.req)
		for i, child := range out.Children[:min(out.NumChildren, len(out.Children))] {
			if child == nil {
				continue
			}
			cw, creq := world, local
			if i < len(out.Transforms) {
				cw = world.Mul4(out.Transforms[i])
				creq = local.Local(out.Transforms[i].Inv())
			}
			w.visit(child, cw, creq)
			if w.done {
				return
			}
		}
	}
}
