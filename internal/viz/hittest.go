package viz

import (
	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r2"
)

const (
	hitMinChildren = 2
	hitMaxChildren = 8
	// rtreego rejects zero-length rect sides
	hitEpsilon = 1e-6
)

// pinBox wraps a pin's bounding square for the R-tree
type pinBox struct {
	idx  int
	rect *rtreego.Rect
}

func (b *pinBox) Bounds() *rtreego.Rect {
	return b.rect
}

// pinIndex answers "which pin is under this canvas point"
type pinIndex struct {
	tree *rtreego.Rtree
	pins []Pin
}

func newPinIndex(pins []Pin) *pinIndex {
	ix := &pinIndex{
		tree: rtreego.NewTree(2, hitMinChildren, hitMaxChildren),
		pins: pins,
	}
	for i, p := range pins {
		r := p.Size
		if r < hitEpsilon {
			r = hitEpsilon
		}
		rect, err := rtreego.NewRect(rtreego.Point{p.Point.X - r, p.Point.Y - r}, []float64{2 * r, 2 * r})
		if err != nil {
			continue
		}
		ix.tree.Insert(&pinBox{idx: i, rect: rect})
	}
	return ix
}

// at returns the topmost pin whose circle contains pt. Smaller pins are drawn
// last, so among overlapping hits the smallest wins; ties go to the later pin.
func (ix *pinIndex) at(pt r2.Point, visible func(Pin) bool) (Pin, bool) {
	query, err := rtreego.NewRect(rtreego.Point{pt.X, pt.Y}, []float64{hitEpsilon, hitEpsilon})
	if err != nil {
		return Pin{}, false
	}

	best := -1
	for _, hit := range ix.tree.SearchIntersect(query) {
		box, ok := hit.(*pinBox)
		if !ok {
			continue
		}
		p := ix.pins[box.idx]
		if visible != nil && !visible(p) {
			continue
		}
		if pt.Sub(p.Point).Norm() > p.Size {
			continue
		}
		if best < 0 || p.Size < ix.pins[best].Size || (p.Size == ix.pins[best].Size && box.idx > best) {
			best = box.idx
		}
	}
	if best < 0 {
		return Pin{}, false
	}
	return ix.pins[best], true
}
