package blueprint

import (
	"fmt"
	"image"
	"strings"

	"github.com/fogleman/gg"
	"github.com/mektycoon/mekforge/internal/typeface"
	"github.com/mektycoon/mekforge/pkg/domain"
)

const (
	searchRadius = 200
	boxPadding   = 6
	boxOffset    = 10
	leaderWidth  = 2
	dotRadius    = 4
	// glyph size per unit of annotation font size
	fontPointsPerSize = 1.5
)

// Label is one annotation text and the corner it is anchored to.
type Label struct {
	Text     string
	Position domain.Position
}

// Labels lists the annotations drawn for o, in drawing order.
func (o TechnicalOptions) Labels() []Label {
	var out []Label
	if o.HeadName != "" {
		out = append(out, Label{"HEAD: " + o.HeadName, o.HeadPosition})
	}
	if o.BodyName != "" {
		out = append(out, Label{"BODY: " + o.BodyName, o.BodyPosition})
	}
	if o.ItemName != "" {
		out = append(out, Label{"ITEM: " + o.ItemName, o.ItemPosition})
	}
	rank := o.MekRank
	if rank == "" {
		rank = defaultMekRank
	}
	out = append(out, Label{"RANK: " + rank, o.RankPosition})
	if o.MekCode != "" {
		out = append(out, Label{"MEK: " + strings.ToUpper(o.MekCode), o.MekPosition})
	}
	return out
}

// anchors returns the label anchor and the centre of the quadrant searched
// for a leader target.
func anchors(p domain.Position, size, margin int) (anchor, centre image.Point) {
	anchor = image.Pt(margin, margin)
	centre = image.Pt(size/4, size/4)
	if p.Right() {
		anchor.X = size - margin
		centre.X = size * 3 / 4
	}
	if p.Bottom() {
		anchor.Y = size - margin
		centre.Y = size * 3 / 4
	}
	return anchor, centre
}

// nearestEdge returns the edge pixel closest to target inside the square of
// searchRadius around centre, or centre when the square holds no edge.
func nearestEdge(edges *image.Gray, centre, target image.Point) image.Point {
	b := edges.Rect
	x0, x1 := max(b.Min.X, centre.X-searchRadius), min(b.Max.X, centre.X+searchRadius)
	y0, y1 := max(b.Min.Y, centre.Y-searchRadius), min(b.Max.Y, centre.Y+searchRadius)
	best, bestD := centre, -1
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if edges.GrayAt(x, y).Y <= edgeThreshold {
				continue
			}
			dx, dy := x-target.X, y-target.Y
			if d := dx*dx + dy*dy; bestD < 0 || d < bestD {
				best, bestD = image.Pt(x, y), d
			}
		}
	}
	return best
}

// labelBox places the text box next to anchor, growing away from the
// canvas corner the label belongs to. It returns the box and the baseline
// origin of the text.
func labelBox(p domain.Position, anchor image.Point, textW, textH int) (box image.Rectangle, text image.Point) {
	if p.Right() {
		box.Max.X = anchor.X - boxOffset
		box.Min.X = box.Max.X - textW - boxPadding*2
	} else {
		box.Min.X = anchor.X + boxOffset
		box.Max.X = box.Min.X + textW + boxPadding*2
	}
	text.X = box.Min.X + boxPadding
	if p.Bottom() {
		box.Max.Y = anchor.Y - boxOffset
		box.Min.Y = box.Max.Y - textH - boxPadding*2
		text.Y = box.Max.Y - boxPadding
	} else {
		box.Min.Y = anchor.Y + boxOffset
		box.Max.Y = box.Min.Y + textH + boxPadding*2
		text.Y = box.Min.Y + textH + boxPadding/2
	}
	return box, text
}

// leaderPath returns the polyline from the edge point to the box centre.
func leaderPath(style string, from, to image.Point) []image.Point {
	if style != LeaderAngled {
		return []image.Point{from, to}
	}
	mid := image.Pt((from.X+to.X)/2, (from.Y+to.Y)/2)
	return []image.Point{
		from,
		{mid.X, from.Y},
		{mid.X, mid.Y},
		{to.X, mid.Y},
		to,
	}
}

func annotate(dc *gg.Context, edges *image.Gray, o TechnicalOptions) error {
	face, err := typeface.Face(typeface.MonoBold, float64(o.FontSize)*fontPointsPerSize)
	if err != nil {
		return fmt.Errorf("annotation font: %w", err)
	}
	defer face.Close()
	dc.SetFontFace(face)
	textH := face.Metrics().Ascent.Ceil()

	for _, l := range o.Labels() {
		anchor, centre := anchors(l.Position, o.OutputSize, o.LabelMargin)
		target := nearestEdge(edges, centre, anchor)

		w, _ := dc.MeasureString(l.Text)
		box, origin := labelBox(l.Position, anchor, int(w+0.5), textH)
		boxCentre := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)

		dc.SetColor(Gold)
		dc.SetLineWidth(leaderWidth)
		path := leaderPath(o.AnnotationStyle, target, boxCentre)
		for i := 1; i < len(path); i++ {
			dc.DrawLine(float64(path[i-1].X), float64(path[i-1].Y), float64(path[i].X), float64(path[i].Y))
		}
		dc.Stroke()
		dc.DrawCircle(float64(target.X), float64(target.Y), dotRadius)
		dc.Fill()

		x, y := float64(box.Min.X), float64(box.Min.Y)
		bw, bh := float64(box.Dx()), float64(box.Dy())
		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(x, y, bw, bh)
		dc.Fill()
		dc.SetColor(Gold)
		dc.DrawRectangle(x, y, bw, bh)
		dc.Stroke()

		dc.DrawString(l.Text, float64(origin.X), float64(origin.Y))
	}
	return nil
}
