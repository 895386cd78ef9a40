//go:build gocv

package blueprint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/raster"
	"gocv.io/x/gocv"
)

func init() {
	RegisterExtractor("opencv", OpenCVEdges{})
}

// OpenCVEdges runs the classic edge pipeline through OpenCV. It needs the
// gocv build tag and a system OpenCV installation.
type OpenCVEdges struct{}

func (OpenCVEdges) Extract(gray *image.Gray, detail domain.DetailLevel) (*image.Gray, error) {
	p := paramsFor(detail)
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("load mat: %w", err)
	}
	defer src.Close()

	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(src, &smooth, 9, 75, 75)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(smooth, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, 11, 2)

	contours := gocv.FindContours(binary, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	outline := gocv.NewMatWithSize(src.Rows(), src.Cols(), gocv.MatTypeCV8U)
	defer outline.Close()
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if gocv.ContourArea(c) < minContourArea {
			continue
		}
		approx := gocv.ApproxPolyDP(c, p.epsilon*gocv.ArcLength(c, true), true)
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{approx.ToPoints()})
		gocv.DrawContours(&outline, pv, -1, color.RGBA{255, 255, 255, 255}, 1)
		pv.Close()
		approx.Close()
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(smooth, &edges, float32(p.cannyLow), float32(p.cannyHigh))

	blended := gocv.NewMat()
	defer blended.Close()
	gocv.AddWeighted(outline, 0.7, edges, 0.4, 0, &blended)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2, 2))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(blended, &closed, gocv.MorphClose, kernel)

	img, err := closed.ToImage()
	if err != nil {
		return nil, fmt.Errorf("export mat: %w", err)
	}
	return raster.ToGray(img), nil
}
