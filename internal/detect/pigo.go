// Face detection backed by pigo's pixel-intensity cascade classifier.
package detect

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const (
	minFaceSize   = 20
	maxFaceSize   = 1000
	shiftFactor   = 0.1
	scaleFactor   = 1.1
	clusterIoU    = 0.2
	qualityThresh = 5.0
	jpegQuality   = 90
)

var boxColor = color.RGBA{G: 255, A: 255}

type Detector struct {
	classifier *pigo.Pigo
}

// NewDetector loads the binary cascade file and unpacks the classifier
// once; Detect is safe for concurrent use afterwards.
func NewDetector(cascadeFile string) (*Detector, error) {
	cascade, err := os.ReadFile(cascadeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	return &Detector{classifier: classifier}, nil
}

// Detect decodes a JPEG or PNG image, draws a box around every detected
// face and returns the annotated image as JPEG along with the face count.
func (d *Detector) Detect(data []byte) ([]byte, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)

	pixels := pigo.RgbToGrayscale(rgba)
	cols, rows := bounds.Dx(), bounds.Dy()

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxFaceSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, clusterIoU)

	faces := 0
	for _, det := range dets {
		if det.Q < qualityThresh {
			continue
		}
		faces++
		half := det.Scale / 2
		drawRect(rgba, det.Col-half, det.Row-half, det.Scale, det.Scale)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, fmt.Errorf("failed to encode result: %w", err)
	}
	return buf.Bytes(), faces, nil
}

func drawRect(img *image.RGBA, x, y, w, h int) {
	const thickness = 2
	bounds := img.Bounds()
	for t := 0; t < thickness; t++ {
		for i := x; i <= x+w; i++ {
			setPixel(img, bounds, i, y+t)
			setPixel(img, bounds, i, y+h-t)
		}
		for j := y; j <= y+h; j++ {
			setPixel(img, bounds, x+t, j)
			setPixel(img, bounds, x+w-t, j)
		}
	}
}

func setPixel(img *image.RGBA, bounds image.Rectangle, x, y int) {
	if image.Pt(x, y).In(bounds) {
		img.SetRGBA(x, y, boxColor)
	}
}
