package detect

import (
	"image"
	"testing"
)

func TestDetectRejectsUndecodableData(t *testing.T) {
	d := &Detector{}
	if _, _, err := d.Detect([]byte("definitely not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewDetectorMissingCascade(t *testing.T) {
	if _, err := NewDetector("testdata/does-not-exist"); err == nil {
		t.Fatalf("expected error for missing cascade file")
	}
}

func TestDrawRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	drawRect(img, 10, 10, 40, 40)

	if img.RGBAAt(10, 10) != boxColor {
		t.Fatalf("expected box corner to be drawn")
	}
	if img.RGBAAt(30, 10) != boxColor {
		t.Fatalf("expected top edge to be drawn")
	}
	if img.RGBAAt(30, 30) == boxColor {
		t.Fatalf("interior must stay untouched")
	}
}

func TestDrawRectClampsToBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	// A detection near the border may extend past the image; drawing must
	// not panic.
	drawRect(img, -5, -5, 30, 30)
	drawRect(img, 15, 15, 30, 30)
}
