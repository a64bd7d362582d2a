package render

import (
	"bytes"
	"image/png"
	"testing"

	"protodraw/memento"
	"protodraw/shapes"
)

func TestThumbnail_Dimensions(t *testing.T) {
	m := memento.NewShapeMemento([]shapes.Shape{
		shapes.NewRectangle(10, 10, 100, 60, shapes.DefaultStyle()),
		shapes.NewGroup(
			shapes.NewCircle(200, 200, 20, shapes.DefaultStyle()),
			shapes.NewRegularPolygon(260, 200, 20, 6, shapes.DefaultStyle()),
		),
		shapes.NewPolygon([]shapes.Point{{X: 0, Y: 300}, {X: 40, Y: 300}, {X: 20, Y: 340}}, shapes.DefaultStyle()),
	})

	data, err := NewThumbnailer(64).Thumbnail(m)
	if err != nil {
		t.Fatalf("Thumbnail() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("thumbnail size mismatch: got %dx%d, want 64x64", b.Dx(), b.Dy())
	}
}

func TestThumbnail_FillsShape(t *testing.T) {
	red := shapes.Style{Border: shapes.Transparent, Fill: shapes.RGB(255, 0, 0)}
	m := memento.NewShapeMemento([]shapes.Shape{shapes.NewRectangle(0, 0, 100, 100, red)})

	data, err := NewThumbnailer(32).Thumbnail(m)
	if err != nil {
		t.Fatalf("Thumbnail() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() failed: %v", err)
	}
	r, g, b, _ := img.At(16, 16).RGBA()
	if r>>8 < 200 || g>>8 > 50 || b>>8 > 50 {
		t.Errorf("center pixel should be red, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestThumbnail_EmptyCanvas(t *testing.T) {
	data, err := NewThumbnailer(0).Thumbnail(memento.NewShapeMemento(nil))
	if err != nil {
		t.Fatalf("Thumbnail() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() failed: %v", err)
	}
	if img.Bounds().Dx() != DefaultSize {
		t.Errorf("default size mismatch: got %d", img.Bounds().Dx())
	}
}

func TestThumbnail_NilMemento(t *testing.T) {
	if _, err := NewThumbnailer(16).Thumbnail(nil); err == nil {
		t.Error("Thumbnail(nil) should fail")
	}
}
