package photodrift

import (
	"bytes"
	"image"
	"image/color"
	"reflect"
	"testing"
)

func solidBitmap(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func solidBitmaps(n int) []image.Image {
	bitmaps := make([]image.Image, n)
	for i := range bitmaps {
		bitmaps[i] = solidBitmap(64, 64, color.RGBA{R: uint8(i * 20), G: 100, B: 50, A: 255})
	}
	return bitmaps
}

func TestLayoutAtlas_GridDimensions(t *testing.T) {
	cases := []struct {
		n    int
		cols int
		rows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
		{9, 3, 3},
		{10, 4, 3},
		{16, 4, 4},
	}
	for _, tc := range cases {
		layout := layoutAtlas(tc.n)
		if layout.cols != tc.cols || layout.rows != tc.rows {
			t.Errorf("n=%d: expected %dx%d grid, got %dx%d", tc.n, tc.cols, tc.rows, layout.cols, layout.rows)
		}
		if layout.cell != thumbSize {
			t.Errorf("n=%d: expected full-size cell, got %d", tc.n, layout.cell)
		}
	}
}

func TestLayoutAtlas_CapsDimensions(t *testing.T) {
	// 400 images -> 20 columns; 20*512 would be 10240, over the cap.
	layout := layoutAtlas(400)
	if layout.cols != 20 || layout.rows != 20 {
		t.Fatalf("expected 20x20 grid, got %dx%d", layout.cols, layout.rows)
	}
	if layout.cell >= thumbSize {
		t.Errorf("expected shrunken cell, got %d", layout.cell)
	}
	if layout.width > maxAtlasSize || layout.height > maxAtlasSize {
		t.Errorf("atlas %dx%d exceeds cap %d", layout.width, layout.height, maxAtlasSize)
	}
}

func TestBuildAtlas_Empty(t *testing.T) {
	_, _, err := BuildAtlas(nil)
	if err != ErrNoImages {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
}

func TestBuildAtlas_UVRectangles(t *testing.T) {
	atlas, infos, err := BuildAtlas(solidBitmaps(5))
	if err != nil {
		t.Fatal(err)
	}
	if atlas == nil {
		t.Fatal("expected composite bitmap")
	}
	if len(infos) != 5 {
		t.Fatalf("expected 5 infos, got %d", len(infos))
	}

	for k, info := range infos {
		uv := info.UV
		if uv.XStart < 0 || uv.XEnd > 1 || uv.XStart >= uv.XEnd {
			t.Errorf("image %d: bad X range [%v, %v]", k, uv.XStart, uv.XEnd)
		}
		if uv.YStart < 0 || uv.YStart > 1 || uv.YEnd < 0 || uv.YEnd > 1 {
			t.Errorf("image %d: Y range outside [0,1]: [%v, %v]", k, uv.YStart, uv.YEnd)
		}
		// The vertical mapping is flipped on purpose.
		if uv.YStart <= uv.YEnd {
			t.Errorf("image %d: expected YStart > YEnd, got [%v, %v]", k, uv.YStart, uv.YEnd)
		}
	}
}

func TestBuildAtlas_CellsDisjoint(t *testing.T) {
	_, infos, err := BuildAtlas(solidBitmaps(7))
	if err != nil {
		t.Fatal(err)
	}

	layout := layoutAtlas(7)
	rects := make([]image.Rectangle, len(infos))
	for k, info := range infos {
		x0 := int(info.UV.XStart * float32(layout.width))
		x1 := int(info.UV.XEnd * float32(layout.width))
		y0 := int((1 - info.UV.YStart) * float32(layout.height))
		y1 := int((1 - info.UV.YEnd) * float32(layout.height))
		rects[k] = image.Rect(x0, y0, x1, y1)
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Errorf("cells %d and %d overlap: %v vs %v", i, j, rects[i], rects[j])
			}
		}
	}
}

func TestBuildAtlas_Deterministic(t *testing.T) {
	bitmaps := solidBitmaps(6)

	atlasA, infosA, err := BuildAtlas(bitmaps)
	if err != nil {
		t.Fatal(err)
	}
	atlasB, infosB, err := BuildAtlas(bitmaps)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(infosA, infosB) {
		t.Error("UV tables differ between identical builds")
	}
	if !bytes.Equal(atlasA.Pix, atlasB.Pix) {
		t.Error("composite pixels differ between identical builds")
	}
}

func TestBuildAtlas_EmptyCellsAreWhite(t *testing.T) {
	// 3 images pack into a 2x2 grid, leaving the bottom-right cell empty.
	atlas, _, err := BuildAtlas(solidBitmaps(3))
	if err != nil {
		t.Fatal(err)
	}

	layout := layoutAtlas(3)
	x := layout.cell + layout.cell/2
	y := layout.cell + layout.cell/2
	r, g, b, a := atlas.At(x, y).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("empty cell pixel at (%d,%d) is not white: %v", x, y, atlas.At(x, y))
	}
}

func TestBuildAtlas_CoverCropWideImage(t *testing.T) {
	// Left half red, right half blue. Cover-cropping a 2:1 image keeps the
	// horizontal center: the cell's left edge must still be red and the
	// right edge blue, with no white background visible inside the cell.
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				src.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	atlas, infos, err := BuildAtlas([]image.Image{src})
	if err != nil {
		t.Fatal(err)
	}
	if infos[0].AspectRatio != 2 {
		t.Errorf("expected aspect ratio 2, got %v", infos[0].AspectRatio)
	}

	layout := layoutAtlas(1)
	mid := layout.cell / 2
	r, _, _, _ := atlas.At(2, mid).RGBA()
	if r < 0x8000 {
		t.Errorf("left edge of cell lost the red half: %v", atlas.At(2, mid))
	}
	_, _, b, _ := atlas.At(layout.cell-3, mid).RGBA()
	if b < 0x8000 {
		t.Errorf("right edge of cell lost the blue half: %v", atlas.At(layout.cell-3, mid))
	}
}

func TestBuildAtlas_TallImageClippedToCell(t *testing.T) {
	// A 1:4 image drawn with cover semantics overflows its cell vertically;
	// the overflow must not bleed into the cell below.
	tall := solidBitmap(50, 200, color.RGBA{G: 255, A: 255})
	wide := solidBitmap(200, 50, color.RGBA{R: 255, A: 255})
	white := solidBitmap(64, 64, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	atlas, _, err := BuildAtlas([]image.Image{tall, white, wide})
	if err != nil {
		t.Fatal(err)
	}

	layout := layoutAtlas(3)
	// Directly below the tall image's cell lives the wide image's cell
	// (linear index 2 -> col 0, row 1); its center must be red, not green.
	x := layout.cell / 2
	y := layout.cell + layout.cell/2
	r, g, _, _ := atlas.At(x, y).RGBA()
	if g > r {
		t.Errorf("tall image bled into the cell below: %v", atlas.At(x, y))
	}
}
