package photodrift

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"
)

const (
	// thumbSize is the atlas cell edge in pixels.
	thumbSize = 512
	// maxAtlasSize caps either atlas dimension; GPU texture limits.
	maxAtlasSize = 8192
)

var ErrNoImages = errors.New("atlas: no images to pack")

// UVRect addresses a sub-region of the atlas in normalized texture space.
// The Y axis is flipped relative to image rows (YStart > YEnd): card geometry
// is generated with V growing upward, so the mapping stays inverted on purpose.
type UVRect struct {
	XStart float32
	XEnd   float32
	YStart float32
	YEnd   float32
}

// ImageInfo describes one packed source image.
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float32
	UV          UVRect
}

type atlasLayout struct {
	cols   int
	rows   int
	cell   int
	width  int
	height int
}

// layoutAtlas computes the near-square grid for n images. The cell shrinks
// below thumbSize when a full-size grid would exceed maxAtlasSize.
func layoutAtlas(n int) atlasLayout {
	cols := int(math32.Ceil(math32.Sqrt(float32(n))))
	rows := int(math32.Ceil(float32(n) / float32(cols)))

	cell := thumbSize
	if cols*cell > maxAtlasSize {
		cell = maxAtlasSize / cols
	}
	if rows*cell > maxAtlasSize {
		cell = maxAtlasSize / rows
	}

	return atlasLayout{
		cols:   cols,
		rows:   rows,
		cell:   cell,
		width:  cols * cell,
		height: rows * cell,
	}
}

// BuildAtlas packs the decoded bitmaps into one composite RGBA bitmap and
// returns the per-image UV table, ordered like the input. Each image is
// cover-cropped into its cell: scaled preserving aspect ratio until the cell
// is fully covered, centered, and clipped at the cell boundary. Packing is
// deterministic for a given input sequence.
func BuildAtlas(bitmaps []image.Image) (*image.RGBA, []ImageInfo, error) {
	if len(bitmaps) == 0 {
		return nil, nil, ErrNoImages
	}

	layout := layoutAtlas(len(bitmaps))
	atlas := image.NewRGBA(image.Rect(0, 0, layout.width, layout.height))
	// White background so cells without full coverage never show through as
	// transparent seams.
	draw.Draw(atlas, atlas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	infos := make([]ImageInfo, len(bitmaps))
	for k, bitmap := range bitmaps {
		col := k % layout.cols
		row := k / layout.cols
		cellX := col * layout.cell
		cellY := row * layout.cell

		srcBounds := bitmap.Bounds()
		srcW := srcBounds.Dx()
		srcH := srcBounds.Dy()
		aspect := float32(srcW) / float32(srcH)

		var drawX, drawY, drawW, drawH int
		if aspect > 1 {
			// Wide: fill the cell height, center horizontally.
			drawH = layout.cell
			drawW = int(math32.Round(float32(layout.cell) * aspect))
			drawX = cellX - (drawW-layout.cell)/2
			drawY = cellY
		} else {
			// Tall or square: fill the cell width, center vertically.
			drawW = layout.cell
			drawH = int(math32.Round(float32(layout.cell) / aspect))
			drawX = cellX
			drawY = cellY - (drawH-layout.cell)/2
		}

		cellRect := image.Rect(cellX, cellY, cellX+layout.cell, cellY+layout.cell)
		cell := atlas.SubImage(cellRect).(*image.RGBA)
		drawRect := image.Rect(drawX, drawY, drawX+drawW, drawY+drawH)
		xdraw.ApproxBiLinear.Scale(cell, drawRect, bitmap, srcBounds, xdraw.Src, nil)

		infos[k] = ImageInfo{
			Width:       srcW,
			Height:      srcH,
			AspectRatio: aspect,
			UV: UVRect{
				XStart: float32(cellX) / float32(layout.width),
				XEnd:   float32(cellX+layout.cell) / float32(layout.width),
				YStart: 1 - float32(cellY)/float32(layout.height),
				YEnd:   1 - float32(cellY+layout.cell)/float32(layout.height),
			},
		}
	}

	return atlas, infos, nil
}
