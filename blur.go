package photodrift

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
)

// blurRadius is deliberately large; the result only needs to read as a color
// wash behind the sharp atlas during progressive reveal.
const blurRadius = 50

// BuildBlurAtlas derives the low-detail placeholder copy of the composite
// atlas. Best effort: any failure yields nil and the field renders with the
// primary atlas alone.
func BuildBlurAtlas(atlas *image.RGBA) (blurred *image.RGBA) {
	if atlas == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			blurred = nil
		}
	}()
	return blur.Gaussian(atlas, blurRadius)
}
