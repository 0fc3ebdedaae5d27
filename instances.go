package photodrift

import (
	"errors"
	"math/rand"
)

var ErrNoPackedImages = errors.New("instances: no packed images to assign")

// Depth band for card placement; far cards carry the parallax.
const (
	depthFar  = -30.0
	depthNear = 7.0
)

const (
	speedMin = 0.5
	speedMax = 1.0
)

// FieldBounds is the world-space half-extent of the card field on each axis.
type FieldBounds struct {
	MaxX float32
	MaxY float32
}

// InstanceBuffers holds the parallel per-instance attribute arrays consumed
// by the instanced pipeline: xyz position triples, an animation speed scalar,
// the assigned photo index, and that photo's UV rect.
type InstanceBuffers struct {
	Positions    []float32 // 3 per instance
	Speeds       []float32 // 1 per instance
	PhotoIndices []uint32  // 1 per instance
	UVs          []float32 // 4 per instance: xStart, xEnd, yStart, yEnd
	Count        int
}

// GenerateInstances scatters meshCount cards across the field and assigns
// photos round-robin: instance i always shows infos[i mod len(infos)].
// A rebuild replaces every buffer wholesale; instances have no stable photo
// identity across rebuilds.
func GenerateInstances(infos []ImageInfo, bounds FieldBounds, meshCount int) (*InstanceBuffers, error) {
	if len(infos) == 0 {
		return nil, ErrNoPackedImages
	}

	buffers := &InstanceBuffers{
		Positions:    make([]float32, meshCount*3),
		Speeds:       make([]float32, meshCount),
		PhotoIndices: make([]uint32, meshCount),
		UVs:          make([]float32, meshCount*4),
		Count:        meshCount,
	}

	for i := 0; i < meshCount; i++ {
		buffers.Positions[i*3+0] = uniformRand(-bounds.MaxX, bounds.MaxX)
		buffers.Positions[i*3+1] = uniformRand(-bounds.MaxY, bounds.MaxY)
		buffers.Positions[i*3+2] = uniformRand(depthFar, depthNear)

		buffers.Speeds[i] = uniformRand(speedMin, speedMax)

		photoIndex := i % len(infos)
		buffers.PhotoIndices[i] = uint32(photoIndex)

		uv := infos[photoIndex].UV
		buffers.UVs[i*4+0] = uv.XStart
		buffers.UVs[i*4+1] = uv.XEnd
		buffers.UVs[i*4+2] = uv.YStart
		buffers.UVs[i*4+3] = uv.YEnd
	}

	return buffers, nil
}

func uniformRand(min, max float32) float32 {
	return min + rand.Float32()*(max-min)
}
