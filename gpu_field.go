package photodrift

import (
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
)

// cardShaderWGSL implements the uniform contract; the drift animation and
// card look are placeholders and not part of the contract.
const cardShaderWGSL = `
struct FieldUniforms {
    time: f32,
    scroll: f32,
    momentum: f32,
    _pad: f32,
    drag: vec2<f32>,
    bounds: vec2<f32>,
};

@group(0) @binding(0) var<uniform> field: FieldUniforms;
@group(0) @binding(1) var atlasSampler: sampler;
@group(0) @binding(2) var atlasTexture: texture_2d<f32>;
@group(0) @binding(3) var blurTexture: texture_2d<f32>;

struct VsIn {
    @location(0) corner: vec2<f32>,
    @location(1) cardPos: vec3<f32>,
    @location(2) speed: f32,
    @location(3) uvRect: vec4<f32>,
};

struct VsOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) reveal: f32,
};

fn wrapAxis(v: f32, extent: f32) -> f32 {
    let span = extent * 2.0;
    return v - span * floor((v + extent) / span);
}

@vertex
fn vs_main(in: VsIn) -> VsOut {
    var world = in.cardPos;
    world.x = wrapAxis(world.x + field.drag.x, field.bounds.x);
    world.y = wrapAxis(world.y + field.drag.y + field.scroll * in.speed, field.bounds.y);
    world.y = world.y + sin(field.time * in.speed + in.cardPos.x) * 0.2;

    let depth = 12.0 - world.z;
    let projected = vec2<f32>(world.x, world.y) * (8.0 / depth);
    let corner = in.corner * vec2<f32>(1.0, 0.75) * (8.0 / depth);

    var out: VsOut;
    out.position = vec4<f32>(
        (projected.x + corner.x) / field.bounds.x,
        (projected.y + corner.y) / field.bounds.y,
        0.0,
        1.0,
    );
    out.uv = vec2<f32>(
        mix(in.uvRect.x, in.uvRect.y, in.corner.x + 0.5),
        mix(in.uvRect.z, in.uvRect.w, in.corner.y + 0.5),
    );
    out.reveal = clamp(field.time * in.speed * 0.5, 0.0, 1.0);
    return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
    let sharp = textureSample(atlasTexture, atlasSampler, in.uv);
    let soft = textureSample(blurTexture, atlasSampler, in.uv);
    return mix(soft, sharp, in.reveal);
}
`

type cardVertex struct {
	corner [2]float32 `drift:"layout" location:"0" format:"float2"`
}

type cardInstance struct {
	position [3]float32 `drift:"layout" location:"1" format:"float3"`
	speed    float32    `drift:"layout" location:"2" format:"float"`
	uv       [4]float32 `drift:"layout" location:"3" format:"float4"`
}

// fieldUniforms is the per-frame shader snapshot. Field order matches the
// WGSL struct; names are stable across atlas reloads.
type fieldUniforms struct {
	Time     float32
	Scroll   float32
	Momentum float32
	Pad      float32
	Drag     [2]float32
	Bounds   [2]float32
}

var cardQuadVertices = []cardVertex{
	{corner: [2]float32{-0.5, -0.5}},
	{corner: [2]float32{0.5, -0.5}},
	{corner: [2]float32{-0.5, 0.5}},
	{corner: [2]float32{0.5, 0.5}},
}

var cardQuadIndices = []uint16{0, 1, 2, 2, 1, 3}

type fieldRenderState struct {
	pipeline    *wgpu.RenderPipeline
	sampler     *wgpu.Sampler
	vertexBuf   *wgpu.Buffer
	indexBuf    *wgpu.Buffer
	uniformBuf  *wgpu.Buffer
	instanceBuf *wgpu.Buffer

	atlasTexture *wgpu.Texture
	atlasView    *wgpu.TextureView
	blurTexture  *wgpu.Texture
	blurView     *wgpu.TextureView

	bindGroup     *wgpu.BindGroup
	instanceCount uint32
	syncedVersion uint64
}

// FieldRendererModule draws the committed card field each frame. Requires
// PlatformModule, FieldModule, InteractionModule and TimeModule.
type FieldRendererModule struct{}

func (mod FieldRendererModule) Install(app *App) {
	gpuState := GetResource[GpuState](app)
	if gpuState == nil {
		panic("FieldRendererModule requires PlatformModule")
	}

	rs := &fieldRenderState{}
	rs.pipeline = createCardPipeline(gpuState)

	sampler, err := gpuState.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Atlas Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
	rs.sampler = sampler

	rs.vertexBuf, err = gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Card Quad Vertices",
		Contents: wgpu.ToBytes(cardQuadVertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	rs.indexBuf, err = gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Card Quad Indices",
		Contents: wgpu.ToBytes(cardQuadIndices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		panic(err)
	}
	rs.uniformBuf, err = gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Field Uniforms",
		Contents: wgpu.ToBytes([]fieldUniforms{{}}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	app.AddResources(rs)
	app.UseSystem(System(fieldRenderSystem).InStage(Render))
}

func createCardPipeline(gpuState *GpuState) *wgpu.RenderPipeline {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Card Field Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cardShaderWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer shader.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				createVertexBufferLayout(cardVertex{}, wgpu.VertexStepModeVertex),
				createVertexBufferLayout(cardInstance{}, wgpu.VertexStepModeInstance),
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: gpuState.surfaceConfig.Format,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		panic(err)
	}
	return pipeline
}

func createVertexBufferLayout(vertexType any, stepMode wgpu.VertexStepMode) wgpu.VertexBufferLayout {
	t := reflect.TypeOf(vertexType)
	if t.Kind() != reflect.Struct {
		panic("Vertex must be a struct")
	}

	var attributes []wgpu.VertexAttribute
	var offset uint64 = 0

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if "layout" == field.Tag.Get("drift") {
			format := parseFormat(field.Tag.Get("format"))
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if nil != err {
				panic(err)
			}

			attributes = append(attributes, wgpu.VertexAttribute{
				ShaderLocation: uint32(location),
				Offset:         offset,
				Format:         format,
			})
		}

		offset += uint64(field.Type.Size())
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    stepMode,
		Attributes:  attributes,
	}
}

func parseFormat(name string) wgpu.VertexFormat {
	switch name {
	case "float":
		return wgpu.VertexFormatFloat32
	case "float2":
		return wgpu.VertexFormatFloat32x2
	case "float3":
		return wgpu.VertexFormatFloat32x3
	case "float4":
		return wgpu.VertexFormatFloat32x4
	default:
		panic("unsupported vertex layout format: " + name)
	}
}

func packInstances(buffers *InstanceBuffers) []cardInstance {
	packed := make([]cardInstance, buffers.Count)
	for i := 0; i < buffers.Count; i++ {
		packed[i] = cardInstance{
			position: [3]float32{
				buffers.Positions[i*3+0],
				buffers.Positions[i*3+1],
				buffers.Positions[i*3+2],
			},
			speed: buffers.Speeds[i],
			uv: [4]float32{
				buffers.UVs[i*4+0],
				buffers.UVs[i*4+1],
				buffers.UVs[i*4+2],
				buffers.UVs[i*4+3],
			},
		}
	}
	return packed
}

// syncFieldResources reuploads GPU resources after an atlas commit. New
// textures are created before the old ones are released so no frame ever
// samples an unbound texture.
func (rs *fieldRenderState) syncFieldResources(state *FieldState, gpuState *GpuState) {
	atlas, blurred, instances, version := state.renderSnapshot()
	if version == rs.syncedVersion || atlas == nil || instances == nil {
		return
	}

	buildID := state.BuildID().String()
	atlasTexture, atlasView := createTextureFromImage(atlas, "Photo Atlas "+buildID, gpuState)
	var blurTexture *wgpu.Texture
	blurView := atlasView
	if blurred != nil {
		blurTexture, blurView = createTextureFromImage(blurred, "Photo Atlas Blur "+buildID, gpuState)
	}

	instanceBuf, err := gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Card Instances",
		Contents: wgpu.ToBytes(packInstances(instances)),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}

	bindGroupLayout := rs.pipeline.GetBindGroupLayout(0)
	defer bindGroupLayout.Release()
	bindGroup, err := gpuState.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: rs.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, Sampler: rs.sampler, Size: wgpu.WholeSize},
			{Binding: 2, TextureView: atlasView, Size: wgpu.WholeSize},
			{Binding: 3, TextureView: blurView, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}

	rs.releaseFieldResources()
	rs.atlasTexture = atlasTexture
	rs.atlasView = atlasView
	rs.blurTexture = blurTexture
	if blurTexture != nil {
		rs.blurView = blurView
	} else {
		rs.blurView = nil
	}
	rs.instanceBuf = instanceBuf
	rs.instanceCount = uint32(instances.Count)
	rs.bindGroup = bindGroup
	rs.syncedVersion = version
}

func (rs *fieldRenderState) releaseFieldResources() {
	if rs.bindGroup != nil {
		rs.bindGroup.Release()
	}
	if rs.instanceBuf != nil {
		rs.instanceBuf.Release()
	}
	if rs.blurView != nil {
		rs.blurView.Release()
	}
	if rs.blurTexture != nil {
		rs.blurTexture.Release()
	}
	if rs.atlasView != nil {
		rs.atlasView.Release()
	}
	if rs.atlasTexture != nil {
		rs.atlasTexture.Release()
	}
}

// fieldRenderSystem is the per-frame writeback and draw. Interaction damping
// has already run in PreUpdate and commits in Update, so this system sees a
// consistent snapshot: time, drag, scroll, momentum, then one instanced draw.
func fieldRenderSystem(rs *fieldRenderState, state *FieldState, inter *Interaction, t *Time, gpuState *GpuState) {
	rs.syncFieldResources(state, gpuState)

	bounds := state.Bounds()
	uniforms := fieldUniforms{
		Time:     t.Elapsed,
		Scroll:   inter.Scroll.Current,
		Momentum: inter.Scroll.Momentum,
		Drag:     [2]float32{inter.Drag.CurrentX, inter.Drag.CurrentY},
		Bounds:   [2]float32{bounds.MaxX, bounds.MaxY},
	}
	err := gpuState.queue.WriteBuffer(rs.uniformBuf, 0, wgpu.ToBytes([]fieldUniforms{uniforms}))
	if err != nil {
		panic(err)
	}

	nextTexture, err := gpuState.surface.GetCurrentTexture()
	if err != nil {
		panic(err)
	}
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer view.Release()

	encoder, err := gpuState.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.96, G: 0.96, B: 0.95, A: 1.0},
			},
		},
	})

	if rs.instanceCount > 0 && rs.bindGroup != nil {
		renderPass.SetPipeline(rs.pipeline)
		renderPass.SetBindGroup(0, rs.bindGroup, nil)
		renderPass.SetVertexBuffer(0, rs.vertexBuf, 0, wgpu.WholeSize)
		renderPass.SetVertexBuffer(1, rs.instanceBuf, 0, wgpu.WholeSize)
		renderPass.SetIndexBuffer(rs.indexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
		renderPass.DrawIndexed(uint32(len(cardQuadIndices)), rs.instanceCount, 0, 0, 0)
	}

	err = renderPass.End()
	renderPass.Release()
	if err != nil {
		panic(err)
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()

	gpuState.queue.Submit(cmdBuffer)
	gpuState.surface.Present()
}
