package render

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// WGPU backend errors.
var (
	// ErrNilDeviceHandle is returned when a nil DeviceHandle is passed.
	ErrNilDeviceHandle = errors.New("render: nil DeviceHandle")

	// ErrNoHALAccess is returned when a DeviceHandle does not expose its
	// underlying HAL device and queue.
	ErrNoHALAccess = errors.New("render: DeviceHandle does not expose HAL types")
)

// quadVertexStride is the byte stride of one quad vertex: position (2 x
// float32) followed by texture coordinates (2 x float32).
const quadVertexStride = 16

// gpuFenceTimeout bounds every submit-and-wait. A frame that takes longer
// than this indicates a lost device, not a slow frame.
const gpuFenceTimeout = 5 * time.Second

// quadVertices is a full-surface triangle strip in clip space with
// Y-flipped UVs, matching the presentation orientation of a surface.
var quadVertices = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

// WGPUBackend implements Backend on top of gogpu/wgpu's HAL.
//
// The device and queue come from the host application (see DeviceHandle);
// the backend never creates its own device. All handle tables are guarded
// by one mutex; GPU submission itself is serialized by the HAL queue.
type WGPUBackend struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	nextID     uint64
	textures   map[TextureHandle]*wgpuTexture
	geometries map[GeometryID]hal.Buffer
	programs   map[ProgramID]*wgpuProgram
}

type wgpuTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	format gputypes.TextureFormat
}

type wgpuProgram struct {
	vsModule   hal.ShaderModule
	fsModule   hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	pipeline   hal.RenderPipeline
}

// NewWGPUBackend creates a backend over an existing HAL device and queue.
func NewWGPUBackend(device hal.Device, queue hal.Queue) *WGPUBackend {
	return &WGPUBackend{
		device:     device,
		queue:      queue,
		textures:   make(map[TextureHandle]*wgpuTexture),
		geometries: make(map[GeometryID]hal.Buffer),
		programs:   make(map[ProgramID]*wgpuProgram),
	}
}

// NewWGPUBackendFromHandle creates a backend sharing the host's GPU device.
// The handle must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue (gogpu.App does); hosts that cannot share their
// HAL types get ErrNoHALAccess and should use NewWGPUBackend with an
// explicit device and queue instead.
func NewWGPUBackendFromHandle(handle DeviceHandle) (*WGPUBackend, error) {
	if handle == nil {
		return nil, ErrNilDeviceHandle
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := handle.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not a hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not a hal.Queue", ErrNoHALAccess)
	}
	return NewWGPUBackend(device, queue), nil
}

// CreateTexture allocates a sampleable render-target texture.
func (b *WGPUBackend) CreateTexture(width, height int, format gputypes.TextureFormat) (TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return NilHandle, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	//nolint:gosec // G115: dimensions validated positive above
	size := hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "lumen_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return NilHandle, fmt.Errorf("create texture: %w", err)
	}

	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "lumen_target_view",
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return NilHandle, fmt.Errorf("create texture view: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	h := TextureHandle(b.nextID)
	b.textures[h] = &wgpuTexture{tex: tex, view: view, width: width, height: height, format: format}
	return h, nil
}

// DestroyTexture releases a texture and its view.
func (b *WGPUBackend) DestroyTexture(h TextureHandle) {
	b.mu.Lock()
	t, ok := b.textures[h]
	delete(b.textures, h)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.device.DestroyTextureView(t.view)
	b.device.DestroyTexture(t.tex)
}

// CreateGeometry uploads the shared full-surface quad vertex buffer.
func (b *WGPUBackend) CreateGeometry() (GeometryID, error) {
	data := make([]byte, len(quadVertices)*4)
	for i, v := range quadVertices {
		putFloat32LE(data[i*4:], v)
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "lumen_quad",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return NilHandle, fmt.Errorf("create quad buffer: %w", err)
	}
	b.queue.WriteBuffer(buf, 0, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := GeometryID(b.nextID)
	b.geometries[id] = buf
	return id, nil
}

// DestroyGeometry releases a quad buffer.
func (b *WGPUBackend) DestroyGeometry(id GeometryID) {
	b.mu.Lock()
	buf, ok := b.geometries[id]
	delete(b.geometries, id)
	b.mu.Unlock()
	if ok {
		b.device.DestroyBuffer(buf)
	}
}

// CompileProgram compiles the vertex and fragment WGSL sources and links
// them into a render pipeline. Any compile or link failure is returned to
// the caller; it is fatal to whatever component needed the program.
func (b *WGPUBackend) CompileProgram(label, vertexWGSL, fragmentWGSL string) (ProgramID, error) {
	p := &wgpuProgram{}
	ok := false
	defer func() {
		if !ok {
			b.destroyProgramResources(p)
		}
	}()

	var err error
	p.vsModule, err = createShaderModule(b.device, label+"_vs", vertexWGSL)
	if err != nil {
		return NilHandle, fmt.Errorf("compile %s vertex shader: %w", label, err)
	}
	p.fsModule, err = createShaderModule(b.device, label+"_fs", fragmentWGSL)
	if err != nil {
		return NilHandle, fmt.Errorf("compile %s fragment shader: %w", label, err)
	}

	// Bind group layout:
	//   Binding 0: sampled input texture (fragment)
	//   Binding 1: sampler (fragment)
	p.bindLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return NilHandle, fmt.Errorf("create %s bind layout: %w", label, err)
	}

	p.pipeLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return NilHandle, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}

	p.sampler, err = b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return NilHandle, fmt.Errorf("create %s sampler: %w", label, err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vsModule,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.fsModule,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return NilHandle, fmt.Errorf("link %s pipeline: %w", label, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := ProgramID(b.nextID)
	b.programs[id] = p
	ok = true
	return id, nil
}

// DestroyProgram releases a compiled program.
func (b *WGPUBackend) DestroyProgram(id ProgramID) {
	b.mu.Lock()
	p, ok := b.programs[id]
	delete(b.programs, id)
	b.mu.Unlock()
	if ok {
		b.destroyProgramResources(p)
	}
}

// destroyProgramResources releases program resources in reverse creation
// order. Safe on partially constructed programs.
func (b *WGPUBackend) destroyProgramResources(p *wgpuProgram) {
	if p.pipeline != nil {
		b.device.DestroyRenderPipeline(p.pipeline)
	}
	if p.sampler != nil {
		b.device.DestroySampler(p.sampler)
	}
	if p.pipeLayout != nil {
		b.device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		b.device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.fsModule != nil {
		b.device.DestroyShaderModule(p.fsModule)
	}
	if p.vsModule != nil {
		b.device.DestroyShaderModule(p.vsModule)
	}
}

// Draw samples op.Texture through op.Program into op.Target, full surface.
func (b *WGPUBackend) Draw(op DrawOp) error {
	b.mu.Lock()
	prog, okP := b.programs[op.Program]
	geom, okG := b.geometries[op.Geometry]
	src, okS := b.textures[op.Texture]
	dst, okD := b.textures[op.Target]
	b.mu.Unlock()
	if !okP || !okG || !okS || !okD {
		return ErrUnknownHandle
	}

	bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "lumen_draw_bind",
		Layout: prog.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: src.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: prog.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw bind group: %w", err)
	}
	defer b.device.DestroyBindGroup(bindGroup)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "lumen_draw_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("lumen_draw"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "lumen_draw_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       dst.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.SetPipeline(prog.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.SetVertexBuffer(0, geom, 0)
	rp.Draw(4, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	return b.submitAndWait(cmdBuf)
}

// ReadTexture copies a texture to a staging buffer and returns its pixels.
// Expensive; intended for thumbnails and tests, not the frame loop.
func (b *WGPUBackend) ReadTexture(h TextureHandle) (*image.RGBA, error) {
	b.mu.Lock()
	t, ok := b.textures[h]
	b.mu.Unlock()
	if !ok {
		return nil, ErrUnknownHandle
	}
	w, h2 := t.width, t.height

	// WebGPU (and DX12) requires BytesPerRow aligned to 256 bytes.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h2)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "lumen_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "lumen_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("lumen_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// Transition for copy, copy, transition back so the next frame's
	// render pass sees the usage it expects.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	//nolint:gosec // G115: texture dimensions fit uint32
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(alignedBytesPerRow), RowsPerImage: uint32(h2)},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: uint32(w), Height: uint32(h2), DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if err := b.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h2))
	for row := 0; row < h2; row++ {
		srcOff := row * alignedBytesPerRow
		dstOff := row * img.Stride
		copy(img.Pix[dstOff:dstOff+bytesPerRow], readback[srcOff:srcOff+bytesPerRow])
	}
	return img, nil
}

// submitAndWait submits one command buffer and blocks until the GPU
// signals completion.
func (b *WGPUBackend) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, gpuFenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// quadVertexLayout describes the quad vertex buffer: position then UV.
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
			},
		},
	}
}

// putFloat32LE writes a float32 in little-endian byte order.
func putFloat32LE(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}

// Ensure WGPUBackend implements the backend interfaces.
var (
	_ Backend       = (*WGPUBackend)(nil)
	_ TextureReader = (*WGPUBackend)(nil)
)
