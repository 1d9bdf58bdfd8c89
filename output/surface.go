// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/lumen"
	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/render"
)

// State is a Surface's display-attachment state.
type State int

const (
	// StateUnbound means no screen name has been set.
	StateUnbound State = iota

	// StateSearching means the named screen is not currently attached.
	StateSearching

	// StateBound means the surface is attached to its screen.
	StateBound
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateSearching:
		return "searching"
	case StateBound:
		return "bound"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const defaultPollInterval = time.Second

// Blit shaders: a fullscreen textured quad, drawn premultiplied.
const blitVertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos, 0.0, 1.0);
    out.uv = uv;
    return out;
}
`

const blitFragmentWGSL = `
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var smp: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(src, smp, uv);
}
`

// Option configures a Surface.
type Option func(*Surface)

// WithPollInterval sets how often the surface rescans for its screen while
// Searching. The default is one second.
func WithPollInterval(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.pollEvery = d
		}
	}
}

// WithInvoker routes the surface's chain registration on bind and unbind
// through the host's owning goroutine. fn must execute its argument exactly
// once. The default runs the registration inline on the poll goroutine,
// which the model's chain registry permits; set an invoker when the host
// wants bind and unbind serialized with its own frame loop.
func WithInvoker(fn func(func())) Option {
	return func(s *Surface) {
		if fn != nil {
			s.invoke = fn
		}
	}
}

// Surface renders one graph node to one display.
//
// Frame is called by the host's render loop for this output; all other
// methods may be called from the owning goroutine. The internal poll
// goroutine started by Start touches the model only through its
// goroutine-safe chain registry, via the configured invoker.
type Surface struct {
	model   *graph.Model
	backend render.Backend
	screens ScreenService

	blit      render.ProgramID
	pollEvery time.Duration
	invoke    func(func())

	mu         sync.Mutex
	state      State
	screenName string
	screen     Screen
	chain      *render.Chain
	target     render.TextureHandle
	visible    graph.NodeID
	lastFrame  render.TextureHandle

	started bool
	closed  bool
	kick    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// New creates a surface in StateUnbound. Compiling the blit program is the
// one hard requirement: if the backend cannot run it the output can never
// present, so failure here is fatal and no surface is returned.
func New(model *graph.Model, backend render.Backend, screens ScreenService, opts ...Option) (*Surface, error) {
	blit, err := backend.CompileProgram("output blit", blitVertexWGSL, blitFragmentWGSL)
	if err != nil {
		return nil, fmt.Errorf("output: compile blit program: %w", err)
	}

	s := &Surface{
		model:     model,
		backend:   backend,
		screens:   screens,
		blit:      blit,
		pollEvery: defaultPollInterval,
		invoke:    func(fn func()) { fn() },
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the screen-tracking goroutine. It rescans on the poll
// interval, on ScreenService change signals, and on SetScreenName.
func (s *Surface) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.run()
}

func (s *Surface) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	s.rescan()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.rescan()
		case <-s.screens.Changed():
			s.rescan()
		case <-s.kick:
			s.rescan()
		}
	}
}

// rescan reconciles the attachment state against the current display list.
func (s *Surface) rescan() {
	s.mu.Lock()
	name := s.screenName
	state := s.state
	bound := s.screen
	s.mu.Unlock()

	if state == StateUnbound {
		return
	}

	var found *Screen
	for _, sc := range s.screens.Screens() {
		if sc.Name == name {
			sc := sc
			found = &sc
			break
		}
	}

	switch {
	case state == StateSearching && found != nil:
		s.bind(*found)
	case state == StateBound && found == nil:
		lumen.Logger().Info("screen detached", "screen", name)
		s.unbind(StateSearching)
	case state == StateBound && found.Geometry != bound.Geometry:
		// Same screen, new mode. Rebind to pick up the size.
		s.unbind(StateSearching)
		s.bind(*found)
	}
}

func (s *Surface) bind(sc Screen) {
	w, h := sc.Geometry.Dx(), sc.Geometry.Dy()
	chain, err := render.NewChain(s.backend, w, h)
	if err != nil {
		lumen.Logger().Error("bind screen: create chain", "screen", sc.Name, "error", err)
		return
	}
	target, err := chain.NewTarget()
	if err != nil {
		lumen.Logger().Error("bind screen: create target", "screen", sc.Name, "error", err)
		chain.Release()
		return
	}

	s.invoke(func() { s.model.AddChain(chain) })

	s.mu.Lock()
	held := s.target
	s.screen = sc
	s.chain = chain
	s.target = target
	s.lastFrame = render.NilHandle
	s.state = StateBound
	s.mu.Unlock()

	if held.Valid() {
		s.backend.DestroyTexture(held)
	}

	lumen.Logger().Info("bound to screen",
		"screen", sc.Name, "width", w, "height", h)
}

// unbind tears down the chain and enters next. The chain leaves the model
// before it is released so no render pass can pick it up mid-teardown.
//
// The target texture outlives the chain: while Searching it still holds
// the last presented frame. It is only destroyed on rebind or on a full
// detach to Unbound.
func (s *Surface) unbind(next State) {
	s.mu.Lock()
	chain := s.chain
	s.chain = nil
	s.screen = Screen{}
	s.state = next
	var target render.TextureHandle
	if next == StateUnbound {
		target = s.target
		s.target = render.NilHandle
		s.lastFrame = render.NilHandle
	}
	s.mu.Unlock()

	if chain != nil {
		s.invoke(func() { s.model.RemoveChain(chain) })
		chain.Release()
	}
	if target.Valid() {
		s.backend.DestroyTexture(target)
	}
}

// SetScreenName retargets the surface at a display. An empty name detaches
// and returns to StateUnbound. The rescan happens asynchronously; Found
// reports when it lands.
func (s *Surface) SetScreenName(name string) {
	s.mu.Lock()
	if name == s.screenName {
		s.mu.Unlock()
		return
	}
	s.screenName = name
	wasBound := s.state == StateBound
	s.mu.Unlock()

	if wasBound {
		s.unbind(StateSearching)
	}

	s.mu.Lock()
	if name == "" {
		s.state = StateUnbound
	} else {
		s.state = StateSearching
	}
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// ScreenName returns the display the surface is tracking.
func (s *Surface) ScreenName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screenName
}

// State returns the current attachment state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Found reports whether the surface is bound to its screen.
func (s *Surface) Found() bool { return s.State() == StateBound }

// SetVisibleNode selects which node's output the surface presents.
func (s *Surface) SetVisibleNode(id graph.NodeID) {
	s.mu.Lock()
	s.visible = id
	s.mu.Unlock()
}

// VisibleNode returns the presented node's identity.
func (s *Surface) VisibleNode() graph.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Frame renders the visible node at the screen's size and returns the
// texture to present. While not Bound, or when the node rendered nothing
// this frame, the previous frame's texture is returned so the display
// holds its picture instead of flashing black.
func (s *Surface) Frame() render.TextureHandle {
	s.mu.Lock()
	state := s.state
	chain := s.chain
	target := s.target
	visible := s.visible
	last := s.lastFrame
	screenName := s.screen.Name
	s.mu.Unlock()

	if state != StateBound || chain == nil {
		return last
	}

	snapshot := s.model.CopyForRendering(chain)
	outputs := snapshot.Render()
	// The pass textures are consumed by the blit below; the presented
	// content lives in the surface-owned target, so every output can go
	// once Frame returns.
	defer graph.ReleaseOutputs(chain, outputs)

	tex, ok := outputs[visible]
	if !ok {
		return last
	}

	err := s.backend.Draw(render.DrawOp{
		Program:  s.blit,
		Geometry: chain.Geometry(),
		Texture:  tex,
		Target:   target,
		Width:    chain.Width(),
		Height:   chain.Height(),
	})
	if err != nil {
		lumen.Logger().Error("present", "screen", screenName, "error", err)
		return last
	}

	s.mu.Lock()
	s.lastFrame = target
	s.mu.Unlock()
	return target
}

// Close stops screen tracking and releases the surface's GPU resources.
// Closing an already-closed surface is a no-op.
func (s *Surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	close(s.stop)
	if started {
		<-s.done
	}
	s.unbind(StateUnbound)
	s.backend.DestroyProgram(s.blit)
}
