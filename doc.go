// Package lumen is a live visual-performance ("VJ") engine core.
//
// # Overview
//
// lumen keeps a mutable, user-edited graph of video-processing nodes
// render-safe while multiple independent render contexts pull frames from
// it concurrently: one per attached physical display, plus a live editor
// preview. The engine is split into small packages:
//
//   - graph: the node graph (Model), its snapshot protocol, and the
//     node-type registry
//   - render: render chains, opaque GPU handles, and the rendering backend
//   - output: binding a chain's output to a named physical display
//   - preview: per-frame editor preview rendering and thumbnails
//   - view: selection and connected-component grouping for the editor
//   - config: HCL engine configuration
//
// # Quick start
//
//	model := graph.NewModel()
//	chain, _ := render.NewChain(backend, 1920, 1080)
//	model.AddChain(chain)
//	model.AddNode(myNode)
//	model.Flush()
//
//	// On a render goroutine:
//	snap := model.CopyForRendering(chain)
//	textures := snap.Render()
//	// ... present ...
//	graph.ReleaseOutputs(chain, textures)
//
// # Threading
//
// Graph mutation belongs to a single owning goroutine. Rendering happens on
// independent render goroutines that only ever observe immutable snapshots.
// The chain registry is the one exception: AddChain and RemoveChain are safe
// from any goroutine, so display hotplug can register chains as screens come
// and go. See the graph package documentation for the full discipline.
package lumen
