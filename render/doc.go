// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render provides the render-chain abstraction and the GPU backend
// interface of the lumen engine.
//
// A Chain is one independent frame consumer: a fixed target size plus the
// reusable GPU geometry every render pass bound to that chain draws with.
// Each output display and the editor preview owns exactly one Chain.
//
// The Backend interface hides the GPU behind opaque uint64 handles.
// WGPUBackend implements it on top of gogpu/wgpu's HAL; tests use a stub.
package render
