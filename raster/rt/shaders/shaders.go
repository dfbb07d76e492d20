package shaders

import (
	_ "embed"
)

//go:embed basic_shader.vert.wgsl
var SceneVertexWGSL string

//go:embed basic_shader.frag.wgsl
var SceneFragmentWGSL string

//go:embed present.wgsl
var PresentWGSL string

// Entry points shared by all modules.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)
