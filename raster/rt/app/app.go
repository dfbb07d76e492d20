package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/rasterizer"
	"github.com/gekko3d/rasterizer/raster/rt/core"
	"github.com/gekko3d/rasterizer/raster/rt/gpu"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
	"github.com/gekko3d/rasterizer/raster/rt/obj"
	"github.com/gekko3d/rasterizer/raster/rt/res"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoScene = errors.New("no scene loaded")

// App drives one window through the render loop lifecycle. It must be used
// from the main OS thread.
type App struct {
	Config rasterizer.Config
	Log    rasterizer.Logger

	Window        *glfw.Window
	Instance      *wgpu.Instance
	Adapter       *wgpu.Adapter
	Device        *wgpu.Device
	Queue         *wgpu.Queue
	Surface       *wgpu.Surface
	SurfaceConfig *wgpu.SurfaceConfiguration

	Camera *core.Camera
	Scene  *core.Scene
	Light  mgl32.Vec3

	Buffers        *gpu.BufferManager
	Program        *gpu.Program
	Geometry       *gpu.VertexBuffer
	Materials      *gpu.MaterialTable
	Uniforms       *gpu.UniformBuffer
	SceneBindGroup *wgpu.BindGroup
	Targets        *gpu.FrameTargetManager
	Present        *gpu.PresentPass

	FrameCount uint64
	Profiler   *Profiler

	tracker *res.Tracker
	state   StateMachine

	resizePending bool
	pendingWidth  int
	pendingHeight int
}

func NewApp(cfg rasterizer.Config, logger rasterizer.Logger) *App {
	a := &App{
		Config:  cfg,
		Log:     rasterizer.OrNop(logger),
		Light:   mgl32.Vec3(cfg.LightPosition),
		tracker: res.NewTracker("app"),
		// About once per second at 60Hz vsync.
		Profiler: NewProfiler(60),
	}
	a.state.OnTransition = func(from, to State) {
		a.Log.Debugf("state %s -> %s", from, to)
	}
	a.tracker.OnRelease = func(label string) {
		a.Log.Debugf("release %s", label)
	}
	return a
}

func (a *App) State() State { return a.state.State() }

// Start runs every initialization step up to BuffersReady.
func (a *App) Start() error {
	if err := a.InitDevice(); err != nil {
		return err
	}
	if err := a.LoadScene(); err != nil {
		return err
	}
	if err := a.InitBuffers(); err != nil {
		return err
	}
	return a.InitFrameBuffer()
}

// InitDevice opens the window, acquires the GPU and compiles the scene
// program.
func (a *App) InitDevice() error {
	if !a.state.Is(StateUninitialized) {
		return fmt.Errorf("%w: InitDevice in %s", ErrInvalidTransition, a.State())
	}
	cfg := a.Config

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	a.tracker.Track("glfw", res.ReleaseFunc(glfw.Terminate))

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	a.Window = window
	a.tracker.Track("window", res.ReleaseFunc(window.Destroy))

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		a.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	// WebGPU Init
	a.Instance = wgpu.CreateInstance(nil)
	a.tracker.Track("instance", a.Instance)

	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	a.tracker.Track("surface", a.Surface)

	a.Adapter, err = a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.tracker.Track("adapter", a.Adapter)

	a.Device, err = a.Adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.tracker.Track("device", a.Device)
	a.Queue = a.Device.GetQueue()

	width, height := window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(a.Adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return errors.New("surface reports no formats")
	}
	a.SurfaceConfig = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	if width > 0 && height > 0 {
		a.Surface.Configure(a.Adapter, a.Device, a.SurfaceConfig)
	}
	a.Log.Debugf("surface %dx%d, format %v, vsync", width, height, a.SurfaceConfig.Format)

	a.Camera = core.NewCamera(max(width, 1), max(height, 1), mgl32.DegToRad(cfg.FovY),
		mgl32.Vec3(cfg.Eye), mgl32.Vec3(cfg.Target))
	a.Camera.SetClipRange(cfg.Near, cfg.Far)

	a.Buffers = gpu.NewBufferManager(a.Device, a.tracker, a.Log.Named("gpu"))

	// Only attachment formats and the sample count matter to the pipeline.
	plan, err := layout.PlanFrameTarget(cfg.Width, cfg.Height, cfg.Samples)
	if err != nil {
		return err
	}
	src, err := a.programSource()
	if err != nil {
		return err
	}
	a.Program, err = a.Buffers.CompileProgram(src, plan)
	if err != nil {
		return err
	}

	return a.state.Transition(StateDeviceReady)
}

func (a *App) programSource() (gpu.ProgramSource, error) {
	src := gpu.DefaultProgramSource()
	read := func(path string, dst *string) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %w", gpu.ErrShaderProgram, err)
		}
		*dst = string(data)
		a.Log.Infof("shader override %s", path)
		return nil
	}
	if err := read(a.Config.VertexShaderPath, &src.Vertex); err != nil {
		return src, err
	}
	if err := read(a.Config.FragmentShaderPath, &src.Fragment); err != nil {
		return src, err
	}
	return src, nil
}

// LoadScene reads the configured OBJ scene.
func (a *App) LoadScene() error {
	scene, err := obj.Load(a.Config.ScenePath, obj.Options{
		Logger:   a.Log.Named("obj"),
		Progress: a.Config.ShowProgress,
	})
	if err != nil {
		return err
	}
	a.Scene = scene
	a.tracker.Track("scene", res.ReleaseFunc(scene.Release))
	a.Log.Infof("scene %s: %d surfaces, %d triangles, %d materials",
		a.Config.ScenePath, len(scene.Surfaces), scene.TriangleCount(), len(scene.Materials))
	return nil
}

// InitBuffers uploads geometry, the material table and the uniform block
// and binds them for the scene program.
func (a *App) InitBuffers() error {
	if !a.state.Is(StateDeviceReady) {
		return fmt.Errorf("%w: InitBuffers in %s", ErrInvalidTransition, a.State())
	}
	if a.Scene == nil {
		return ErrNoScene
	}

	vertices, err := layout.PackGeometry(a.Scene.Surfaces, len(a.Scene.Materials))
	if err != nil {
		return err
	}
	a.Geometry, err = a.Buffers.UploadGeometry(vertices)
	if err != nil {
		return err
	}

	table, err := layout.BuildMaterialTable(a.Scene.Materials, a.Config.MaxTextureSize)
	if err != nil {
		return err
	}
	a.Materials, err = a.Buffers.UploadMaterialTable(table)
	if err != nil {
		return err
	}

	a.Uniforms, err = a.Buffers.NewUniformBuffer(layout.NewSceneUniforms())
	if err != nil {
		return err
	}

	a.SceneBindGroup, err = a.Buffers.CreateSceneBindGroup(a.Program, a.Materials, a.Uniforms)
	if err != nil {
		return err
	}
	a.Log.Debugf("geometry: %d vertices (%d bytes)", a.Geometry.Count, a.Geometry.Buffer.GetSize())
	return nil
}

// InitFrameBuffer allocates the offscreen target and the present pass.
func (a *App) InitFrameBuffer() error {
	if !a.state.Is(StateDeviceReady) {
		return fmt.Errorf("%w: InitFrameBuffer in %s", ErrInvalidTransition, a.State())
	}
	if a.Geometry == nil || a.SceneBindGroup == nil {
		return fmt.Errorf("%w: buffers not initialized", ErrInvalidTransition)
	}

	width, height := int(a.SurfaceConfig.Width), int(a.SurfaceConfig.Height)
	if width == 0 || height == 0 {
		width, height = a.Config.Width, a.Config.Height
	}

	a.Targets = gpu.NewFrameTargetManager(a.Device, a.tracker, a.Log.Named("target"))
	if err := a.Targets.Allocate(width, height, a.Config.Samples); err != nil {
		return err
	}

	var err error
	a.Present, err = a.Buffers.NewPresentPass(a.SurfaceConfig.Format, a.Targets.Plan.DownsampleFilter)
	if err != nil {
		return err
	}
	if err := a.Present.Bind(a.Targets.DownsampleColor().View); err != nil {
		return err
	}

	return a.state.Transition(StateBuffersReady)
}

// Resize records a framebuffer size change; it is applied before the next
// frame.
func (a *App) Resize(width, height int) {
	a.resizePending = true
	a.pendingWidth = width
	a.pendingHeight = height
}

func (a *App) applyResize() error {
	a.resizePending = false
	w, h := a.pendingWidth, a.pendingHeight
	a.SurfaceConfig.Width = uint32(max(w, 0))
	a.SurfaceConfig.Height = uint32(max(h, 0))
	if w <= 0 || h <= 0 {
		a.Log.Debugf("minimized, skipping frames")
		return nil
	}
	a.Surface.Configure(a.Adapter, a.Device, a.SurfaceConfig)
	if a.Targets.Allocated() && a.Targets.Plan.Width == uint32(w) && a.Targets.Plan.Height == uint32(h) {
		return nil
	}

	a.Camera.SetViewport(w, h)
	if err := a.Targets.Resize(w, h); err != nil {
		return err
	}
	if err := a.Present.Bind(a.Targets.DownsampleColor().View); err != nil {
		return err
	}
	a.Log.Debugf("resized to %dx%d", w, h)
	return nil
}

// Run renders until the window is asked to close.
func (a *App) Run() error {
	if err := a.state.Transition(StateRunning); err != nil {
		return err
	}
	for !a.Window.ShouldClose() {
		if err := a.RenderFrame(); err != nil {
			return err
		}
		glfw.PollEvents()
	}
	a.Log.Infof("closing after %d frames", a.FrameCount)
	return nil
}

// RenderFrame draws the scene into the multisampled target, resolves it and
// presents the result. A frame whose surface image cannot be acquired is
// skipped.
func (a *App) RenderFrame() error {
	if a.resizePending {
		if err := a.applyResize(); err != nil {
			return err
		}
	}
	if a.SurfaceConfig.Width == 0 || a.SurfaceConfig.Height == 0 {
		return nil
	}

	prof := a.Profiler
	prof.BeginScope("uniforms")
	tr := core.ComputeTransforms(a.Camera, mgl32.Ident4(), a.Light)
	u := a.Uniforms.Block
	for _, err := range []error{
		u.SetMatrix4x4(layout.UniformMVP, tr.MVP),
		u.SetMatrix4x4(layout.UniformMV, tr.MV),
		u.SetMatrix4x4(layout.UniformMVN, tr.MVN),
		u.SetVector3(layout.UniformLight, tr.EyeLight),
	} {
		if err != nil {
			return err
		}
	}
	a.Uniforms.Flush(a.Queue)
	prof.EndScope("uniforms")

	prof.BeginScope("acquire")
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Warnf("GetCurrentTexture failed, skipping frame: %v", err)
		prof.SkipFrame()
		return nil
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Log.Warnf("CreateView failed, skipping frame: %v", err)
		prof.SkipFrame()
		return nil
	}
	defer view.Release()
	prof.EndScope("acquire")

	prof.BeginScope("encode")
	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(a.Targets.ScenePass())
	pass.SetPipeline(a.Program.Pipeline)
	pass.SetBindGroup(0, a.SceneBindGroup, nil)
	a.Geometry.Bind(pass)
	pass.Draw(a.Geometry.Count, 1, 0, 0)
	err = pass.End()
	pass.Release()
	if err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}

	if err := a.Present.Encode(encoder, view); err != nil {
		return fmt.Errorf("present pass: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	defer cmd.Release()
	prof.EndScope("encode")

	prof.BeginScope("submit")
	a.Queue.Submit(cmd)
	a.Surface.Present()
	prof.EndScope("submit")

	a.FrameCount++
	prof.SetCount("vertices", int(a.Geometry.Count))
	if report, ok := prof.EndFrame(); ok && a.Log.DebugEnabled() {
		a.Log.Debugf("%s", report)
	}
	return nil
}

// Release frees every GPU object newest first, then the window and glfw.
// Safe to call more than once and from any state.
func (a *App) Release() {
	if err := a.state.Transition(StateStopped); err != nil {
		a.Log.Errorf("stop: %v", err)
	}
	a.tracker.ReleaseAll()
	a.Geometry = nil
	a.Materials = nil
	a.Uniforms = nil
	a.SceneBindGroup = nil
	a.Program = nil
	a.Present = nil
	a.Scene = nil
}
