// Command lumendemo builds a small video-node graph, renders a few frames
// against an in-memory backend, and prints what each output presented.
// It exercises the engine end to end without a GPU or a display.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/lumen"
	"github.com/gogpu/lumen/config"
	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/internal/stub"
	"github.com/gogpu/lumen/output"
	"github.com/gogpu/lumen/preview"
	"github.com/gogpu/lumen/view"
)

func main() {
	var (
		frames   = flag.Int("frames", 3, "frames to render")
		cfgPath  = flag.String("config", "", "HCL config file (optional)")
		dumpDot  = flag.Bool("dot", false, "print the graph in DOT form")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	lumen.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := &config.Engine{
		PollInterval:  config.DefaultPollInterval,
		PreviewWidth:  preview.DefaultSize,
		PreviewHeight: preview.DefaultSize,
		Outputs:       []config.Output{{Name: "main", Screen: "HDMI-1"}},
	}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	backend := stub.NewBackend()
	model := graph.NewModel()

	// Source -> effect -> effect, the smallest interesting graph.
	source := stub.NewColorNode(0.8, 0.2, 0.4, 1)
	blur := stub.NewEffectNode("blur")
	glow := stub.NewEffectNode("glow")
	model.AddNode(source)
	model.AddNode(blur)
	model.AddNode(glow)
	must(model.Connect(source, blur, 0))
	must(model.Connect(blur, glow, 0))
	model.Flush()

	if *dumpDot {
		if err := graph.WriteDOT(os.Stdout, model); err != nil {
			log.Fatalf("Failed to write DOT: %v", err)
		}
		return
	}

	adapter, err := preview.NewWithSize(model, backend, cfg.PreviewWidth, cfg.PreviewHeight)
	if err != nil {
		log.Fatalf("Failed to create preview adapter: %v", err)
	}
	defer adapter.Close()

	screens := output.NewStaticService(
		output.Screen{Name: "HDMI-1", Geometry: image.Rect(0, 0, 1920, 1080)},
	)

	var surfaces []*output.Surface
	for _, out := range cfg.Outputs {
		surf, err := output.New(model, backend, screens,
			output.WithPollInterval(cfg.PollInterval))
		if err != nil {
			log.Fatalf("Failed to create output %q: %v", out.Name, err)
		}
		surf.SetVisibleNode(glow.ID())
		surf.SetScreenName(out.Screen)
		surf.Start()
		defer surf.Close()
		surfaces = append(surfaces, surf)
	}

	// Give the surfaces a moment to find their screens.
	deadline := time.Now().Add(2 * time.Second)
	for _, surf := range surfaces {
		for !surf.Found() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	}

	v := view.New(model)
	v.EnsureSelected(v.TileFor(blur))

	for frame := 0; frame < *frames; frame++ {
		adapter.OnFrameSync()
		for i, surf := range surfaces {
			tex := surf.Frame()
			fmt.Printf("frame %d output %d (%s): state=%s texture=%d\n",
				frame, i, cfg.Outputs[i].Name, surf.State(), tex)
		}
		fmt.Printf("frame %d preview of %q: texture=%d\n",
			frame, glow.Name, adapter.PreviewTexture(glow.ID()))
	}

	for _, comp := range v.SelectedConnectedComponents() {
		fmt.Printf("selected component: %d vertices, %d open inputs\n",
			len(comp.Vertices), len(comp.InputPorts))
	}
}

func must(err error) {
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
}
