package main

import (
	"fmt"
	"image"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"git.sr.ht/~bigdata/bdview/block"
	"git.sr.ht/~bigdata/bdview/cache"
	"git.sr.ht/~bigdata/bdview/canvas"
	"git.sr.ht/~bigdata/bdview/grid"
	"git.sr.ht/~bigdata/bdview/project"
	"git.sr.ht/~bigdata/bdview/render"
)

// noopPainter satisfies render.PainterThread for harness runs that drive
// Paint synchronously and have no real event loop to wake.
type noopPainter struct{}

func (noopPainter) RequestRepaint() {}

func identityTransform() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// newBenchCache builds a BlockCache over a synthetic loader with the
// configured per-block latency, mirroring cache_test.go's sleepyLoader
// fixtures but driven by ScenarioConfig instead of hardcoded constants.
func newBenchCache(cfg ScenarioConfig, delay time.Duration, logger logrus.FieldLogger) (*cache.BlockCache, error) {
	loader := &benchLoader{delay: delay, bytesPerElement: 2}
	return cache.New(cache.Config{
		Loader:            loader,
		MaxLevel:          func(setup int) int { return len(cfg.Scales) },
		NumPriorityLevels: len(cfg.Scales) + 1,
		NumFetchers:       cfg.NumFetchers,
		LRUCapacity:       cfg.LRUCapacity,
		PrefetchCells:     true,
		Logger:            logger,
	})
}

func benchLayout(cfg ScenarioConfig) grid.Layout {
	volumeDims := [3]int64{
		int64(cfg.GridDims[0] * cfg.BlockDims[0]),
		int64(cfg.GridDims[1] * cfg.BlockDims[1]),
		int64(cfg.GridDims[2] * cfg.BlockDims[2]),
	}
	return grid.NewLayout(cfg.BlockDims, [3]int64{}, volumeDims)
}

func benchShape(cfg ScenarioConfig) block.Shape {
	return block.Shape{MaxLevels: len(cfg.Scales), NumSetups: 1, NumTimepoints: 2}
}

// runAdaptiveCoarsen is Scenario 1: under sustained per-source I/O
// latency well above TargetRenderNanos, the renderer's adaptive ceiling
// climbs to K-1 within Iterations repaints and stays there.
func runAdaptiveCoarsen(cfg ScenarioConfig, logger logrus.FieldLogger) error {
	c, err := newBenchCache(cfg, time.Duration(cfg.LoaderDelayMillis)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	cv := canvas.New(cfg.CanvasWidth, cfg.CanvasHeight)
	factory := newBenchSourceFactory(c, benchLayout(cfg), benchShape(cfg))
	r, err := render.New(render.Config{
		ScreenScales:        cfg.Scales,
		TargetRenderNanos:   uint64(cfg.TargetRenderNanos),
		DoubleBuffered:      true,
		NumRenderingThreads: cfg.NumFetchers,
		IoBudgetPerFrame:    []int64{int64(time.Second)},
	}, cv, noopPainter{}, c, factory, logger)
	if err != nil {
		return err
	}

	viewer := &fixedViewer{visible: []int{0}, coarsest: 0}
	for i := 0; i < cfg.Iterations; i++ {
		r.NewFrame()
		ok := r.Paint(viewer)
		logger.WithFields(logrus.Fields{"iteration": i, "painted": ok, "maxScale": r.MaxScale()}).Info("adaptive-coarsen repaint")
	}
	fmt.Printf("adaptive-coarsen: final maxScale=%d (of %d scales)\n", r.MaxScale(), len(cfg.Scales))
	return nil
}

// runAdaptiveRefine is Scenario 2: starting from the coarsest ceiling,
// sustained fast paints drive the adaptive ceiling back down to 0.
func runAdaptiveRefine(cfg ScenarioConfig, logger logrus.FieldLogger) error {
	c, err := newBenchCache(cfg, time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	cv := canvas.New(cfg.CanvasWidth, cfg.CanvasHeight)
	factory := newBenchSourceFactory(c, benchLayout(cfg), benchShape(cfg))
	r, err := render.New(render.Config{
		ScreenScales:        cfg.Scales,
		TargetRenderNanos:   uint64(cfg.TargetRenderNanos),
		DoubleBuffered:      true,
		NumRenderingThreads: cfg.NumFetchers,
		IoBudgetPerFrame:    []int64{int64(time.Second)},
	}, cv, noopPainter{}, c, factory, logger)
	if err != nil {
		return err
	}
	r.SetMaxScale(len(cfg.Scales) - 1)

	viewer := &fixedViewer{visible: []int{0}, coarsest: 0}
	for i := 0; i < cfg.Iterations; i++ {
		r.NewFrame()
		ok := r.Paint(viewer)
		logger.WithFields(logrus.Fields{"iteration": i, "painted": ok, "maxScale": r.MaxScale()}).Info("adaptive-refine repaint")
	}
	fmt.Printf("adaptive-refine: final maxScale=%d\n", r.MaxScale())
	return nil
}

// runCancellation is Scenario 3: a paint in flight on a slow source,
// cancelled by a repaint request at a different scale, must not publish.
func runCancellation(cfg ScenarioConfig, logger logrus.FieldLogger) error {
	c, err := newBenchCache(cfg, time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	cv := canvas.New(cfg.CanvasWidth, cfg.CanvasHeight)
	factory := newBenchSourceFactory(c, benchLayout(cfg), benchShape(cfg))
	r, err := render.New(render.Config{
		ScreenScales:        cfg.Scales,
		TargetRenderNanos:   uint64(cfg.TargetRenderNanos),
		DoubleBuffered:      true,
		NumRenderingThreads: 1,
		IoBudgetPerFrame:    []int64{int64(time.Second)},
	}, cv, noopPainter{}, c, factory, logger)
	if err != nil {
		return err
	}
	r.SetMaxScale(len(cfg.Scales) - 1)
	viewer := &fixedViewer{visible: []int{0}, coarsest: 0}

	if !r.Paint(viewer) {
		return fmt.Errorf("cancellation: warm-up paint unexpectedly failed")
	}
	warm := cv.CurrentImage()

	slow := &slowBenchSourceFactory{inner: factory, delay: time.Duration(cfg.LoaderDelayMillis) * time.Millisecond}
	r.SetSources(slow)
	r.RequestRepaintAtScale(0)

	done := make(chan bool, 1)
	go func() { done <- r.Paint(viewer) }()
	time.Sleep(time.Duration(cfg.LoaderDelayMillis/2) * time.Millisecond)
	r.RequestRepaintAtScale(len(cfg.Scales) - 1)

	cancelled := !(<-done)
	unchanged := cv.CurrentImage() == warm
	fmt.Printf("cancellation: in-flight paint cancelled=%v, target unchanged=%v\n", cancelled, unchanged)
	return nil
}

// runHierarchicalFill is Scenario 4: a Hierarchical projector resolves
// pixels at the coarsest resident level first, then refines to the
// finest level once it loads, without ever regressing already-resolved
// pixels.
func runHierarchicalFill(cfg ScenarioConfig, logger logrus.FieldLogger) error {
	c, err := newBenchCache(cfg, time.Duration(cfg.LoaderDelayMillis)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	layout := benchLayout(cfg)
	shape := benchShape(cfg)
	w, h := cfg.CanvasWidth, cfg.CanvasHeight
	target := image.NewNRGBA(image.Rect(0, 0, w, h))

	coarseGrid := grid.New(c, layout, shape, 0, 0, len(cfg.Scales)-1, false)
	fineGrid := grid.New(c, layout, shape, 0, 0, 0, false)

	// warm loads every block of g's level synchronously.
	warm := func(g *grid.Grid) {
		for z := 0; z < layout.GridDims[2]; z++ {
			for y := 0; y < layout.GridDims[1]; y++ {
				for x := 0; x < layout.GridDims[0]; x++ {
					g.Get([3]int{x, y, z}, cache.Blocking, 0)
				}
			}
		}
	}

	// Warm the coarse level synchronously, as a viewer typically has the
	// coarsest level resident by the time any paint is attempted.
	warm(coarseGrid)

	identity := identityTransform()
	sources := []project.Source{
		&gridSource{g: fineGrid, transform: identity},
		&gridSource{g: coarseGrid, transform: identity},
	}
	convert := project.Converter(func(s project.Sample) (colorful.Color, uint8) {
		return colorful.Color{R: 0.6, G: 0.6, B: 0.6}, 255
	})
	hp := project.NewHierarchical(sources, convert, target, w, h, cfg.NumFetchers, nil)

	first := hp.Map(true)
	fmt.Printf("hierarchical-fill: first pass success=%v valid=%v (expected success=true, valid=false: not cancelled but only the coarse level resolved)\n", first, hp.IsValid())

	// Force the fine level resident, then try again.
	warm(fineGrid)
	second := hp.Map(true)
	fmt.Printf("hierarchical-fill: second pass success=%v valid=%v (expected both true: every level resolved)\n", second, hp.IsValid())
	return nil
}

// runBudgetExhaustion is Scenario 5: a BUDGETED load against a loader
// slower than the remaining per-job time budget returns promptly with an
// invalid block, without re-enqueuing the entry within the same frame.
func runBudgetExhaustion(cfg ScenarioConfig, logger logrus.FieldLogger) error {
	c, err := newBenchCache(cfg, time.Duration(cfg.LoaderDelayMillis)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	const job block.JobID = 1
	budget := time.Duration(cfg.LoaderDelayMillis) * time.Millisecond / 4
	c.InitIOBudget(job, []int64{int64(budget)})

	shape := benchShape(cfg)
	key := shape.Key(0, 0, 0, 0)
	start := time.Now()
	b := c.GetOrCreate(key, cfg.BlockDims, [3]int64{}, cache.Budgeted, job)
	elapsed := time.Since(start)

	fmt.Printf("budget-exhaustion: budget=%s elapsed=%s block-valid=%v\n", budget, elapsed, b.Payload.IsValid())
	return nil
}

// runFrameRollover is Scenario 6: an entry enqueued in frame g is
// re-enqueued exactly once after PrepareNextFrame advances the generation
// to g+1, and not again within that same generation.
func runFrameRollover(cfg ScenarioConfig, logger logrus.FieldLogger) error {
	c, err := newBenchCache(cfg, time.Duration(cfg.LoaderDelayMillis)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	shape := benchShape(cfg)
	key := shape.Key(0, 0, 0, 0)
	c.GetOrCreate(key, cfg.BlockDims, [3]int64{}, cache.Volatile, 0)
	genBefore := c.CurrentGeneration()

	c.GetIfPresent(key, cache.Volatile, 0)
	c.PrepareNextFrame()
	genAfter := c.CurrentGeneration()
	c.GetIfPresent(key, cache.Volatile, 0)
	entry, _ := c.Lookup(key)

	fmt.Printf("frame-rollover: generation %d -> %d, re-enqueued=%v\n", genBefore, genAfter, entry.EnqueueGeneration() == genAfter)
	return nil
}
