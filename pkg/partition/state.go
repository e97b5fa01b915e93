package partition

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/azybler/map_partitioner/pkg/graph"
)

// Config controls recursion.
type Config struct {
	MaxDepth    int     // levels, at most MaxSupportedDepth
	MinCellSize int     // views smaller than this become leaves
	Epsilon     float64 // balance tolerance in [0, 0.5)
	Parallelism int     // concurrent subtrees; <= 0 means GOMAXPROCS

	Logger  *log.Logger
	Metrics *Metrics
}

// DefaultConfig returns the settings used by the CLI when nothing is given.
func DefaultConfig() Config {
	return Config{
		MaxDepth:    20,
		MinCellSize: 128,
		Epsilon:     0.25,
	}
}

// Validate checks the numeric settings.
func (c Config) Validate() error {
	if c.MaxDepth < 0 || c.MaxDepth > MaxSupportedDepth {
		return fmt.Errorf("max depth %d outside [0, %d]", c.MaxDepth, MaxSupportedDepth)
	}
	if c.MinCellSize < 1 {
		return fmt.Errorf("min cell size %d must be positive", c.MinCellSize)
	}
	if c.Epsilon < 0 || c.Epsilon >= 0.5 {
		return fmt.Errorf("epsilon %g outside [0, 0.5)", c.Epsilon)
	}
	return nil
}

// Stats summarizes a run.
type Stats struct {
	Splits         int
	DegradedSplits int
	Leaves         int
	CutEdges       int
	MaxImbalance   float64
	MaxLeafDepth   int
	Duration       time.Duration
}

// Result is a finished partition. It is only produced after every split has
// committed, so it is safe to share read-only.
type Result struct {
	Graph    *graph.BisectionGraph
	MaxDepth int
	CellIDs  []CellID       // by original node id
	Depth    []uint8        // leaf depth by original node id
	Order    []graph.NodeID // physical position -> original node id
	Leaves   []graph.View   // sorted by Begin, tiling [0, N)
	Stats    Stats
}

// CellOf returns the cell id of the node at physical position id.
func (r *Result) CellOf(id graph.NodeID) CellID {
	return r.CellIDs[r.Order[id]]
}

// RecursiveBisectionState owns the node array of a graph for the duration of
// a partition run.
type RecursiveBisectionState struct {
	graph    *graph.BisectionGraph
	bisector Bisector
	cfg      Config
	logger   *log.Logger

	cells []CellID
	depth []uint8

	mu     sync.Mutex
	leaves []graph.View
	stats  Stats
}

// NewRecursiveBisectionState prepares a run over g. g must not be used by
// anyone else until Run returns.
func NewRecursiveBisectionState(g *graph.BisectionGraph, bisector Bisector, cfg Config) (*RecursiveBisectionState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid partition config: %w", err)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &RecursiveBisectionState{
		graph:    g,
		bisector: bisector,
		cfg:      cfg,
		logger:   logger,
		cells:    make([]CellID, g.NumberOfNodes()),
		depth:    make([]uint8, g.NumberOfNodes()),
	}, nil
}

// Split processes one view at depth. A view that is too small, at the depth
// limit or not splittable becomes a leaf and split is false. Otherwise the
// nodes are reordered so the left half comes first, the depth bit is set for
// every right node and both halves are returned.
func (s *RecursiveBisectionState) Split(view graph.View, depth int) (left, right graph.View, split bool, err error) {
	n := view.NumberOfNodes()
	if n < s.cfg.MinCellSize || depth >= s.cfg.MaxDepth {
		s.markLeaf(view, depth)
		return view, graph.View{}, false, nil
	}

	b, err := s.bisector.Bisect(view, s.cfg.Epsilon)
	if errors.Is(err, ErrNotSplittable) {
		s.markLeaf(view, depth)
		return view, graph.View{}, false, nil
	}
	if err != nil {
		return view, graph.View{}, false, fmt.Errorf("bisect view [%d, %d): %w", view.Begin(), view.End(), err)
	}
	if len(b.Right) != n {
		return view, graph.View{}, false, fmt.Errorf("bisect view [%d, %d): assignment covers %d nodes", view.Begin(), view.End(), len(b.Right))
	}

	left, right = view.ApplyBisection(b.Right)

	bit := levelBit(depth, s.cfg.MaxDepth)
	for _, node := range right.Nodes() {
		s.cells[node.OriginalID] |= bit
	}

	if b.Degraded {
		s.logger.Debug("degraded split", "begin", view.Begin(), "end", view.End(),
			"left", left.NumberOfNodes(), "right", right.NumberOfNodes(), "imbalance", b.Imbalance)
	}
	s.cfg.Metrics.observeSplit(b)

	s.mu.Lock()
	s.stats.Splits++
	s.stats.CutEdges += b.CutEdges
	s.stats.MaxImbalance = max(s.stats.MaxImbalance, b.Imbalance)
	if b.Degraded {
		s.stats.DegradedSplits++
	}
	s.mu.Unlock()

	return left, right, true, nil
}

func (s *RecursiveBisectionState) markLeaf(view graph.View, depth int) {
	for _, node := range view.Nodes() {
		s.depth[node.OriginalID] = uint8(depth)
	}
	s.cfg.Metrics.observeLeaf(view.NumberOfNodes())

	s.mu.Lock()
	s.leaves = append(s.leaves, view)
	s.stats.Leaves++
	s.stats.MaxLeafDepth = max(s.stats.MaxLeafDepth, depth)
	s.mu.Unlock()
}

// Run bisects the whole graph. Halves are handed to idle workers when there
// are any and processed inline otherwise. When Run returns, every edge target
// points at its node's final position.
func (s *RecursiveBisectionState) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	s.logger.Info("partitioning", "nodes", s.graph.NumberOfNodes(), "edges", s.graph.NumberOfEdges(),
		"max_depth", s.cfg.MaxDepth, "min_cell_size", s.cfg.MinCellSize, "epsilon", s.cfg.Epsilon,
		"parallelism", s.cfg.Parallelism)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)

	var recurse func(view graph.View, depth int) error
	recurse = func(view graph.View, depth int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		left, right, split, err := s.Split(view, depth)
		if err != nil || !split {
			return err
		}
		if !g.TryGo(func() error { return recurse(right, depth+1) }) {
			if err := recurse(right, depth+1); err != nil {
				return err
			}
		}
		return recurse(left, depth+1)
	}

	g.Go(func() error { return recurse(s.graph.View(), 0) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("recursive bisection: %w", err)
	}

	s.graph.ResolveTargets()

	slices.SortFunc(s.leaves, func(a, b graph.View) int {
		return cmp.Compare(a.Begin(), b.Begin())
	})
	order := make([]graph.NodeID, s.graph.NumberOfNodes())
	for id, node := range s.graph.Nodes() {
		order[id] = node.OriginalID
	}
	s.stats.Duration = time.Since(start)

	s.logger.Info("partitioned", "splits", s.stats.Splits, "leaves", s.stats.Leaves,
		"degraded", s.stats.DegradedSplits, "cut_edges", s.stats.CutEdges,
		"max_leaf_depth", s.stats.MaxLeafDepth, "elapsed", s.stats.Duration.Round(time.Millisecond))

	return &Result{
		Graph:    s.graph,
		MaxDepth: s.cfg.MaxDepth,
		CellIDs:  s.cells,
		Depth:    s.depth,
		Order:    order,
		Leaves:   s.leaves,
		Stats:    s.stats,
	}, nil
}
