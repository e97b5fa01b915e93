package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/azybler/map_partitioner/pkg/config"
	"github.com/azybler/map_partitioner/pkg/extractor"
	"github.com/azybler/map_partitioner/pkg/graph"
	osmparser "github.com/azybler/map_partitioner/pkg/osm"
	"github.com/azybler/map_partitioner/pkg/partition"
)

type runOptions struct {
	input       string
	output      string
	mapping     string
	configPath  string
	metricsFile string
	geojsonPath string
	geojsonTile string

	bbox      string
	singapore bool
	kl        bool

	maxDepth    int
	minCellSize int
	epsilon     float64
	parallelism int
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parse an .osm.pbf file, write the mapping and partition files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("max-depth") {
				cfg.Partition.MaxDepth = opts.maxDepth
			}
			if flags.Changed("min-cell-size") {
				cfg.Partition.MinCellSize = opts.minCellSize
			}
			if flags.Changed("epsilon") {
				cfg.Partition.Epsilon = opts.epsilon
			}
			if flags.Changed("parallelism") {
				cfg.Partition.Parallelism = opts.parallelism
			}
			bbox, err := selectBBox(opts.kl, opts.singapore, opts.bbox)
			if err != nil {
				return err
			}
			if bbox != nil {
				cfg.Input.BBox = bbox
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPipeline(cmd.Context(), opts, cfg, loggerFrom(cmd))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.input, "input", "", "path to .osm.pbf file")
	f.StringVar(&opts.output, "output", "graph.cells", "partition output path")
	f.StringVar(&opts.mapping, "mapping", "graph.nbg_to_ebg", "node to edge based mapping output path")
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics in text format to this path")
	f.StringVar(&opts.geojsonPath, "geojson", "", "write partition cells as GeoJSON to this path")
	f.StringVar(&opts.geojsonTile, "geojson-tile", "", "restrict the GeoJSON export to web mercator tile z/x/y")
	f.StringVar(&opts.bbox, "bbox", "", "bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	f.BoolVar(&opts.singapore, "singapore", false, "shortcut for --bbox 1.15,103.6,1.48,104.1")
	f.BoolVar(&opts.kl, "kl", false, "shortcut for --bbox 2.75,101.2,3.5,102.0 (Selangor + Kuala Lumpur)")
	f.IntVar(&opts.maxDepth, "max-depth", 0, "maximum recursion depth")
	f.IntVar(&opts.minCellSize, "min-cell-size", 0, "views smaller than this become leaf cells")
	f.Float64Var(&opts.epsilon, "epsilon", 0, "balance tolerance")
	f.IntVar(&opts.parallelism, "parallelism", 0, "concurrent subtrees (0 = GOMAXPROCS)")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runPipeline(ctx context.Context, opts runOptions, cfg *config.Config, logger *log.Logger) error {
	start := time.Now()

	if b := cfg.Input.BBox; b != nil {
		logger.Info("using bounding box filter", "lat", fmt.Sprintf("[%.4f, %.4f]", b.MinLat, b.MaxLat),
			"lng", fmt.Sprintf("[%.4f, %.4f]", b.MinLng, b.MaxLng))
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	parsed, err := osmparser.Parse(ctx, f, osmparser.ParseOptions{BBox: cfg.Input.BBox.Parser(), Logger: logger})
	if err != nil {
		return fmt.Errorf("parse OSM data: %w", err)
	}

	if err := partitionParsed(ctx, parsed, opts, cfg, logger); err != nil {
		return err
	}

	size := int64(0)
	if info, err := os.Stat(opts.output); err == nil {
		size = info.Size()
	}
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond), "output", opts.output,
		"size", fmt.Sprintf("%.1f MB", float64(size)/(1024*1024)), "mapping", opts.mapping)
	return nil
}

// partitionParsed runs everything after parsing: network building, component
// filtering, the mapping file, recursive bisection and the partition file.
// Mapping and partition share the dense node ids of the filtered network.
func partitionParsed(ctx context.Context, parsed *osmparser.ParseResult, opts runOptions, cfg *config.Config, logger *log.Logger) error {
	net := graph.BuildNetwork(parsed)
	logger.Info("built network", "nodes", net.NumberOfNodes(), "segments", len(net.Segments))

	if cfg.Input.LargestComponent && net.NumberOfNodes() > 0 {
		total := net.NumberOfNodes()
		net = graph.FilterToComponent(net, graph.LargestComponent(net))
		logger.Info("kept largest component", "nodes", net.NumberOfNodes(),
			"share", fmt.Sprintf("%.1f%%", float64(net.NumberOfNodes())/float64(total)*100),
			"segments", len(net.Segments))
	}

	mappings := extractor.AssignEdgeBasedNodes(net.Segments)
	logger.Info("assigned edge based nodes", "count", extractor.EdgeBasedNodeCount(mappings))
	if err := extractor.WriteMappingFile(opts.mapping, mappings, logger); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}

	reg := prometheus.NewRegistry()
	pc := cfg.PartitionSettings()
	pc.Logger = logger
	pc.Metrics = partition.NewMetrics(reg)

	state, err := partition.NewRecursiveBisectionState(net.BisectionGraph(), cfg.Bisector(), pc)
	if err != nil {
		return err
	}
	res, err := state.Run(ctx)
	if err != nil {
		return err
	}

	if err := partition.WriteCells(opts.output, res.Cells()); err != nil {
		return fmt.Errorf("write partition: %w", err)
	}
	if opts.geojsonPath != "" {
		n, err := writeGeoJSON(opts.geojsonPath, res, opts.geojsonTile)
		if err != nil {
			return err
		}
		logger.Info("wrote geojson", "path", opts.geojsonPath, "cells", n)
	}
	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}
