package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/azybler/map_partitioner/pkg/extractor"
	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/partition"
)

func newInspectCmd() *cobra.Command {
	var mappingPath, cellsPath string
	var head int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of mapping or partition files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mappingPath == "" && cellsPath == "" {
				return errors.New("nothing to inspect: pass --mapping and/or --cells")
			}
			out := cmd.OutOrStdout()
			if mappingPath != "" {
				if err := inspectMapping(out, mappingPath, head); err != nil {
					return err
				}
			}
			if cellsPath != "" {
				if err := inspectCells(out, cellsPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "mapping file to inspect")
	cmd.Flags().StringVar(&cellsPath, "cells", "", "partition file to inspect")
	cmd.Flags().IntVar(&head, "head", 5, "mapping records to print")
	return cmd
}

func formatEdge(id graph.EdgeID) string {
	if id == graph.SpecialEdgeID {
		return "-"
	}
	return fmt.Sprint(id)
}

func inspectMapping(w io.Writer, path string, head int) error {
	mappings, err := extractor.ReadMappingFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mapping %s\n", path)
	fmt.Fprintf(w, "  records:          %d\n", len(mappings))
	fmt.Fprintf(w, "  edge based nodes: %d\n", extractor.EdgeBasedNodeCount(mappings))
	for _, m := range mappings[:min(max(head, 0), len(mappings))] {
		fmt.Fprintf(w, "  %d -> %d head=%s tail=%s\n", m.U, m.V, formatEdge(m.Head), formatEdge(m.Tail))
	}
	return nil
}

func inspectCells(w io.Writer, path string) error {
	cells, err := partition.ReadCells(path)
	if err != nil {
		return err
	}

	sizes := make(map[partition.CellID]int)
	depths := make([]int, cells.MaxDepth+1)
	for i, c := range cells.CellIDs {
		sizes[c]++
		depths[cells.Depth[i]]++
	}
	leafSizes := make([]int, 0, len(sizes))
	for _, n := range sizes {
		leafSizes = append(leafSizes, n)
	}
	slices.Sort(leafSizes)

	fmt.Fprintf(w, "partition %s\n", path)
	fmt.Fprintf(w, "  nodes:     %d\n", cells.NumberOfNodes())
	fmt.Fprintf(w, "  max depth: %d\n", cells.MaxDepth)
	fmt.Fprintf(w, "  cells:     %d\n", len(leafSizes))
	if len(leafSizes) > 0 {
		fmt.Fprintf(w, "  cell size: min %d, median %d, max %d\n",
			leafSizes[0], leafSizes[len(leafSizes)/2], leafSizes[len(leafSizes)-1])
	}
	for d, n := range depths {
		if n > 0 {
			fmt.Fprintf(w, "  depth %2d: %d nodes\n", d, n)
		}
	}
	return nil
}
