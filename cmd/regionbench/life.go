package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	region "github.com/kaelbridge/regioncore"
)

// lifeRoot is the entry point's payload for the Game-of-Life scenario
//: the set of currently-alive cell objects. Replacing this
// slice each generation and then running RegionCollect is what lets the
// Trace collector reclaim cells that just died - the root simply stops
// naming them.
type lifeRoot struct {
	live []*region.Object
}

func traceLifeRoot(payload any, push func(*region.Object)) {
	r := payload.(*lifeRoot)
	for _, o := range r.live {
		push(o)
	}
}

var (
	lifeEntryDesc = &region.Descriptor{Name: "liferoot", Size: 1, Trace: traceLifeRoot}
	// Cell objects are leaves: a live cell never references another cell
	// directly, it is only named (or not) by the entry's live list.
	lifeCellDesc = &region.Descriptor{Name: "cell", Size: 1}
)

type cellPos struct{ x, y int }

// seedRPentomino marks the classic R-pentomino, centred on an 8x8 board.
func seedRPentomino(grid *[8][8]bool) {
	cx, cy := 3, 3
	for _, d := range []cellPos{{1, 0}, {2, 0}, {0, 1}, {1, 1}, {1, 2}} {
		grid[cy+d.y][cx+d.x-1] = true
	}
}

func liveNeighbors(grid *[8][8]bool, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= 8 || ny < 0 || ny >= 8 {
				continue
			}
			if grid[ny][nx] {
				n++
			}
		}
	}
	return n
}

// nextGeneration applies the standard Game-of-Life rule with a dead border
// (no wraparound).
func nextGeneration(grid *[8][8]bool) [8][8]bool {
	var next [8][8]bool
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			n := liveNeighbors(grid, x, y)
			if grid[y][x] {
				next[y][x] = n == 2 || n == 3
			} else {
				next[y][x] = n == 3
			}
		}
	}
	return next
}

var lifeGenerations int

var lifeCmd = &cobra.Command{
	Use:   "life",
	Short: "Run the 8x8 Game-of-Life Trace-region scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		var alive [8][8]bool
		seedRPentomino(&alive)

		ctx := region.NewContext()
		entry, err := region.CreateFreshRegion(region.KindTrace, lifeEntryDesc)
		if err != nil {
			return err
		}
		if _, err := region.OpenRegion(ctx, entry, true); err != nil {
			return err
		}
		entry.SetPayload(&lifeRoot{})

		cells := make(map[cellPos]*region.Object)
		ensureCell := func(p cellPos) (*region.Object, error) {
			if o, ok := cells[p]; ok {
				return o, nil
			}
			o, err := region.Allocate(ctx, lifeCellDesc)
			if err != nil {
				return nil, err
			}
			o.SetPayload(p)
			cells[p] = o
			return o, nil
		}

		var csvw *csv.Writer
		if format == formatCSV {
			csvw = csv.NewWriter(os.Stdout)
			defer csvw.Flush()
			if err := csvw.Write([]string{"generation", "live_cells", "debug_size"}); err != nil {
				return err
			}
		}

		for gen := 1; gen <= lifeGenerations; gen++ {
			next := nextGeneration(&alive)

			liveObjs := make([]*region.Object, 0)
			liveCount := 0
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					if !next[y][x] {
						delete(cells, cellPos{x, y})
						continue
					}
					liveCount++
					o, err := ensureCell(cellPos{x, y})
					if err != nil {
						return err
					}
					liveObjs = append(liveObjs, o)
				}
			}
			entry.SetPayload(&lifeRoot{live: liveObjs})

			if err := region.RegionCollect(ctx); err != nil {
				return err
			}
			size := region.DebugSize(entry)
			if size != liveCount+1 {
				return fmt.Errorf("generation %d: debug_size(%d) != live_cells(%d)+1", gen, size, liveCount)
			}

			if csvw != nil {
				row := []string{strconv.Itoa(gen), strconv.Itoa(liveCount), strconv.Itoa(size)}
				if err := csvw.Write(row); err != nil {
					return err
				}
			} else {
				fmt.Printf("generation=%d live_cells=%d debug_size=%d\n", gen, liveCount, size)
			}
			alive = next
		}

		if err := region.CloseRegion(ctx, true); err != nil {
			return err
		}
		region.RegionRelease(entry)
		return nil
	},
}

func init() {
	lifeCmd.Flags().IntVar(&lifeGenerations, "generations", 10, "number of generations to simulate")
}
