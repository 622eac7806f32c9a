package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	region "github.com/kaelbridge/regioncore"
)

// gridNode is the payload of one cell in the 8x8 grid-walker scenario
//. links holds the four cardinal neighbours in N, E, S, W
// order; a nil entry means that edge has been destroyed.
type gridNode struct {
	x, y  int
	links [4]*region.Object
}

func traceGridNode(payload any, push func(*region.Object)) {
	n := payload.(*gridNode)
	for _, l := range n.links {
		push(l)
	}
}

var gridNodeDesc = &region.Descriptor{
	Name:  "gridnode",
	Size:  1,
	Trace: traceGridNode,
}

func opposite(d int) int { return (d + 2) % 4 }

// buildGrid allocates an 8x8 fully-linked grid into a fresh Trace region,
// with entry at (0,0).
func buildGrid(ctx *region.Context) (entry *region.Object, nodes [8][8]*region.Object, all []*region.Object, err error) {
	entry, err = region.CreateFreshRegion(region.KindTrace, gridNodeDesc)
	if err != nil {
		return nil, nodes, nil, err
	}
	if _, err = region.OpenRegion(ctx, entry, true); err != nil {
		return nil, nodes, nil, err
	}

	entry.SetPayload(&gridNode{x: 0, y: 0})
	nodes[0][0] = entry
	all = append(all, entry)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x == 0 && y == 0 {
				continue
			}
			obj, aerr := region.Allocate(ctx, gridNodeDesc)
			if aerr != nil {
				return nil, nodes, nil, aerr
			}
			obj.SetPayload(&gridNode{x: x, y: y})
			nodes[y][x] = obj
			all = append(all, obj)
		}
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			n := nodes[y][x].Payload().(*gridNode)
			if y > 0 {
				n.links[0] = nodes[y-1][x]
			}
			if x < 7 {
				n.links[1] = nodes[y][x+1]
			}
			if y < 7 {
				n.links[2] = nodes[y+1][x]
			}
			if x > 0 {
				n.links[3] = nodes[y][x-1]
			}
		}
	}
	return entry, nodes, all, nil
}

type walkerState struct {
	x, y int
}

// stepWalkers moves each walker one cell along a surviving edge, chosen in
// random order among the four cardinal directions, then destroys that edge
// in both directions, destroying the edge behind the walker. A walker
// with no surviving outbound edge stays put.
func stepWalkers(walkers []*walkerState, nodes *[8][8]*region.Object, rng *rand.Rand) {
	for _, w := range walkers {
		n := nodes[w.y][w.x].Payload().(*gridNode)
		for _, d := range rng.Perm(4) {
			target := n.links[d]
			if target == nil {
				continue
			}
			tn := target.Payload().(*gridNode)
			n.links[d] = nil
			tn.links[opposite(d)] = nil
			w.x, w.y = tn.x, tn.y
			break
		}
	}
}

var (
	gridwalkSteps   int
	gridwalkWalkers int
)

var gridwalkCmd = &cobra.Command{
	Use:   "gridwalk",
	Short: "Run the 8x8 grid-walker Trace-region scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := region.NewContext()
		entry, nodes, all, err := buildGrid(ctx)
		if err != nil {
			return err
		}

		walkers := make([]*walkerState, gridwalkWalkers)
		for i := range walkers {
			walkers[i] = &walkerState{}
		}
		rng := rand.New(rand.NewSource(1))

		var csvw *csv.Writer
		if format == formatCSV {
			csvw = csv.NewWriter(os.Stdout)
			defer csvw.Flush()
			if err := csvw.Write([]string{"step", "reachable", "unreachable", "debug_size"}); err != nil {
				return err
			}
		}

		for step := 1; step <= gridwalkSteps; step++ {
			stepWalkers(walkers, &nodes, rng)

			reachable := region.CountReachable(entry)
			unreachable := region.CountUnreachable(entry, all)
			if reachable+unreachable != len(all) {
				return fmt.Errorf("step %d: reachable(%d)+unreachable(%d) != %d", step, reachable, unreachable, len(all))
			}

			if err := region.RegionCollect(ctx); err != nil {
				return err
			}
			size := region.DebugSize(entry)
			if size != reachable {
				return fmt.Errorf("step %d: debug_size(%d) != reachable(%d)", step, size, reachable)
			}

			if csvw != nil {
				row := []string{strconv.Itoa(step), strconv.Itoa(reachable), strconv.Itoa(unreachable), strconv.Itoa(size)}
				if err := csvw.Write(row); err != nil {
					return err
				}
			} else {
				fmt.Printf("step=%d reachable=%d unreachable=%d debug_size=%d\n", step, reachable, unreachable, size)
			}
		}

		if err := region.CloseRegion(ctx, true); err != nil {
			return err
		}
		region.RegionRelease(entry)
		return nil
	},
}

func init() {
	gridwalkCmd.Flags().IntVar(&gridwalkSteps, "steps", 20, "number of walker steps to run")
	gridwalkCmd.Flags().IntVar(&gridwalkWalkers, "walkers", 10, "number of concurrent walkers")
}
