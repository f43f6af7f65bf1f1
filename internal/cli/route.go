package cli

import (
	"github.com/spf13/cobra"

	"geo-dispatch/internal/graph"
	"geo-dispatch/internal/pathfinder"
	"geo-dispatch/internal/seed"
	"geo-dispatch/internal/software/dispatch/service"
)

type routeOutput struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	DistanceKM float64  `json:"distance_km"`
	ETAMinutes float64  `json:"estimated_time_minutes"`
	Path       []string `json:"path"`
}

func newRouteCmd() *cobra.Command {
	var (
		seedPath string
		speed    float64
	)
	cmd := &cobra.Command{
		Use:   "route FROM TO",
		Short: "Print the shortest route between two locations of a seed file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := seed.Demo()
			if seedPath != "" {
				var err error
				if file, err = seed.Load(seedPath); err != nil {
					return err
				}
			}

			g, err := graph.New(0)
			if err != nil {
				return err
			}
			if _, _, err := file.ApplyGraph(g); err != nil {
				return err
			}

			res, err := pathfinder.NewDijkstra().FindShortestPath(g, args[0], args[1])
			if err != nil {
				return err
			}
			if speed <= 0 {
				speed = service.DefaultAvgSpeedKMH
			}
			return printJSON(cmd.OutOrStdout(), routeOutput{
				From:       args[0],
				To:         args[1],
				DistanceKM: res.TotalDistance,
				ETAMinutes: res.TotalDistance / speed * 60,
				Path:       res.IDs(),
			})
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "seed file with nodes and roads (default: built-in demo network)")
	cmd.Flags().Float64Var(&speed, "speed", service.DefaultAvgSpeedKMH, "average speed in km/h used for the ETA")
	return cmd
}
