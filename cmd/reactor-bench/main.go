// Command reactor-bench times signal-write-to-effect propagation across a
// grid of fan-out (width) and chain depth (height), adapted from
// signalparty's alien/rocket/dumbdumb comparison benchmark onto this
// runtime's own Signal/Computed/Effect.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	reactor "github.com/vireolabs/reactor"
	"github.com/vireolabs/reactor/devtools"
)

const (
	itersKey    = "iters"
	devtoolsKey = "devtools"
)

func main() {
	cmd := &cli.Command{
		Name:  "reactor-bench",
		Usage: "benchmark signal propagation across a width x height effect grid",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: itersKey, Value: 100, Usage: "writes timed per grid cell"},
			&cli.StringFlag{Name: devtoolsKey, Usage: "if set, mirror every drain onto a devtools dashboard at this address (e.g. :8787)"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	widths  = []int{1, 10, 100, 1_000}
	heights = []int{1, 10, 100, 1_000}
)

func run(_ context.Context, cmd *cli.Command) error {
	iters := int(cmd.Int(itersKey))

	if addr := cmd.String(devtoolsKey); addr != "" {
		server := devtools.NewServer(addr, nil)
		go func() {
			if err := server.Start(); err != nil {
				log.Printf("devtools: dashboard exited: %v", err)
			}
		}()
		defer server.Stop()

		// SetDrainObserver must run before this goroutine's first Signal,
		// Computed, or Effect call, since the runtime it attaches to is
		// created lazily on first use and cached from then on.
		reactor.SetDrainObserver(server)
		fmt.Printf("devtools dashboard: http://localhost%s\n", addr)
	}

	tbl := table.NewWriter()
	tbl.SetTitle("reactor propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			src := reactor.NewSignal(0)
			for i := 0; i < w; i++ {
				var last func() int = src.Read
				for j := 0; j < h; j++ {
					prev := last
					c := reactor.NewComputed(func() int { return prev() + 1 })
					last = c.Read
				}
				l := last
				reactor.NewEffect(func() { l() })
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Write(src.Read() + 1)
				reactor.NextTick(nil).Wait()
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %s x %s", humanize.Comma(int64(w)), humanize.Comma(int64(h))),
				calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max,
			})
		}
	}

	tbl.Render()
	return nil
}
