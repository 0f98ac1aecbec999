// Command reactor-replay lists, replays and reports on devtools session
// logs recorded by an instrumented reactor process, the command-tree shape
// adapted from brutalist's own replay subcommand onto SQLite-backed
// reactivity events instead of flow events.
package main

import (
	"fmt"
	"os"

	"github.com/vireolabs/reactor/internal/replaycli"
)

func main() {
	if err := replaycli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
