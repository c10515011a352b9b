// Command speshc runs the spesh optimizer over a textual IR file and
// prints the graph before and after optimization.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"spesh/internal/dslparser"
	"spesh/internal/errors"
	"spesh/internal/oracle"
	"spesh/internal/spesh"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: speshc <file.spesh>")
		os.Exit(2)
	}
	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	res := dslparser.Parse(path, string(source), oracle.New())
	if res.Graph == nil {
		reporter := errors.NewErrorReporter(path, string(source))
		for _, d := range res.Diags {
			fmt.Print(reporter.FormatError(d))
		}
		os.Exit(1)
	}

	color.Cyan("== before ==")
	fmt.Print(spesh.Print(res.Graph))

	before := res.Graph.NumBBs
	spesh.Optimize(res.Graph)
	after := res.Graph.NumBBs

	color.Cyan("== after ==")
	fmt.Print(spesh.Print(res.Graph))

	color.Green("blocks: %d -> %d", before, after)

	if len(res.Diags) > 0 {
		reporter := errors.NewErrorReporter(path, string(source))
		for _, d := range res.Diags {
			fmt.Print(reporter.FormatError(d))
		}
	}
}
