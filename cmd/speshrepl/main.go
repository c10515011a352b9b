// Command speshrepl is an interactive loop for trying out spesh IR
// snippets: each line you enter is parsed as a one-block program,
// optimized, and printed back.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"spesh/internal/dslparser"
	"spesh/internal/errors"
	"spesh/internal/oracle"
	"spesh/internal/spesh"
)

const prompt = "spesh> "

func main() {
	start(os.Stdin)
}

func start(in io.Reader) {
	scanner := bufio.NewScanner(in)
	model := oracle.New()

	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		source := "bb0:\n  " + line
		res := dslparser.Parse("<repl>", source, model)
		if res.Graph == nil {
			reporter := errors.NewErrorReporter("<repl>", source)
			for _, d := range res.Diags {
				fmt.Print(reporter.FormatError(d))
			}
			continue
		}

		spesh.Optimize(res.Graph)
		fmt.Print(spesh.Print(res.Graph))
	}
}
