// Command roster keeps a roster of student records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/roster/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if cli.ShouldPrint(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
