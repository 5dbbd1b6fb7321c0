/*
procession authors routes and runs religious processions along them.

Usage:

	procession <command> [arguments]

Common commands:

	procession route build   Author a route from an actor's seat
	procession simulate      Run a procession headless
	procession watch         Run a procession with a live progress view
	procession lifecycle     Print the lifecycle diagram
	procession saves list    List saved games

See 'procession help <command>' for more information on a specific command.
*/
package main

import (
	"os"

	"github.com/comalice/procession/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
