package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "timetable"
	app.Usage = "Solve course timetables offline"
	app.Version = version
	app.Commands = []cli.Command{
		{
			Name:   "solve",
			Usage:  "place every section of a problem file into a time slot and classroom",
			Flags:  solveFlags,
			Action: solve,
		},
		{
			Name:   "grid",
			Usage:  "print the default weekly time grid as JSON",
			Action: grid,
		},
		{
			Name:   "token",
			Usage:  "issue a development access token signed with JWT_SECRET",
			Flags:  tokenFlags,
			Action: token,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
