package clicommand

import "github.com/urfave/cli"

var JoggrCommands = []cli.Command{
	StartCommand,
	InvokeCommand,
	RoutesCommand,
	LoginCommand,
	SignupCommand,
	{
		Name:  "entry",
		Usage: "Record and list runs",
		Subcommands: []cli.Command{
			EntryAddCommand,
			EntryListCommand,
			EntryWeeklyCommand,
			EntryFilterCommand,
		},
	},
}
