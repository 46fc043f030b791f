// joggr-client drives the joggr page from the command line: it fetches
// HTML fragments from the joggr API and renders them into the page the
// same way the browser front end does.
package main

import (
	"fmt"
	"os"

	"github.com/joggr/joggr-client/clicommand"
	"github.com/joggr/joggr-client/version"
	"github.com/urfave/cli"
)

const appHelpTemplate = `Usage:

  {{.Name}} <command> [options...]

Available commands are:

  {{range .Commands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
  {{end}}
Use "{{.Name}} <command> --help" for more information about a command.

`

func main() {
	cli.AppHelpTemplate = appHelpTemplate
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "%s version %s\n", c.App.Name, c.App.Version)
	}

	app := cli.NewApp()
	app.Name = "joggr-client"
	app.Usage = "Drive the joggr page from the command line"
	app.Version = version.FullVersion()
	app.ErrWriter = os.Stderr
	app.Commands = clicommand.JoggrCommands
	app.CommandNotFound = func(c *cli.Context, command string) {
		fmt.Fprintf(c.App.ErrWriter, "%s: unknown command %q\n", c.App.Name, command)
		fmt.Fprintf(c.App.ErrWriter, "Run '%s --help' for usage.\n", c.App.Name)
		os.Exit(1)
	}
	app.Action = func(c *cli.Context) error {
		return cli.ShowAppHelp(c)
	}

	os.Exit(clicommand.PrintMessageAndReturnExitCode(os.Stderr, app.Run(os.Args)))
}
