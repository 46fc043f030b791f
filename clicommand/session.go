package clicommand

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/joggr/joggr-client/controller"
	"github.com/joggr/joggr-client/logger"
)

const sessionHelp = `Commands:

    click SELECTOR               click the first matching element
    fill SELECTOR VALUE          set a form control's value
    submit SELECTOR              submit the matching form
    invoke ENDPOINT [METHOD]     request an endpoint directly
    wait                         wait for outstanding requests
    show                         print the container
    page                         print the whole page
    routes                       print the routing table
    help                         print this message
    quit                         end the session

Selectors containing spaces must be quoted: click "a#weekly span"`

var errQuit = errors.New("quit")

// session reads commands line by line and drives a controller.
type session struct {
	c   *controller.Controller
	l   logger.Logger
	out io.Writer
}

// run executes commands from in until quit, EOF or ctx is done.
func (s *session) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(s.out, "joggr> ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}

			err := s.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
	}
}

func (s *session) exec(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	s.l.Debug("Session command %q %q", cmd, args)

	switch cmd {
	case "click":
		if len(args) != 1 {
			return errors.New("usage: click SELECTOR")
		}
		return s.c.Click(ctx, args[0])

	case "fill":
		if len(args) < 2 {
			return errors.New("usage: fill SELECTOR VALUE")
		}
		return s.c.Fill(ctx, args[0], strings.Join(args[1:], " "))

	case "submit":
		if len(args) != 1 {
			return errors.New("usage: submit SELECTOR")
		}
		return s.c.Submit(ctx, args[0])

	case "invoke":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: invoke ENDPOINT [METHOD]")
		}
		method := ""
		if len(args) == 2 {
			method = strings.ToUpper(args[1])
		}
		return s.c.Invoke(ctx, args[0], method)

	case "wait":
		return s.c.Wait(ctx)

	case "show":
		fmt.Fprintln(s.out, s.c.Document().ContainerDOM())
		return nil

	case "page":
		if err := s.c.Document().Render(s.out); err != nil {
			return err
		}
		fmt.Fprintln(s.out)
		return nil

	case "routes":
		return printRoutes(s.out, s.c.Routes())

	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)
		return nil

	case "quit", "exit":
		return errQuit
	}

	return fmt.Errorf("unknown command %q, try help", cmd)
}

// splitArgs splits a line on spaces, keeping double- or single-quoted
// runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)

	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
