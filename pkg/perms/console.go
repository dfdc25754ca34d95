package perms

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/perms/internal/util/console"
	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/command/suggest"
	"go.minekube.com/perms/pkg/host/sim"
	"go.minekube.com/perms/pkg/i18n"
	"go.minekube.com/perms/pkg/util/permission"
)

// maxHints bounds the "did you mean" candidates shown for unknown commands.
const maxHints = 3

// Console runs operator commands against a Perms instance.
// Commands run on the synchronous tick.
type Console struct {
	p        *Perms
	commands *command.Manager

	mu  sync.Mutex // serializes writes to out
	out io.Writer
}

func newConsole(p *Perms, out io.Writer) *Console {
	c := &Console{
		p:        p,
		commands: new(command.Manager),
		out:      out,
	}
	c.registerCommands()
	return c
}

// Run reads one command per line from in until ctx is done.
// It returns nil once in is exhausted.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		s := bufio.NewScanner(in)
		for s.Scan() {
			select {
			case lines <- s.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- s.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := c.Execute(ctx, line); err != nil {
				c.p.log.Error(err, "console command failed", "command", line)
			}
		}
	}
}

// Execute runs a console command line and waits for it to complete.
// It must not be called from the synchronous tick.
func (c *Console) Execute(ctx context.Context, line string) error {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	done := make(chan error, 1)
	c.p.sync.Execute(func() { done <- c.execute(ctx, line) })
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) execute(ctx context.Context, line string) error {
	err := c.commands.Do(ctx, (*consoleSource)(c), line)
	if err == nil {
		return nil
	}
	if errors.Is(err, brigodier.ErrDispatcherUnknownCommand) {
		name, _, _ := strings.Cut(line, " ")
		return c.unknown((*consoleSource)(c), name, c.commands.Names())
	}
	var sErr *brigodier.CommandSyntaxError
	if errors.As(err, &sErr) {
		c.print(&component.Text{Content: sErr.Error(), S: component.Style{Color: color.Red}})
		return nil
	}
	return err
}

// unknown tells src that the command name does not exist
// and hints at the most similar of names.
func (c *Console) unknown(src command.Source, name string, names []string) error {
	msg := &component.Text{Extra: []component.Component{&component.Translation{
		Key:  i18n.KeyUnknown,
		S:    component.Style{Color: color.Red},
		With: []component.Component{&component.Text{Content: name}},
	}}}
	if hints := suggest.Closest(name, names, maxHints); len(hints) != 0 {
		msg.Extra = append(msg.Extra, &component.Text{Content: " "}, &component.Translation{
			Key:  i18n.KeyDidYouMean,
			S:    component.Style{Color: color.Gray},
			With: []component.Component{&component.Text{Content: strings.Join(hints, ", ")}},
		})
	}
	return src.SendMessage(msg)
}

// print writes msg rendered in the fallback language.
func (c *Console) print(msg component.Component) {
	text := console.Ansi(c.p.translator.Render(i18n.Fallback, msg))
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, text)
}

// playerMessage echoes messages sent to simulated players.
func (c *Console) playerMessage(p *sim.Player, msg component.Component) {
	c.print(&component.Text{
		Content: "[" + p.Username() + "] ",
		S:       component.Style{Color: color.DarkGray},
		Extra:   []component.Component{msg},
	})
}

// consoleSource is the command source of the console.
// It has every permission.
type consoleSource Console

var (
	_ command.Source  = (*consoleSource)(nil)
	_ command.Leveled = (*consoleSource)(nil)
)

func (s *consoleSource) HasPermission(string) bool                 { return true }
func (s *consoleSource) PermissionValue(string) permission.TriState { return permission.True }
func (s *consoleSource) AccessLevel() int                          { return permission.MaxLevel }

func (s *consoleSource) SendMessage(msg component.Component) error {
	(*Console)(s).print(msg)
	return nil
}
