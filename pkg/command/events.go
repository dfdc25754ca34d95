package command

// CommandExecuteEvent is fired when someone wants to execute a command.
type CommandExecuteEvent struct {
	source          Source
	commandline     string
	originalCommand string

	denied bool
}

// NewCommandExecuteEvent returns a new CommandExecuteEvent.
func NewCommandExecuteEvent(source Source, commandline string) *CommandExecuteEvent {
	return &CommandExecuteEvent{
		source:          source,
		commandline:     commandline,
		originalCommand: commandline,
	}
}

// Source returns the command source that wants to run the command.
func (c *CommandExecuteEvent) Source() Source {
	return c.source
}

// Command returns the whole commandline without the leading "/".
func (c *CommandExecuteEvent) Command() string {
	return c.commandline
}

// OriginalCommand returns the original command if SetCommand has changed it.
func (c *CommandExecuteEvent) OriginalCommand() string {
	return c.originalCommand
}

// SetCommand changes the command being executed without the leading "/".
func (c *CommandExecuteEvent) SetCommand(commandline string) {
	c.commandline = commandline
}

// SetAllowed sets whether the command is allowed to be executed.
func (c *CommandExecuteEvent) SetAllowed(allowed bool) {
	c.denied = !allowed
}

// Allowed returns true when the command is allowed to be executed.
func (c *CommandExecuteEvent) Allowed() bool {
	return !c.denied
}
