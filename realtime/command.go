package realtime

import (
	"sort"

	"github.com/comalice/procession/internal/primitives"
)

// CommandKind names an operation applied at a tick boundary.
type CommandKind string

const (
	CommandStart  CommandKind = "start"
	CommandPause  CommandKind = "pause" // toggles pause
	CommandCancel CommandKind = "cancel"
)

// Command is a queued operation. Actor and Route are only read by start.
// Commands built by the constructors below have priority 0 and apply in the
// order they were sent; callers may raise Priority to jump the batch.
type Command struct {
	Kind     CommandKind
	Actor    *primitives.Actor
	Route    *primitives.Route
	Priority int
}

// StartCommand builds a start command.
func StartCommand(a *primitives.Actor, r *primitives.Route) Command {
	return Command{Kind: CommandStart, Actor: a, Route: r}
}

// PauseCommand builds a pause toggle.
func PauseCommand() Command { return Command{Kind: CommandPause} }

// CancelCommand builds a cancel. A cancel sent after a start in the same tick
// cancels that procession.
func CancelCommand() Command { return Command{Kind: CommandCancel} }

// CommandWithMeta adds sequencing metadata for deterministic ordering.
type CommandWithMeta struct {
	Command     Command
	SequenceNum uint64
}

// sortCommands orders higher priority first, then FIFO.
func sortCommands(cmds []CommandWithMeta) {
	sort.SliceStable(cmds, func(i, j int) bool {
		if cmds[i].Command.Priority != cmds[j].Command.Priority {
			return cmds[i].Command.Priority > cmds[j].Command.Priority
		}
		return cmds[i].SequenceNum < cmds[j].SequenceNum
	})
}
