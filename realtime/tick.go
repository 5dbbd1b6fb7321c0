package realtime

import "fmt"

// Step runs one tick synchronously: queued commands first, then one advance
// of DeltaMs. A panic is recovered and logged.
func (rt *Runtime) Step() {
	func() {
		defer func() {
			if r := recover(); r != nil {
				rt.log.Error().Str("panic", fmt.Sprint(r)).Uint64("tick", rt.TickNumber()).Msg("tick panicked")
			}
		}()
		cmds := rt.collectCommands()
		sortCommands(cmds)
		rt.applyCommands(cmds)
		rt.driver.Tick(rt.deltaMs)
	}()

	rt.mu.Lock()
	rt.tickNum++
	rt.mu.Unlock()
}

// collectCommands atomically retrieves and clears the batch.
func (rt *Runtime) collectCommands() []CommandWithMeta {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cmds := rt.batch
	rt.batch = make([]CommandWithMeta, 0, cap(rt.batch))
	return cmds
}

// applyCommands runs each command against the driver. Failures are already
// reported on the bus by the driver; here they are only logged.
func (rt *Runtime) applyCommands(cmds []CommandWithMeta) {
	for _, c := range cmds {
		var err error
		switch c.Command.Kind {
		case CommandStart:
			err = rt.driver.Start(c.Command.Actor, c.Command.Route)
		case CommandPause:
			_, err = rt.driver.TogglePause()
		case CommandCancel:
			err = rt.driver.Cancel()
		default:
			err = fmt.Errorf("unknown command %q", c.Command.Kind)
		}
		if err != nil {
			rt.log.Warn().Err(err).
				Str("command", string(c.Command.Kind)).
				Uint64("seq", c.SequenceNum).
				Msg("command rejected")
		}
	}
}
