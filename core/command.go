package core

import (
	"errors"
	"sync"
)

var (
	ErrEmptyCommand     = errors.New("empty command")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("command code already registered")
)

// CommandHandler handles one command line. payload is everything after the
// command code and is only valid for the duration of the call.
type CommandHandler func(payload []byte) error

// Command is a single-letter operator command
type Command struct {
	Code    byte
	Name    string
	Handler CommandHandler
}

// CommandRegistry maps command codes to handlers
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[byte]*Command
	order    []byte
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[byte]*Command),
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(code byte, name string, handler CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[code]; exists {
		return ErrDuplicateCommand
	}
	r.commands[code] = &Command{
		Code:    code,
		Name:    name,
		Handler: handler,
	}
	r.order = append(r.order, code)
	return nil
}

// GetCommand retrieves a command by code
func (r *CommandRegistry) GetCommand(code byte) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[code]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Commands returns the registered commands in registration order
func (r *CommandRegistry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.commands[code])
	}
	return out
}

// Dispatch runs the handler selected by the first byte of line.
func (r *CommandRegistry) Dispatch(line []byte) error {
	if len(line) == 0 {
		return ErrEmptyCommand
	}
	cmd, ok := r.GetCommand(line[0])
	if !ok {
		return ErrUnknownCommand
	}
	return cmd.Handler(line[1:])
}
