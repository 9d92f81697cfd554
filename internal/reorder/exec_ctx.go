package reorder

import (
	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/memory"
)

// Argument ids.
const (
	ArgFrom = 1
	ArgTo   = 17
)

// ExecCtx carries the storages and stream of one execution. It is owned by
// the caller and lives for one Execute call.
type ExecCtx struct {
	stream compute.Stream
	args   map[int]memory.Storage
}

// NewExecCtx creates an execution context. args may be nil.
func NewExecCtx(stream compute.Stream, args map[int]memory.Storage) *ExecCtx {
	ctx := &ExecCtx{
		stream: stream,
		args:   make(map[int]memory.Storage, len(args)),
	}
	for id, s := range args {
		ctx.SetArg(id, s)
	}
	return ctx
}

// SetArg binds a storage to an argument id.
func (c *ExecCtx) SetArg(id int, s memory.Storage) {
	if s == nil {
		s = memory.Empty()
	}
	c.args[id] = s
}

// Stream returns the execution stream.
func (c *ExecCtx) Stream() compute.Stream {
	return c.stream
}

// Input returns the storage bound to id, or memory.Empty().
func (c *ExecCtx) Input(id int) memory.Storage {
	return c.arg(id)
}

// Output returns the storage bound to id, or memory.Empty().
func (c *ExecCtx) Output(id int) memory.Storage {
	return c.arg(id)
}

func (c *ExecCtx) arg(id int) memory.Storage {
	if s, ok := c.args[id]; ok {
		return s
	}
	return memory.Empty()
}
