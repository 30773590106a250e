package rollout

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// PARALLEL OUTPUT

// used to update and print worker status lines
type ParallelOutput struct {
	mu        sync.Mutex
	printable string

	Running bool
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        sync.Mutex{},
		printable: "",

		Running: false,
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	if p.mu.TryLock() {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}

func (p *ParallelOutput) setRunning(running bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Running = running
}

func (p *ParallelOutput) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Running
}

// TERMINAL PRINTER

// TerminalPrinter redraws one line per worker at a fixed interval
type TerminalPrinter struct {
	outputs       []*ParallelOutput
	ctx           context.Context
	printerCancel context.CancelFunc
	frequency     time.Duration
	done          chan struct{}

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(ctx context.Context, outputs []*ParallelOutput, frequency time.Duration, out io.Writer) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	writer := uilive.New()
	writer.Out = out
	writers := make([]io.Writer, 0, len(outputs))
	for i := 1; i < len(outputs); i++ {
		writers = append(writers, writer.Newline())
	}

	return &TerminalPrinter{
		outputs:       outputs,
		ctx:           printerCtx,
		printerCancel: cancel,
		frequency:     frequency,
		done:          make(chan struct{}),

		writer:  writer,
		writers: writers,
	}
}

func (p *TerminalPrinter) Start() {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.ctx.Done():
				p.print()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop prints a last frame and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	p.printerCancel()
	<-p.done
}

func (p *TerminalPrinter) print() {
	for i, output := range p.outputs {
		if !output.running() {
			continue
		}
		s := output.Get()
		if i == 0 {
			fmt.Fprint(p.writer, s+"\n")
		} else {
			fmt.Fprint(p.writers[i-1], s+"\n")
		}
	}
	p.writer.Flush()
}
