package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/progress"
)

// consolePercentStep — шаг вывода прогресса передачи в процентах.
const consolePercentStep = 10

// Console — progress.Sink для терминала: заголовки шагов и прогресс
// передач. Вывод команд Console не печатает, для этого есть progress.Writer.
type Console struct {
	flow *domain.FlowDefinition
	w    io.Writer

	mu   sync.Mutex
	last int
}

// NewConsole создаёт Console для flow.
func NewConsole(flow *domain.FlowDefinition, w io.Writer) *Console {
	return &Console{flow: flow, w: w, last: -1}
}

func (c *Console) StepChanged(_ context.Context, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = -1
	label := ""
	if c.flow != nil && index >= 0 && index < len(c.flow.Steps) {
		label = c.flow.Steps[index].Label()
	}
	total := 0
	if c.flow != nil {
		total = len(c.flow.Steps)
	}
	fmt.Fprintf(c.w, "==> [%d/%d] %s\n", index+1, total, label)
}

func (c *Console) Progress(_ context.Context, ev progress.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	percent := int(ev.ProgressPercent)
	if !ev.Done() && c.last >= 0 && percent-c.last < consolePercentStep {
		return
	}
	c.last = percent
	fmt.Fprintf(c.w, "    %s / %s (%d%%)\n", ev.ProcessedSizeFormat, ev.TotalSizeFormat, percent)
	if ev.Done() {
		c.last = -1
	}
}

func (c *Console) Output(context.Context, []byte) {}
