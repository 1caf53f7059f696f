package client

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nyaws/awsclient/internal/validate"
)

// ValidateRequests checks input against opName's input shape without
// invoking the operation: required members present, enum members valid.
func (c *Client) ValidateRequests(opName string, input interface{}) error {
	op, ok := c.svc.Operations[opName]
	if !ok {
		return fmt.Errorf("client: operation %q is not defined", opName)
	}
	return validate.Request(c.svc, op, input)
}

// RequestSpecKey returns the shape name opName's input is structured as.
func (c *Client) RequestSpecKey(opName string) (string, error) {
	op, ok := c.svc.Operations[opName]
	if !ok {
		return "", fmt.Errorf("client: operation %q is not defined", opName)
	}
	return op.InputShape, nil
}

// ResponseSpecKey returns the shape name opName's output is structured as.
func (c *Client) ResponseSpecKey(opName string) (string, error) {
	op, ok := c.svc.Operations[opName]
	if !ok {
		return "", fmt.Errorf("client: operation %q is not defined", opName)
	}
	return op.OutputShape, nil
}

// Ops lists every operation name the bound descriptor defines, sorted.
func (c *Client) Ops() []string {
	names := make([]string, 0, len(c.svc.Operations))
	for name := range c.svc.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doc renders a human-readable table of every operation: its HTTP
// binding, input/output shapes, and the number of members in its input
// shape (comma-grouped via go-humanize for readability).
func (c *Client) Doc() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Operation", "Method", "URI", "Input", "Output", "Members"})
	for _, name := range c.Ops() {
		op := c.svc.Operations[name]
		memberCount := 0
		if sh := c.svc.Shape(op.InputShape); sh != nil {
			memberCount = len(sh.Members)
		}
		t.AppendRow(table.Row{
			name,
			op.HTTPMethod,
			op.HTTPRequestURI,
			op.InputShape,
			op.OutputShape,
			humanize.Comma(int64(memberCount)),
		})
	}
	return t.Render()
}

// PrintDoc writes Doc's rendering to stdout; a thin convenience wrapper
// for CLI callers.
func (c *Client) PrintDoc() {
	fmt.Fprintln(os.Stdout, c.Doc())
}
