package rrepr

import (
	"bytes"
	"context"
	"go/format"
	"os/exec"
)

// Formatter rewrites rendered source into canonical layout
type Formatter interface {
	Format(ctx context.Context, src string) (string, error)
}

// GoFormatter formats with the go/format package, in process
type GoFormatter struct{}

// Format implements the Formatter interface
func (GoFormatter) Format(ctx context.Context, src string) (string, error) {
	out, err := format.Source([]byte(src))
	if err != nil {
		return "", &FormatError{Stderr: err.Error(), Err: err}
	}
	return string(out), nil
}

// ExecFormatter pipes source through an external command, gofmt by default
type ExecFormatter struct {
	Path string
	Args []string
}

// Format implements the Formatter interface. The command is killed if ctx is
// done before it exits.
func (f ExecFormatter) Format(ctx context.Context, src string) (string, error) {
	path := f.Path
	if path == "" {
		path = "gofmt"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, f.Args...)
	cmd.Stdin = bytes.NewBufferString(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return "", &FormatError{Stderr: msg, Err: err}
	}
	return stdout.String(), nil
}

// NopFormatter returns source unchanged
type NopFormatter struct{}

// Format implements the Formatter interface
func (NopFormatter) Format(ctx context.Context, src string) (string, error) { return src, nil }
