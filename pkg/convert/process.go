package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Process runs an external converter that reads SVG on stdin and writes
// PNG on stdout.
type Process struct {
	Path string
	Args []string
}

// Convert starts the converter, feeds it svg and waits for it to exit.
// Cancelling ctx kills the process.
func (p *Process) Convert(ctx context.Context, svg []byte) ([]byte, error) {
	if p.Path == "" {
		return nil, converterError(errors.New("converter path is required"))
	}
	cmd := exec.CommandContext(ctx, p.Path, p.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, converterError(err)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, converterError(err)
	}

	writeErr := make(chan error, 1)
	go func() {
		_, err := io.Copy(stdin, bytes.NewReader(svg))
		if cerr := stdin.Close(); err == nil {
			err = cerr
		}
		writeErr <- err
	}()

	waitErr := cmd.Wait()
	if err := <-writeErr; err != nil && waitErr == nil {
		return nil, converterError(err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, converterError(ctxErr)
	}
	if waitErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, converterError(fmt.Errorf("%w: %s", waitErr, msg))
		}
		return nil, converterError(waitErr)
	}
	if stdout.Len() == 0 {
		return nil, converterError(errors.New("no output"))
	}
	return stdout.Bytes(), nil
}

func converterError(err error) error {
	return fmt.Errorf("error running png converter... [%w]", err)
}
