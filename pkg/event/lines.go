package event

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// MaxLineSize bounds a single input line. Stack traces make for long lines.
const MaxLineSize = 1024 * 1024

// scanResult carries a scanned line or terminal error from the scanner goroutine.
type scanResult struct {
	line []byte
	err  error
}

// ScanLines calls fn for every non-empty line of r, in order. It stops on EOF,
// when fn returns an error, or when ctx is cancelled.
//
// The scanner runs in a background goroutine. On cancel, ScanLines closes r if
// it implements io.Closer to unblock the scanner; otherwise the caller must
// close the underlying reader.
func ScanLines(ctx context.Context, r io.Reader, fn func(line []byte) error) error {
	// Cancelling on return releases the scanner when fn stops the scan early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			// Copy bytes; the scanner reuses its buffer.
			cp := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- scanResult{line: cp}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- scanResult{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return ctx.Err()
		case res, ok := <-lines:
			if !ok {
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("scanning input: %w", res.err)
			}
			if len(res.line) == 0 {
				continue
			}
			if err := fn(res.line); err != nil {
				return err
			}
		}
	}
}
