package face

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/andresmejia3/deepscan/internal/utils"
	"github.com/goccy/go-json"
)

// ProcessLocator delegates detection to a long-lived child process.
//
// Protocol, all integers big-endian uint32:
//
//	request:  [len][width][height][rgb24 pixels]
//	response: [len][JSON]  where JSON is [[x,y,w,h],...] or {"error":"..."}
//
// Requests go to the child's stdin; responses come back on FD 3 so the child
// can log freely on stdout/stderr.
type ProcessLocator struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
}

// NewProcessLocator starts the command line (split on whitespace) as a locator worker.
func NewProcessLocator(ctx context.Context, id int, commandLine string) (*ProcessLocator, error) {
	argv := strings.Fields(commandLine)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty locator command")
	}
	proc := utils.NewSafeCommand(ctx, argv[0], argv[1:]...)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	proc.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := proc.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("locator %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &ProcessLocator{ID: id, Cmd: proc, Stdin: stdin, DataPipe: r}, nil
}

// ProcessFactory returns a Factory that starts one worker per acquisition.
func ProcessFactory(commandLine string) Factory {
	var next atomic.Int32
	return func(ctx context.Context) (Locator, error) {
		return NewProcessLocator(ctx, int(next.Add(1)), commandLine)
	}
}

// MaxResponseSize caps the length header a worker may send back.
const MaxResponseSize = 16 << 20

type locatorError struct {
	Error string `json:"error"`
}

// Locate sends the frame to the child and decodes the boxes it returns.
func (p *ProcessLocator) Locate(ctx context.Context, frame *types.Frame) ([]image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.communicate(frame)
	if err != nil {
		return nil, fmt.Errorf("locator %d: %w", p.ID, err)
	}

	var raw [][]int
	if err := json.Unmarshal(resp, &raw); err != nil {
		var le locatorError
		if json.Unmarshal(resp, &le) == nil && le.Error != "" {
			return nil, fmt.Errorf("locator %d error: %s", p.ID, le.Error)
		}
		return nil, fmt.Errorf("locator %d JSON malformed: %w", p.ID, err)
	}

	boxes := make([]image.Rectangle, 0, len(raw))
	for _, b := range raw {
		if len(b) != 4 {
			return nil, fmt.Errorf("locator %d returned box with %d values, want 4", p.ID, len(b))
		}
		boxes = append(boxes, image.Rect(b[0], b[1], b[0]+b[2], b[1]+b[3]))
	}
	return boxes, nil
}

func (p *ProcessLocator) communicate(frame *types.Frame) ([]byte, error) {
	pix := frame.RGB()
	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[0:], uint32(8+len(pix)))
	binary.BigEndian.PutUint32(header[4:], uint32(frame.Width))
	binary.BigEndian.PutUint32(header[8:], uint32(frame.Height))
	if _, err := p.Stdin.Write(header); err != nil {
		return nil, err
	}
	if _, err := p.Stdin.Write(pix); err != nil {
		return nil, err
	}

	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(p.DataPipe, lenBuf); err != nil {
		return nil, err // the child died (e.g. missing module) before answering
	}
	size := binary.BigEndian.Uint32(lenBuf)
	if size > MaxResponseSize {
		return nil, fmt.Errorf("response of %d bytes exceeds the %d byte limit", size, MaxResponseSize)
	}
	body := make([]byte, size)
	_, err := io.ReadFull(p.DataPipe, body)
	return body, err
}

// Close shuts the child down and waits for it.
func (p *ProcessLocator) Close() error {
	p.Stdin.Close()
	p.DataPipe.Close()
	if p.Cmd == nil {
		return nil
	}
	return p.Cmd.Wait()
}
