package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/andresmejia3/deepscan/internal/utils"
)

// FrameSource yields decoded frames in presentation order.
// Next returns io.EOF once the stream is exhausted.
type FrameSource interface {
	Meta() Metadata
	Next() (*types.Frame, error)
	Close() error
}

// Decoder streams rgb24 frames out of an ffmpeg child process.
type Decoder struct {
	meta   Metadata
	cmd    *utils.SafeCommand
	out    io.ReadCloser
	cancel context.CancelFunc
	next   int
	done   bool
}

// Open validates the path, probes it and starts the decoder.
func Open(ctx context.Context, tools Tools, path string) (*Decoder, error) {
	if err := CheckSource(path); err != nil {
		return nil, err
	}
	meta, err := Probe(ctx, tools, path)
	if err != nil {
		return nil, err
	}

	// The child must die as soon as the sampler has what it needs.
	ctx, cancel := context.WithCancel(ctx)
	cmd := NewFFmpegRawDecoder(ctx, tools, path)
	out, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: decoder pipe: %v", ErrSourceUnreadable, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrSourceUnreadable, err)
	}
	return &Decoder{meta: meta, cmd: cmd, out: out, cancel: cancel}, nil
}

// NewFFmpegRawDecoder builds an ffmpeg command that writes packed rgb24 frames to stdout.
func NewFFmpegRawDecoder(ctx context.Context, tools Tools, inputPath string) *utils.SafeCommand {
	return utils.NewSafeCommand(ctx, tools.FFmpeg, "-hide_banner", "-loglevel", "error",
		"-i", inputPath, "-an", "-f", "rawvideo", "-pix_fmt", "rgb24", "-")
}

// Meta returns the probed stream metadata.
func (d *Decoder) Meta() Metadata { return d.meta }

// Next reads the next full frame. A truncated trailing frame counts as end of stream.
func (d *Decoder) Next() (*types.Frame, error) {
	if d.done {
		return nil, io.EOF
	}
	buf := make([]uint8, d.meta.Width*d.meta.Height*3)
	if _, err := io.ReadFull(d.out, buf); err != nil {
		d.done = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: read frame %d: %v", ErrSourceUnreadable, d.next, err)
	}
	f := types.NewFrame(d.next, d.meta.Width, d.meta.Height, buf)
	d.next++
	return f, nil
}

// Close stops the decoder. When the stream was read to the end, a failing
// ffmpeg exit is reported; an early stop kills the child and is not an error.
func (d *Decoder) Close() error {
	finished := d.done
	if !finished {
		d.cancel()
	}
	d.out.Close()
	err := d.cmd.Wait()
	d.cancel()
	if finished && err != nil {
		return fmt.Errorf("%w: ffmpeg: %v: %s", ErrSourceUnreadable, err, strings.TrimSpace(d.cmd.Logs()))
	}
	return nil
}
