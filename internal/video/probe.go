package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/andresmejia3/deepscan/internal/utils"
	"github.com/goccy/go-json"
)

var (
	// ErrSourceNotFound means the input path does not exist or is not a regular file.
	ErrSourceNotFound = errors.New("video source not found")
	// ErrSourceUnreadable means the decoder could not open or read the input.
	ErrSourceUnreadable = errors.New("video source unreadable")
	// ErrInsufficientFrames means fewer than MinFrames frames decoded.
	ErrInsufficientFrames = errors.New("insufficient frames")
)

// Metadata describes the first video stream of a source.
type Metadata struct {
	Width       int
	Height      int
	FPS         float64
	TotalFrames int // 0 when unknown
}

// Tools names the ffmpeg binaries to run.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// DefaultTools resolves ffmpeg and ffprobe from PATH.
func DefaultTools() Tools {
	return Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}
}

type ffprobeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

// CheckSource verifies the path names a readable regular file.
func CheckSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}
	return nil
}

// Probe reads stream metadata with ffprobe. The frame count comes from container
// metadata when present, otherwise from counting packets.
func Probe(ctx context.Context, tools Tools, path string) (Metadata, error) {
	if _, err := exec.LookPath(tools.FFprobe); err != nil {
		return Metadata{}, fmt.Errorf("%w: ffprobe not found: %v", ErrSourceUnreadable, err)
	}

	// 1. Fast Path: Container Metadata
	cmd := utils.NewSafeCommand(ctx, tools.FFprobe, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: ffprobe: %v: %s", ErrSourceUnreadable, err, strings.TrimSpace(cmd.Logs()))
	}
	meta, err := parseProbe(out)
	if err != nil {
		return Metadata{}, err
	}
	if meta.TotalFrames > 0 {
		return meta, nil
	}

	// 2. Slow Path: Count Packets
	cmd = utils.NewSafeCommand(ctx, tools.FFprobe, "-v", "error", "-select_streams", "v:0", "-count_packets",
		"-show_entries", "stream=nb_read_packets", "-of", "json", path)
	if out, err := cmd.Output(); err == nil {
		var res ffprobeOutput
		if json.Unmarshal(out, &res) == nil && len(res.Streams) > 0 {
			if n, err := strconv.Atoi(res.Streams[0].NbReadPackets); err == nil && n > 0 {
				meta.TotalFrames = n
			}
		}
	}
	return meta, nil
}

func parseProbe(out []byte) (Metadata, error) {
	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return Metadata{}, fmt.Errorf("%w: ffprobe JSON parse error: %v", ErrSourceUnreadable, err)
	}
	if len(res.Streams) == 0 {
		return Metadata{}, fmt.Errorf("%w: no video stream", ErrSourceUnreadable)
	}
	s := res.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return Metadata{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrSourceUnreadable, s.Width, s.Height)
	}

	fps := ParseFrameRate(s.AvgFrameRate)
	if fps == 0 {
		fps = ParseFrameRate(s.RFrameRate)
	}
	total, _ := strconv.Atoi(s.NbFrames)
	return Metadata{Width: s.Width, Height: s.Height, FPS: fps, TotalFrames: total}, nil
}

// ParseFrameRate converts ffprobe rates such as "30000/1001" or "25" to a float.
// It returns 0 for anything it cannot interpret.
func ParseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(rate), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
