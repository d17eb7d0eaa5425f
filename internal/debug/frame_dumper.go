// Package debug holds developer tools: text dumps of rendered frames and
// object graphs of machine state.
package debug

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kiwi/internal/graphics"
)

// PixelFilter selects the pixels written to a dump
type PixelFilter func(x, y int, rgb uint32) bool

// FrameDumper writes frame buffers as text for diffing between runs
type FrameDumper struct {
	outputDir    string
	dumpCount    int
	maxDumps     int
	dumpInterval uint64 // dump every N frames
	pixelFilter  PixelFilter
}

// NewFrameDumper creates a frame dumper writing into outputDir
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// SetMaxDumps sets the maximum number of frames to dump
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval uint64) {
	if interval == 0 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// SetPixelFilter restricts dumps to the pixels accepted by filter
func (fd *FrameDumper) SetPixelFilter(filter PixelFilter) {
	fd.pixelFilter = filter
}

// Dumped returns the number of files written
func (fd *FrameDumper) Dumped() int {
	return fd.dumpCount
}

// Dump writes frameBuffer as frame_NNNNNN.txt when frameNum is due. It
// returns the path written, or "" when the frame was skipped.
func (fd *FrameDumper) Dump(frameBuffer []uint32, frameNum uint64) (string, error) {
	if frameNum%fd.dumpInterval != 0 || fd.dumpCount >= fd.maxDumps {
		return "", nil
	}

	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}
	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.txt", frameNum))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create frame dump file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fd.write(w, frameBuffer, frameNum)
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write frame dump: %w", err)
	}

	fd.dumpCount++
	return path, nil
}

func (fd *FrameDumper) write(w *bufio.Writer, frameBuffer []uint32, frameNum uint64) {
	fmt.Fprintf(w, "Frame %d %dx%d\n\n", frameNum, graphics.ScreenWidth, graphics.ScreenHeight)

	freq := make(map[uint32]int)
	counted := 0
	for y := 0; y < graphics.ScreenHeight; y++ {
		fmt.Fprintf(w, "%03d:", y)
		for x := 0; x < graphics.ScreenWidth; x++ {
			i := y*graphics.ScreenWidth + x
			if i >= len(frameBuffer) {
				break
			}
			pixel := frameBuffer[i] & 0xFFFFFF
			if fd.pixelFilter != nil && !fd.pixelFilter(x, y, pixel) {
				fmt.Fprint(w, " ------")
				continue
			}
			fmt.Fprintf(w, " %06X", pixel)
			freq[pixel]++
			counted++
		}
		fmt.Fprintln(w)
	}

	colors := make([]uint32, 0, len(freq))
	for c := range freq {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if freq[colors[i]] != freq[colors[j]] {
			return freq[colors[i]] > freq[colors[j]]
		}
		return colors[i] < colors[j]
	})

	fmt.Fprintf(w, "\nColor    | Count | Percentage\n")
	for _, c := range colors {
		fmt.Fprintf(w, "#%06X  | %5d | %6.2f%%\n", c, freq[c], float64(freq[c])/float64(counted)*100)
	}
}

// RegionFilter accepts pixels inside the rectangle (x1,y1)-(x2,y2), inclusive
func RegionFilter(x1, y1, x2, y2 int) PixelFilter {
	return func(x, y int, rgb uint32) bool {
		return x >= x1 && x <= x2 && y >= y1 && y <= y2
	}
}

// ColorFilter accepts pixels of the given colors
func ColorFilter(colors ...uint32) PixelFilter {
	return func(x, y int, rgb uint32) bool {
		for _, c := range colors {
			if rgb == c {
				return true
			}
		}
		return false
	}
}
