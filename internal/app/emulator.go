package app

import (
	"sync"
	"time"

	"kiwi/internal/console"
)

// Emulator drives the console one step per host update and keeps timing
// statistics
type Emulator struct {
	console *console.Console

	targetFrameTime time.Duration
	frameTimes      *CircularTimingBuffer

	isRunning     bool
	stepCount     uint64
	lastFrameTime time.Duration
	lastResetTime time.Time
}

// EmulatorStats is a snapshot of the emulator's timing
type EmulatorStats struct {
	StepCount        uint64
	FrameCount       uint64
	ActualFrameTime  time.Duration
	AverageFrameTime time.Duration
	FrameJitter      time.Duration
	TargetFrameTime  time.Duration
	EmulationSpeed   float64
	Uptime           time.Duration
	IsRunning        bool
}

// NewEmulator creates a new emulator for c, paced at frameRate frames per
// second
func NewEmulator(c *console.Console, frameRate float64) *Emulator {
	if frameRate <= 0 {
		frameRate = 60.0988
	}
	e := &Emulator{
		console:         c,
		targetFrameTime: time.Duration(float64(time.Second) / frameRate),
		frameTimes:      NewCircularTimingBuffer(180), // 3 seconds at 60 FPS
	}
	e.Reset()
	return e
}

// Reset clears the timing statistics
func (e *Emulator) Reset() {
	e.stepCount = 0
	e.lastFrameTime = 0
	e.lastResetTime = time.Now()
	e.frameTimes.Reset()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// IsRunning reports whether Update steps the console
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// Update performs one console step if the emulator is running
func (e *Emulator) Update() {
	if !e.isRunning {
		return
	}
	e.step()
}

// StepFrame performs one console step regardless of the running state.
// Used to single-step while paused.
func (e *Emulator) StepFrame() {
	e.step()
}

func (e *Emulator) step() {
	start := time.Now()
	e.console.Step()
	e.lastFrameTime = time.Since(start)
	e.frameTimes.Add(e.lastFrameTime)
	e.stepCount++
}

// GetStepCount returns the number of steps since the last reset
func (e *Emulator) GetStepCount() uint64 {
	return e.stepCount
}

// GetTargetFrameTime returns the wall time one frame should take
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetEmulationSpeed returns how many times faster than real time the last
// frames were emulated
func (e *Emulator) GetEmulationSpeed() float64 {
	avg := e.frameTimes.GetAverage()
	if avg == 0 {
		return 0
	}
	return float64(e.targetFrameTime) / float64(avg)
}

// GetStats returns the current timing statistics
func (e *Emulator) GetStats() EmulatorStats {
	return EmulatorStats{
		StepCount:        e.stepCount,
		FrameCount:       e.console.FrameCount(),
		ActualFrameTime:  e.lastFrameTime,
		AverageFrameTime: e.frameTimes.GetAverage(),
		FrameJitter:      e.frameTimes.GetVariance(),
		TargetFrameTime:  e.targetFrameTime,
		EmulationSpeed:   e.GetEmulationSpeed(),
		Uptime:           time.Since(e.lastResetTime),
		IsRunning:        e.isRunning,
	}
}

// CircularTimingBuffer stores the most recent timing measurements
type CircularTimingBuffer struct {
	mu       sync.RWMutex
	buffer   []time.Duration
	capacity int
	index    int
	size     int
}

// NewCircularTimingBuffer creates a new circular timing buffer
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		buffer:   make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add adds a timing measurement to the buffer
func (ctb *CircularTimingBuffer) Add(duration time.Duration) {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()

	ctb.buffer[ctb.index] = duration
	ctb.index = (ctb.index + 1) % ctb.capacity

	if ctb.size < ctb.capacity {
		ctb.size++
	}
}

// Len returns the number of stored measurements
func (ctb *CircularTimingBuffer) Len() int {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()
	return ctb.size
}

// GetAverage calculates the average of stored durations
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()
	return ctb.average()
}

func (ctb *CircularTimingBuffer) average() time.Duration {
	if ctb.size == 0 {
		return 0
	}

	var total time.Duration
	for i := 0; i < ctb.size; i++ {
		total += ctb.buffer[i]
	}
	return total / time.Duration(ctb.size)
}

// GetVariance returns the mean absolute deviation of stored durations
func (ctb *CircularTimingBuffer) GetVariance() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()

	if ctb.size < 2 {
		return 0
	}

	avg := ctb.average()
	var total time.Duration
	for i := 0; i < ctb.size; i++ {
		diff := ctb.buffer[i] - avg
		if diff < 0 {
			diff = -diff
		}
		total += diff
	}
	return total / time.Duration(ctb.size)
}

// Reset clears the buffer
func (ctb *CircularTimingBuffer) Reset() {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()
	ctb.index = 0
	ctb.size = 0
}
