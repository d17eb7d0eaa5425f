//go:build !headless

package graphics

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestEbitengineBackend_Initialize(t *testing.T) {
	backend := NewEbitengineBackend()
	if err := backend.Initialize(Config{WindowTitle: "test", WindowWidth: 512, WindowHeight: 480}); err != nil {
		t.Fatalf("Expected successful initialization, got %v", err)
	}
	if err := backend.Initialize(Config{}); err == nil {
		t.Error("Expected error on double initialization")
	}
	if backend.GetName() != "Ebitengine" || backend.IsHeadless() {
		t.Error("Unexpected backend properties")
	}
	if err := backend.Cleanup(); err != nil {
		t.Error(err)
	}
}

func TestEbitengineBackend_CreateWindow_Errors(t *testing.T) {
	backend := NewEbitengineBackend()
	if _, err := backend.CreateWindow("test", 512, 480); err == nil {
		t.Error("Expected error before initialization")
	}

	backend = NewEbitengineBackend()
	backend.Initialize(Config{Headless: true})
	if _, err := backend.CreateWindow("test", 512, 480); err == nil {
		t.Error("Expected error in headless mode")
	}
}

func TestResolveKeyBindings(t *testing.T) {
	bindings, err := resolveKeyBindings(map[string]uint8{
		"KeyJ":       0,
		"K":          1,
		"Enter":      3,
		"ArrowUp":    4,
		"ShiftRight": 11,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[ebiten.Key]uint8{
		ebiten.KeyJ:          0,
		ebiten.KeyK:          1,
		ebiten.KeyEnter:      3,
		ebiten.KeyArrowUp:    4,
		ebiten.KeyShiftRight: 11,
	}
	for k, code := range want {
		if got, ok := bindings[k]; !ok || got != code {
			t.Errorf("Key %v: expected code %d, got %d (%v)", k, code, got, ok)
		}
	}

	if _, err := resolveKeyBindings(map[string]uint8{"NoSuchKey": 0}); err == nil {
		t.Error("Expected error for unknown key name")
	}
}

func TestEbitengineWindow_RenderFrame_NilGame(t *testing.T) {
	w := &EbitengineWindow{}
	if err := w.RenderFrame(make([]uint32, ScreenWidth*ScreenHeight)); err == nil {
		t.Error("Expected error without a game")
	}
	if err := w.Run(nil); err == nil {
		t.Error("Expected error running without a game")
	}
}

func TestEbitengineWindow_PollEventsDrains(t *testing.T) {
	w := &EbitengineWindow{events: []InputEvent{{Type: InputEventTypeButton, Code: 3, Pressed: true}}}
	if events := w.PollEvents(); len(events) != 1 || events[0].Code != 3 {
		t.Fatalf("Unexpected events %v", events)
	}
	if len(w.PollEvents()) != 0 {
		t.Error("Expected events drained")
	}
}
