//go:build headless

package graphics

// EbitengineBackend is a placeholder in headless builds
type EbitengineBackend struct{}

// NewEbitengineBackend creates a stub backend for headless builds
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

func (b *EbitengineBackend) Initialize(config Config) error {
	return ErrUnavailable
}

func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	return nil, ErrUnavailable
}

func (b *EbitengineBackend) Cleanup() error { return nil }
func (b *EbitengineBackend) IsHeadless() bool { return true }
func (b *EbitengineBackend) GetName() string { return "Ebitengine-Stub" }
