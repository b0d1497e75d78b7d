package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/hotspot-cli/internal/hotspot"
)

// --- Source Mock ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context) ([]hotspot.RawRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hotspot.RawRecord), args.Error(1)
}

// --- Renderer Mock ---

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, hs []hotspot.Hotspot) error {
	args := m.Called(ctx, hs)
	return args.Error(0)
}

func (m *mockRenderer) OutputPath() string {
	args := m.Called()
	return args.String(0)
}

// --- Opener Mock ---

type mockOpener struct {
	mock.Mock
}

func (m *mockOpener) Open(path string) error {
	args := m.Called(path)
	return args.Error(0)
}
