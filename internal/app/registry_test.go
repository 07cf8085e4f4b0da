package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sorens/notary/internal/domain"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	require.Zero(t, r.Len())

	ctx, cancel := context.WithCancel(context.Background())
	info := domain.SessionInfo{ID: "s1", Remote: "1.2.3.4:5", Format: domain.FormatJSON, StartedAt: time.Now()}
	r.Bind(info, cancel)
	require.Equal(t, 1, r.Len())
	require.Equal(t, info.ID, r.Snapshot()[0].ID)

	require.True(t, r.Cancel("s1"))
	require.Error(t, ctx.Err())
	require.False(t, r.Cancel("missing"))

	r.Unbind("s1")
	require.Zero(t, r.Len())
}

func TestRegistryCancelAll(t *testing.T) {
	r := NewRegistry()
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	r.Bind(domain.SessionInfo{ID: "a"}, cancel1)
	r.Bind(domain.SessionInfo{ID: "b"}, cancel2)

	r.CancelAll()
	require.Error(t, ctx1.Err())
	require.Error(t, ctx2.Err())
}

func TestCapPolicy(t *testing.T) {
	p := CapPolicy{Max: 2}
	require.NoError(t, p.Admit(0))
	require.NoError(t, p.Admit(1))
	require.ErrorIs(t, p.Admit(2), ErrAtCapacity)

	unlimited := CapPolicy{}
	require.NoError(t, unlimited.Admit(10000))
}
