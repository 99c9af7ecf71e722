package theme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/adapters/storage"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

func TestNewStore_Hydration(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		expected Mode
	}{
		{"Missing", "", ModeLight},
		{"Light", "light", ModeLight},
		{"Dark", "dark", ModeDark},
		{"Unknown", "sepia", ModeLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := storage.NewMemoryStorage()
			if tt.stored != "" {
				require.NoError(t, mem.Set(ctx, ports.KeyThemeMode, tt.stored))
			}

			store, err := NewStore(ctx, StoreParams{Storage: mem})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, store.Mode())
		})
	}
}

func TestStore_Toggle(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store, err := NewStore(ctx, StoreParams{Storage: mem})
	require.NoError(t, err)

	mode, err := store.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeDark, mode)
	assert.Equal(t, "#121212", store.Palette().Paper)

	raw, err := mem.Get(ctx, ports.KeyThemeMode)
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)

	mode, err = store.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeLight, mode)

	reloaded, err := NewStore(ctx, StoreParams{Storage: mem})
	require.NoError(t, err)
	assert.Equal(t, ModeLight, reloaded.Mode())
}

func TestStore_Set(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, StoreParams{Storage: storage.NewMemoryStorage()})
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, ModeDark))
	assert.Equal(t, ModeDark, store.Mode())

	err = store.Set(ctx, Mode("neon"))
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, ModeDark, store.Mode())
}

func TestPaletteFor(t *testing.T) {
	light := PaletteFor(ModeLight)
	assert.Equal(t, "#00E0FF", light.Primary.Main)
	assert.Equal(t, "#F0F4FF", light.Background)

	dark := PaletteFor(ModeDark)
	assert.Equal(t, "#90caf9", dark.Primary.Main)
	assert.Equal(t, "#000000", dark.Background)
	assert.Equal(t, "#333333", dark.Divider)

	assert.Equal(t, light, PaletteFor(Mode("other")))
}
