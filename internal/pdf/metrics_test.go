package pdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestCoreFontMeasurer(t *testing.T) {
	m := CoreFontMeasurer{}
	assert.True(t, m.Knows(DefaultLatinFont))
	assert.False(t, m.Knows("NotoSansSC-Regular"))

	// Helvetica AFM widths: H 722, e 556, l 222, o 556
	w, err := m.Measure("Hello", DefaultLatinFont, 12)
	require.NoError(t, err)
	assert.InDelta(t, 27.336, w, 1e-6)

	w2, err := m.Measure("Hello", DefaultLatinFont, 24)
	require.NoError(t, err)
	assert.InDelta(t, 2*w, w2, 1e-6)

	_, err = m.Measure("你好", DefaultLatinFont, 12)
	assert.Equal(t, ErrMeasureFailed, ErrorCode(err))

	_, err = m.Measure("x", "NotoSansSC-Regular", 12)
	assert.Equal(t, ErrMeasureFailed, ErrorCode(err))
}

func TestTrueTypeMeasurer(t *testing.T) {
	m := NewTrueTypeMeasurer()
	id, err := m.Load(goregular.TTF)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.True(t, m.Knows(id))

	w10, err := m.Measure("Hola", id, 10)
	require.NoError(t, err)
	assert.Greater(t, w10, 0.0)

	w20, err := m.Measure("Hola", id, 20)
	require.NoError(t, err)
	assert.InDelta(t, 2*w10, w20, 1e-6)

	longer, err := m.Measure("Hola mundo", id, 10)
	require.NoError(t, err)
	assert.Greater(t, longer, w10)

	// Go Regular has no CJK glyphs
	_, err = m.Measure("你", id, 10)
	assert.Equal(t, ErrMeasureFailed, ErrorCode(err))

	_, err = m.Measure("x", "Missing", 10)
	assert.Equal(t, ErrMeasureFailed, ErrorCode(err))
}

func TestTrueTypeMeasurer_LoadErrors(t *testing.T) {
	m := NewTrueTypeMeasurer()
	_, err := m.Load([]byte("not a font"))
	assert.Error(t, err)
	_, err = m.LoadFile("/no/such/font.ttf")
	assert.Error(t, err)
}

func TestMeasurerChain(t *testing.T) {
	tt := NewTrueTypeMeasurer()
	id, err := tt.Load(goregular.TTF)
	require.NoError(t, err)
	chain := NewDefaultMeasurer(tt, DefaultLatinFont)

	assert.True(t, chain.Knows(id))
	assert.True(t, chain.Knows(DefaultLatinFont))
	assert.False(t, chain.Knows("Unknown"))

	direct, err := tt.Measure("abc", id, 10)
	require.NoError(t, err)
	viaChain, err := chain.Measure("abc", id, 10)
	require.NoError(t, err)
	assert.Equal(t, direct, viaChain)

	// an unknown font is measured with the fallback
	helv, err := CoreFontMeasurer{}.Measure("abc", DefaultLatinFont, 10)
	require.NoError(t, err)
	fallback, err := chain.Measure("abc", "Unknown", 10)
	require.NoError(t, err)
	assert.Equal(t, helv, fallback)

	noFallback := &MeasurerChain{Measurers: []Measurer{CoreFontMeasurer{}}}
	_, err = noFallback.Measure("abc", "Unknown", 10)
	assert.Equal(t, ErrMeasureFailed, ErrorCode(err))
}

func TestMeasurerChain_ErrorsAreNotMaskedByFallback(t *testing.T) {
	failing := measureFunc(func(string, string, float64) (float64, error) {
		return 0, errors.New("broken metrics")
	})
	chain := &MeasurerChain{Measurers: []Measurer{failing}, Fallback: DefaultLatinFont}
	_, err := chain.Measure("abc", "Any", 10)
	assert.ErrorContains(t, err, "broken metrics")
}
