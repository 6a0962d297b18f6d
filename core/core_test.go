package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteRangeOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a        ByteRange
		b        ByteRange
		expected bool
	}{
		{
			name:     "partial overlap",
			a:        NewByteRange(0, 10),
			b:        NewByteRange(5, 15),
			expected: true,
		},
		{
			name:     "touching ranges do not overlap",
			a:        NewByteRange(0, 10),
			b:        NewByteRange(10, 20),
			expected: false,
		},
		{
			name:     "containment",
			a:        NewByteRange(0, 100),
			b:        NewByteRange(50, 60),
			expected: true,
		},
		{
			name:     "disjoint",
			a:        NewByteRange(0, 5),
			b:        NewByteRange(20, 30),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a))
		})
	}
}

func TestCounterMonotonic(t *testing.T) {
	var c Counter
	for i := uint64(0); i < 100; i++ {
		assert.Equal(t, i, c.Next())
	}
}

func TestEpochMarkerNext(t *testing.T) {
	m := EpochMarker(1)
	assert.Equal(t, EpochMarker(2), m.Next())
}

func TestLanguageFromExtension(t *testing.T) {
	assert.Equal(t, LanguageRust, LanguageFromExtension("rs"))
	assert.Equal(t, LanguageUnknown, LanguageFromExtension("java"))
}

func TestKernelErrorKind(t *testing.T) {
	err := Errorf(Corruption, "snapshot.load", "bad magic %q", "XXXX")
	assert.True(t, IsKind(err, Corruption))
	assert.False(t, IsKind(err, StaleReference))
	assert.Contains(t, err.Error(), "corruption")

	wrapped := fmt.Errorf("loading snapshot: %w", err)
	assert.True(t, IsKind(wrapped, Corruption))
}
