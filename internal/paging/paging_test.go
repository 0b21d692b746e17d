package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"first page", New(0, 50), false},
		{"later page", New(3, 1), false},
		{"negative page", New(-1, 10), true},
		{"zero size", New(0, 0), true},
		{"max size", New(0, MaxSize), false},
		{"size above max", New(0, MaxSize+1), true},
		{"last addressable page", New(math.MaxInt32/MaxSize, MaxSize), false},
		{"offset overflow", New(math.MaxInt, 2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequest_Offset(t *testing.T) {
	assert.Equal(t, 0, New(0, 20).Offset())
	assert.Equal(t, 60, New(3, 20).Offset())
}

func TestRequest_ValidateMessage(t *testing.T) {
	err := New(0, MaxSize+1).Validate()

	assert.EqualError(t, err, "Page size must not be greater than 1000")
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 50))
	assert.Equal(t, 1, TotalPages(50, 50))
	assert.Equal(t, 2, TotalPages(51, 50))
	assert.Equal(t, 0, TotalPages(10, 0))
}
