package handler

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPipelineError(t *testing.T) {
	r := httptest.NewRequest("POST", "/analyze", nil)

	tests := []struct {
		name  string
		err   error
		known bool
		want  string
	}{
		{
			name:  "decode failure",
			err:   fmt.Errorf("normalize a.wav: %w: bad header", domain.ErrDecode),
			known: true,
			want:  "Could not read the audio file",
		},
		{
			name:  "encode failure",
			err:   fmt.Errorf("normalize a.wav: %w: write samples: %w", domain.ErrEncode, errors.New("short write")),
			known: true,
			want:  "Could not prepare the recording",
		},
		{
			name:  "invalid input",
			err:   fmt.Errorf("%w: file is empty", domain.ErrInvalidInput),
			known: true,
			want:  "File is empty",
		},
		{
			name:  "unexpected",
			err:   errors.New("boom"),
			known: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := pipelineError(r, tt.err)
			assert.Equal(t, tt.known, ok)
			if tt.known {
				assert.Contains(t, msg, tt.want)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}
