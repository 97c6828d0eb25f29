package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file:// URI is converted to local path",
			uri:  "file:///srv/datasets/incoming",
			want: "/srv/datasets/incoming",
		},
		{
			name: "file:// URI with spaces",
			uri:  "file:///srv/my datasets",
			want: "/srv/my datasets",
		},
		{
			name: "bare path passes through unchanged",
			uri:  "/srv/datasets",
			want: "/srv/datasets",
		},
		{
			name: "relative path passes through unchanged",
			uri:  "incoming",
			want: "incoming",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.uri))
		})
	}
}
