package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		want    []string
		wantErr bool
	}{
		{
			name:  "distinct names",
			files: []string{"a/README.md", "b/guide.md"},
			want:  []string{filepath.Join("out", "README.md"), filepath.Join("out", "guide.md")},
		},
		{
			name:    "same base name in different directories",
			files:   []string{"a/README.md", "b/README.md"},
			wantErr: true,
		},
		{
			name:    "same file twice",
			files:   []string{"doc.md", "doc.md"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPaths("out", tt.files)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.files[1])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_RejectsCollidingOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cmd := rootCmd()
	cmd.SetArgs([]string{"reformat", "--provider", "echo", "-o", out, "a/README.md", "b/README.md"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "would both be written")
	assert.NoDirExists(t, out, "nothing is written when outputs collide")
}
