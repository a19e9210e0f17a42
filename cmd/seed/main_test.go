package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRun(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    string
		wantErr bool
	}{
		{name: "bundled catalog", want: "26 books parsed"},
		{name: "custom file", file: "books:\n  - id: x1\n    price: \"3\"\n  - id: x2\n    price: \"4\"\n", want: "2 books parsed"},
		{name: "invalid file", file: "books:\n  - id: x1\n  - id: x1\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"--dry-run"}
			if tt.file != "" {
				p := filepath.Join(t.TempDir(), "books.yaml")
				require.NoError(t, os.WriteFile(p, []byte(tt.file), 0o644))
				args = append(args, "--file", p)
			}

			cmd := newRootCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
