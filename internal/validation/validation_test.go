package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"fjacquet/gnucash2beancount/internal/validation"
)

func TestIsValidInputFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "gnucash.csv")
	assert.NoError(t, os.WriteFile(testFile, []byte("Datum\n"), 0600))

	tests := []struct {
		name        string
		path        string
		expectError bool
		errContains string
	}{
		{
			name: "existing file",
			path: testFile,
		},
		{
			name:        "directory",
			path:        tmpDir,
			expectError: true,
			errContains: "is not a regular file",
		},
		{
			name:        "missing file",
			path:        filepath.Join(tmpDir, "missing.csv"),
			expectError: true,
			errContains: "file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidInputFile(tt.path)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidOutputPath(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "books.beancount")
	assert.NoError(t, os.WriteFile(existing, []byte(""), 0600))

	tests := []struct {
		name        string
		path        string
		expectError bool
		errContains string
	}{
		{
			name: "new file in existing directory",
			path: filepath.Join(tmpDir, "new.beancount"),
		},
		{
			name: "existing file is replaced",
			path: existing,
		},
		{
			name:        "directory",
			path:        tmpDir,
			expectError: true,
			errContains: "is a directory",
		},
		{
			name: "missing directory",
			path: filepath.Join(tmpDir, "missing", "books.beancount"),
		},
		{
			name:        "parent is a file",
			path:        filepath.Join(existing, "books.beancount"),
			expectError: true,
			errContains: "is not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidOutputPath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
