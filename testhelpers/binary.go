package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	sharedBinaryPath string
	binaryOnce       sync.Once
	binaryErr        error
)

// GetSharedBinaryPath returns the ng-dev binary built for this test run,
// building it lazily when TestMain did not.
func GetSharedBinaryPath() string {
	binaryOnce.Do(func() {
		if sharedBinaryPath != "" {
			return
		}
		path, _, err := buildBinary()
		if err != nil {
			binaryErr = err
			return
		}
		sharedBinaryPath = path
	})
	return sharedBinaryPath
}

// GetBinaryError returns any error that occurred during binary building.
func GetBinaryError() error {
	return binaryErr
}

// BinaryPath returns the ng-dev binary or fails the test
func BinaryPath(t *testing.T) string {
	t.Helper()
	path := GetSharedBinaryPath()
	if path == "" {
		t.Fatalf("ng-dev binary not built: %v", GetBinaryError())
	}
	return path
}

// buildBinary builds ./cmd/ng-dev into a temp directory
func buildBinary() (string, func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	moduleRoot := findModuleRoot(wd)
	if moduleRoot == "" {
		return "", nil, fmt.Errorf("could not find module root (go.mod) starting from %s", wd)
	}

	tmpDir, err := os.MkdirTemp("", "ng-dev-test-binary-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	binaryPath := filepath.Join(tmpDir, "ng-dev")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/ng-dev")
	cmd.Dir = moduleRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to build: %s: %w", string(output), err)
	}
	return binaryPath, cleanup, nil
}

// findModuleRoot walks up from startDir to the directory holding go.mod
func findModuleRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// TestMain builds the ng-dev binary once for packages that run it
func TestMain(m *testing.M) {
	binaryPath, cleanup, err := buildBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build ng-dev binary: %v\n", err)
		os.Exit(1)
	}
	sharedBinaryPath = binaryPath

	code := m.Run()
	cleanup()
	os.Exit(code)
}
