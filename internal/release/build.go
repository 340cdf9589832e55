package release

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/process"
	"ngdev.dev/ngdev/internal/runtime"
)

// BuiltPackage is a package directory produced by the build command
type BuiltPackage struct {
	Name       string `json:"name"`
	OutputPath string `json:"outputPath"`
}

// BuiltPackageWithInfo is a built package with its content hash and configuration.
// The hash is computed once, right after the build.
type BuiltPackageWithInfo struct {
	BuiltPackage
	ContentHash string            `json:"contentHash"`
	NpmInfo     config.NpmPackage `json:"npmInfo"`
}

// ErrPackageChanged is returned when a built package no longer matches its hash
var ErrPackageChanged = errors.New("built package changed after the build")

// BuildPackages runs the configured build command and collects every configured
// npm package from the dist directory.
func BuildPackages(ctx *runtime.Context) ([]BuiltPackageWithInfo, error) {
	cfg := ctx.Config.Release
	root := repoRoot(ctx)
	if cfg.BuildCommand == "" {
		return nil, errors.New("no release.buildCommand configured")
	}

	ctx.Splog.Info("Building release packages...")
	output, err := process.NewRunner("sh", root).Run(ctx.Context, "-c", cfg.BuildCommand)
	if err != nil {
		return nil, fmt.Errorf("release build failed: %w", err)
	}
	if output != "" {
		ctx.Splog.Debug("%s", output)
	}

	built := make([]BuiltPackageWithInfo, 0, len(cfg.NpmPackages))
	for _, pkg := range cfg.NpmPackages {
		dir := filepath.Join(root, cfg.DistDir, pkg.Name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("build did not produce %s (expected %s)", pkg.Name, dir)
		}
		hash, err := HashDirectory(dir)
		if err != nil {
			return nil, err
		}
		built = append(built, BuiltPackageWithInfo{
			BuiltPackage: BuiltPackage{Name: pkg.Name, OutputPath: dir},
			ContentHash:  hash,
			NpmInfo:      pkg,
		})
	}
	ctx.Splog.Success("Built %d package(s)", len(built))
	return built, nil
}

// VerifyBuiltPackage checks that a package directory still hashes to the value
// recorded at build time.
func VerifyBuiltPackage(pkg BuiltPackageWithInfo) error {
	hash, err := HashDirectory(pkg.OutputPath)
	if err != nil {
		return err
	}
	if hash != pkg.ContentHash {
		return fmt.Errorf("%w: %s", ErrPackageChanged, pkg.Name)
	}
	return nil
}

// HashDirectory returns the sha256 over every file's relative path and contents,
// in path order.
func HashDirectory(dir string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}
	sort.Strings(files)

	h := sha256.New()
	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, filepath.ToSlash(rel))
		h.Write([]byte{0})
		if err := hashFile(h, path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}

func repoRoot(ctx *runtime.Context) string {
	if ctx.RepoRoot != "" {
		return ctx.RepoRoot
	}
	if ctx.Git != nil {
		return ctx.Git.RepoRoot()
	}
	return "."
}
