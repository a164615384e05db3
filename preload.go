package sandbridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/hostbridge/sandbridge/internal/core"
)

// wrapPreload encloses the preload source in a function wrapper so the
// script's top-level names stay out of the global scope. The wrapper
// declares three parameters but is invoked with only the first two; the
// third stays undefined so stray require() calls fail loudly instead of
// resolving against the page.
func wrapPreload(source string) string {
	return "(function(binding, preloadPath, require) {\n" + source + "\n})"
}

// loadPreload reads, optionally bundles, and wraps the preload script at
// path.
func loadPreload(path string, cfg core.Config) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading preload script: %w", err)
	}
	if max := int64(cfg.MaxPreloadSizeKB) * 1024; max > 0 && int64(len(source)) > max {
		return "", fmt.Errorf("preload script %s exceeds %d kB", path, cfg.MaxPreloadSizeKB)
	}

	src := string(source)
	if cfg.PreloadBundling && needsBundling(src) {
		src, err = bundlePreload(path)
		if err != nil {
			return "", err
		}
	}
	return wrapPreload(src), nil
}

// needsBundling checks if a script contains import statements that
// require bundling. Simple scripts without imports can skip this step.
func needsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "import{") ||
		strings.Contains(source, "import(") ||
		strings.Contains(source, "export ")
}

// bundlePreload resolves the preload's imports into a single
// self-contained script.
func bundlePreload(path string) (string, error) {
	workDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("resolving preload directory: %w", err)
	}

	opts := esbuild.BuildOptions{
		EntryPoints:   []string{path},
		AbsWorkingDir: workDir,
		Bundle:        true,
		Format:        esbuild.FormatIIFE,
		Write:         false,
		Platform:      esbuild.PlatformBrowser,
		Target:        esbuild.ES2022,
		TreeShaking:   esbuild.TreeShakingFalse,
	}

	result := esbuild.Build(opts)
	if len(result.Errors) > 0 {
		var msgs []string
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("bundling preload script: %s", strings.Join(msgs, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("bundling produced no output")
	}
	return string(result.OutputFiles[0].Contents), nil
}
