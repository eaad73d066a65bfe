package image

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/infrasmoke/internal/provisioning"
)

// ImageFileName is the builder output inside the config directory.
const ImageFileName = "image_output"

// Builder runs the external config image builder.
type Builder struct {
	path   string
	logger logr.Logger
}

// NewBuilder creates a Builder for the executable at path.
func NewBuilder(path string, logger logr.Logger) *Builder {
	return &Builder{path: path, logger: logger}
}

// Build runs `<builder> --input <inputDir> --output <outputFile>`.
// A non-zero exit, or a run that leaves no output file, is an ExternalToolError.
func (b *Builder) Build(ctx context.Context, inputDir, outputFile string) error {
	// #nosec G204 - the builder path comes from trusted configuration
	cmd := exec.CommandContext(ctx, b.path, "--input", inputDir, "--output", outputFile)
	output, err := cmd.CombinedOutput()
	for _, line := range strings.Split(strings.TrimRight(string(output), "\n"), "\n") {
		if line != "" {
			b.logger.V(1).Info(line)
		}
	}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &provisioning.ExternalToolError{
			Tool:     fmt.Sprintf("create image script %s", b.path),
			ExitCode: code,
			Err:      err,
		}
	}

	if _, err := os.Stat(outputFile); err != nil {
		return &provisioning.ExternalToolError{
			Tool:     fmt.Sprintf("create image script %s", b.path),
			ExitCode: -1,
			Err:      fmt.Errorf("no image produced: %w", err),
		}
	}
	return nil
}

// BuildImage writes the activate script into the config directory and builds
// the config image from it.
func (p *Provisioner) BuildImage(ctx *provisioning.Context) error {
	if ctx.State.ConfigDir == "" {
		return fmt.Errorf("config directory not prepared")
	}

	probe := ctx.Config.Probe
	script := ActivateScript(ctx.Config.Image.WebImage, probe.Port, probe.PayloadPath, probe.ManifestPath)
	if _, err := WriteActivateScript(ctx.State.ConfigDir, script); err != nil {
		return err
	}

	imagePath := filepath.Join(ctx.State.ConfigDir, ImageFileName)
	if err := p.builder.Build(ctx, ctx.State.ConfigDir, imagePath); err != nil {
		return err
	}

	ctx.State.ImagePath = imagePath
	ctx.Observer.Debugf("Config image written to %s", imagePath)
	return nil
}
