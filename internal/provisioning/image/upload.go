package image

import (
	"context"
	"fmt"

	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/provisioning"
)

// Upload sends the config image to the run's Farm group and records the file id.
func (p *Provisioner) Upload(ctx *provisioning.Context) error {
	if ctx.State.ImagePath == "" {
		return fmt.Errorf("config image not built")
	}

	provisioning.LogResourceCreating(ctx.Observer, phaseUpload, "file", ctx.State.ImagePath)
	resp, err := ctx.Farm.RetryOK(ctx, func(c context.Context) (*farm.Response, error) {
		return ctx.Farm.UploadFile(c, ctx.State.Group, imageField, ctx.State.ImagePath)
	})
	if err != nil {
		return fmt.Errorf("failed to upload image file: %w", err)
	}

	id, err := farm.ParseFileID(resp, imageField)
	if err != nil {
		return err
	}
	ctx.State.ImageID = id
	provisioning.LogResourceCreated(ctx.Observer, phaseUpload, "file", ctx.State.ImagePath, id)
	return nil
}
