package image

import (
	"github.com/imamik/infrasmoke/internal/provisioning"
)

const (
	phaseCredentials = "generating ssh_keys"
	phaseBuild       = "generating VM config image file"
	phaseUpload      = "uploading image file to Farm"

	// imageField is the multipart field name Farm expects for the config image.
	imageField = "image"
)

// Provisioner handles the image-related steps of a run.
type Provisioner struct {
	builder *Builder
}

// NewProvisioner creates a new image provisioner that builds images with builder.
func NewProvisioner(builder *Builder) *Provisioner {
	return &Provisioner{builder: builder}
}

// CredentialsPhase returns the step that generates SSH credentials.
func (p *Provisioner) CredentialsPhase() provisioning.Phase {
	return provisioning.NewPhase(phaseCredentials, p.GenerateCredentials)
}

// BuildPhase returns the step that builds the config image.
func (p *Provisioner) BuildPhase() provisioning.Phase {
	return provisioning.NewPhase(phaseBuild, p.BuildImage)
}

// UploadPhase returns the step that uploads the config image.
func (p *Provisioner) UploadPhase() provisioning.Phase {
	return provisioning.NewPhase(phaseUpload, p.Upload)
}
