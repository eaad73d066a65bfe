package image

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/util/keygen"
)

// Directory layout inside the artifacts directory.
const (
	ConfigDirName      = "config_dir"
	SSHDirName         = "ssh_keys"
	AuthorizedKeysName = "ssh-authorized-keys"
)

// GenerateCredentials creates the config and key directories, generates a key pair,
// stores the private key under ssh_keys/<user> and the public key under
// config_dir/ssh-authorized-keys/<user>, where the image builder picks it up.
// The directories must not exist yet.
func (p *Provisioner) GenerateCredentials(ctx *provisioning.Context) error {
	cfg := ctx.Config.SSH
	configDir := filepath.Join(ctx.State.ArtifactsDir, ConfigDirName)
	sshDir := filepath.Join(ctx.State.ArtifactsDir, SSHDirName)
	authDir := filepath.Join(configDir, AuthorizedKeysName)

	for _, dir := range []struct {
		path string
		perm os.FileMode
	}{
		{configDir, 0o755},
		{sshDir, 0o700},
		{authDir, 0o755},
	} {
		if err := os.Mkdir(dir.path, dir.perm); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	keyPair, err := keygen.Generate(cfg.KeyType, cfg.RSABits)
	if err != nil {
		return &provisioning.ExternalToolError{Tool: "ssh key generation", ExitCode: -1, Err: err}
	}

	privateKeyPath := filepath.Join(sshDir, cfg.User)
	if err := keyPair.WritePrivateKey(privateKeyPath); err != nil {
		return err
	}
	if err := keyPair.WritePublicKey(filepath.Join(authDir, cfg.User)); err != nil {
		return err
	}

	ctx.State.ConfigDir = configDir
	ctx.State.SSHDir = sshDir
	ctx.State.PrivateKeyPath = privateKeyPath
	ctx.State.PrivateKey = keyPair.PrivateKey

	ctx.Observer.Debugf("Generated %s key pair %s", keyTypeName(cfg.KeyType), privateKeyPath)
	return nil
}

func keyTypeName(t string) string {
	if t == "" {
		return keygen.TypeED25519
	}
	return t
}
