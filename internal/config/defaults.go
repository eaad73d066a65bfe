package config

import "time"

// Default values. They mirror the long-standing behavior of the smoke test.
const (
	DefaultFarmURL        = "https://farm.dfinity.systems"
	DefaultGroupPrefix    = "smoke_test"
	DefaultGroupTTL       = 500 * time.Second
	DefaultVMAllocation   = "distributeAcrossDcs"
	DefaultVMNamePrefix   = "universal-vm-"
	DefaultImageSHA256    = "f1880ad66ead02031264cb6da004f07468b0e6f07ba22bf44c42239eb6819fa5"
	DefaultImageBuilder   = "../create-universal-vm-config-image.sh"
	DefaultWebImage       = "registry.gitlab.com/dfinity-lab/open/public-docker-registry/nginx"
	DefaultArtifactPrefix = "smoke_test_artifacts_"
	DefaultAlertsFile     = "slack_alerts.json"
	DefaultAlertChannel   = "#pfops-test-alerts"
	DefaultNATSSubject    = "infrasmoke.alerts"
	DefaultSourceURL      = "https://gitlab.com/dfinity-lab/public/ic/-/blob"
	DefaultStderrLimit    = 1024 * 1024
)

// DefaultImageURL is the universal VM image booted on every machine.
const DefaultImageURL = "http://download.proxy-global.dfinity.network:8080/farm/universal-vm/" +
	DefaultImageSHA256 + "/x86_64-linux/universal-vm.img.zst"

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Farm: FarmConfig{
			BaseURL:      DefaultFarmURL,
			GroupPrefix:  DefaultGroupPrefix,
			GroupTTL:     DefaultGroupTTL,
			VMAllocation: DefaultVMAllocation,
		},
		VM: VMConfig{
			NamePrefix:  DefaultVMNamePrefix,
			Type:        "production",
			VCPUs:       2,
			MemoryKiB:   25165824,
			ImageURL:    DefaultImageURL,
			ImageSHA256: DefaultImageSHA256,
			HasIPv4:     true,
		},
		Image: ImageConfig{
			Builder:  DefaultImageBuilder,
			WebImage: DefaultWebImage,
		},
		SSH: SSHConfig{
			User:    "admin",
			KeyType: "ed25519",
			Port:    22,
		},
		Probe: ProbeConfig{
			Port:         80,
			PayloadPath:  "/random",
			ManifestPath: "/SHA256SUMS",
			StderrLimit:  DefaultStderrLimit,
		},
		Timeouts: DefaultTimeouts(),
		Artifacts: ArtifactsConfig{
			Prefix: DefaultArtifactPrefix,
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Alerts: AlertsConfig{
			Channels: []string{DefaultAlertChannel},
			FileName: DefaultAlertsFile,
			NATS: NATSConfig{
				Subject: DefaultNATSSubject,
			},
		},
		CI: CIConfig{
			CommitSHA: "master",
			SourceURL: DefaultSourceURL,
		},
	}
}
