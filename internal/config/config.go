package config

import "time"

// Config is the complete configuration of a smoke test run.
type Config struct {
	Farm      FarmConfig      `yaml:"farm"`
	VM        VMConfig        `yaml:"vm"`
	Image     ImageConfig     `yaml:"image"`
	SSH       SSHConfig       `yaml:"ssh"`
	Probe     ProbeConfig     `yaml:"probe"`
	Timeouts  Timeouts        `yaml:"timeouts"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	CI        CIConfig        `yaml:"-"`
}

// FarmConfig controls access to the Farm provisioning API.
type FarmConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	GroupPrefix string        `yaml:"groupPrefix"`
	GroupTTL    time.Duration `yaml:"groupTTL"`
	// VMAllocation is the group allocation policy sent on group creation.
	VMAllocation string `yaml:"vmAllocation"`
}

// VMConfig describes the machines requested for every zone.
type VMConfig struct {
	NamePrefix  string `yaml:"namePrefix"`
	Type        string `yaml:"type"`
	VCPUs       int    `yaml:"vcpus"`
	MemoryKiB   int64  `yaml:"memoryKiB"`
	ImageURL    string `yaml:"imageURL"`
	ImageSHA256 string `yaml:"imageSHA256"`
	HasIPv4     bool   `yaml:"hasIPv4"`
}

// ImageConfig controls the config image builder.
type ImageConfig struct {
	// Builder is the executable invoked as `<builder> --input <dir> --output <file>`.
	Builder string `yaml:"builder"`
	// WebImage is the container image serving the probe payload inside each VM.
	WebImage string `yaml:"webImage"`
}

// SSHConfig controls key generation and remote sessions.
type SSHConfig struct {
	User    string `yaml:"user"`
	KeyType string `yaml:"keyType"`
	RSABits int    `yaml:"rsaBits"`
	Port    int    `yaml:"port"`
}

// ProbeConfig controls the HTTP probes against booted machines.
type ProbeConfig struct {
	Port         int    `yaml:"port"`
	PayloadPath  string `yaml:"payloadPath"`
	ManifestPath string `yaml:"manifestPath"`
	// StderrLimit bounds the remote stderr captured per probe, in bytes.
	StderrLimit int `yaml:"stderrLimit"`
}

// ArtifactsConfig controls the per-run artifacts directory.
type ArtifactsConfig struct {
	OutputDir string   `yaml:"outputDir"`
	Prefix    string   `yaml:"prefix"`
	Keep      bool     `yaml:"keep"`
	S3        S3Config `yaml:"s3"`
}

// S3Config enables archiving the artifacts directory to object storage.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Enabled reports whether archiving is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// AlertsConfig controls failure alert routing and delivery.
type AlertsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Channels []string `yaml:"channels"`
	FileName string   `yaml:"fileName"`
	// SlackWebhookURL is read from SLACK_WEBHOOK_URL only.
	SlackWebhookURL string     `yaml:"-"`
	NATS            NATSConfig `yaml:"nats"`
}

// NATSConfig enables publishing alerts to a NATS subject.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Enabled reports whether NATS publishing is configured.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// MetricsConfig controls where run metrics are written.
type MetricsConfig struct {
	// Textfile is an optional extra path for the Prometheus textfile.
	Textfile string `yaml:"textfile"`
}

// CIConfig carries CI job metadata used in alert messages.
type CIConfig struct {
	JobURL    string
	CommitSHA string
	SourceURL string
}
