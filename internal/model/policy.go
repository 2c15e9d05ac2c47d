package model

// NotifyPolicy is the per-subscriber notification configuration.
type NotifyPolicy struct {
	Enabled          bool              `yaml:"enabled" json:"enabled"`
	ChannelType      string            `yaml:"channel" json:"channel"`
	ThresholdMB      float64           `yaml:"threshold_mb" json:"threshold_mb"`
	TitleTemplate    string            `yaml:"title" json:"title"`
	SubtitleTemplate string            `yaml:"subtitle" json:"subtitle"`
	BodyTemplate     string            `yaml:"body" json:"body"`
	ChannelParams    map[string]string `yaml:"params" json:"params"`
}

// Message is a rendered notification ready for a channel.
type Message struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body"`
}
