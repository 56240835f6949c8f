package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output         string `yaml:"output"`
	ImageWorkers   int    `yaml:"image_workers"`
	ChapterWorkers int    `yaml:"chapter_workers"`
	KeepFolders    bool   `yaml:"keep_folders"`
	Debug          bool   `yaml:"debug"`
	SkipBroken     bool   `yaml:"skip_broken"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	// Requests per Period seconds sent to the site.
	Requests int `yaml:"requests"`
	Period   int `yaml:"period"`

	LibraryPath string `yaml:"library_path"`
}

type Options struct {
	IgnoreConfig     bool
	Debug            bool
	Output           string
	ImageWorkers     int
	ChapterWorkers   int
	KeepFolders      bool
	SkipBroken       bool
	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
	Requests         int
	Period           int
	LibraryPath      string
}

func DefaultConfig() *Config {
	return &Config{
		Output:           ".",
		ImageWorkers:     5,
		ChapterWorkers:   2,
		KeepFolders:      false,
		Debug:            false,
		SkipBroken:       false,
		Cookie:           "",
		CookieFile:       "",
		UserAgent:        "",
		CloudflareBypass: false,
		Requests:         5,
		Period:           5,
		LibraryPath:      DefaultLibraryPath(),
	}
}

func DefaultLibraryPath() string {
	return filepath.Join(ConfigRoot(), "library.db")
}

// Get exposes the settings the source reads at runtime.
func (c *Config) Get(key string) (any, bool) {
	switch key {
	case "requests":
		return c.Requests, c.Requests != 0
	case "period":
		return c.Period, c.Period != 0
	}

	return nil, false
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `yandanshe config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.KeepFolders {
		c.KeepFolders = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.Requests != 0 {
		c.Requests = o.Requests
	}
	if o.Period != 0 {
		c.Period = o.Period
	}
	if o.LibraryPath != "" {
		c.LibraryPath = o.LibraryPath
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.ImageWorkers == 0 {
		c.ImageWorkers = 5
	}
	if c.ChapterWorkers == 0 {
		c.ChapterWorkers = 2
	}
	if c.LibraryPath == "" {
		c.LibraryPath = DefaultLibraryPath()
	}
}

func (c *Config) Print() {
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	fmt.Printf(" -image_workers: %d\n", c.ImageWorkers)
	fmt.Printf(" -chapter_workers: %d\n", c.ChapterWorkers)
	if c.KeepFolders {
		fmt.Printf(" -keep_folders: %t\n", c.KeepFolders)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.SkipBroken {
		fmt.Printf(" -skip_broken: %t\n", c.SkipBroken)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.Requests != 0 {
		fmt.Printf(" -requests: %d\n", c.Requests)
	}
	if c.Period != 0 {
		fmt.Printf(" -period: %d\n", c.Period)
	}
	fmt.Printf(" -library_path: %s\n", c.LibraryPath)
}
