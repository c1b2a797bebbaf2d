package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int           `yaml:"port"`
	Capacity      int           `yaml:"capacity"`
	Workers       int           `yaml:"workers"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	OriginTimeout time.Duration `yaml:"originTimeout"`
	Admin         string        `yaml:"admin"`
	Journal       string        `yaml:"journal"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

// merge fills in values from the config file for the settings
// that were not given on the command line.
func (c *Config) merge(file Config, setFlags map[string]bool) {
	if !setFlags["port"] && file.Port != 0 {
		c.Port = file.Port
	}
	if !setFlags["capacity"] && file.Capacity != 0 {
		c.Capacity = file.Capacity
	}
	if !setFlags["workers"] && file.Workers != 0 {
		c.Workers = file.Workers
	}
	if !setFlags["read-timeout"] && file.ReadTimeout != 0 {
		c.ReadTimeout = file.ReadTimeout
	}
	if !setFlags["origin-timeout"] && file.OriginTimeout != 0 {
		c.OriginTimeout = file.OriginTimeout
	}
	if !setFlags["admin"] && file.Admin != "" {
		c.Admin = file.Admin
	}
	if !setFlags["journal"] && file.Journal != "" {
		c.Journal = file.Journal
	}
}
