package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/targetkit/targetkit/core/broker"
)

// ErrInvalidInventory is returned when the broker inventory file cannot
// be parsed or fails validation.
var ErrInvalidInventory = errors.New("invalid broker inventory")

// Broker is one inventory entry.
type Broker struct {
	URL         string `yaml:"url"`
	Aka         string `yaml:"aka,omitempty"`
	InsecureTLS bool   `yaml:"insecure_tls,omitempty"`
	CAPath      string `yaml:"ca_path,omitempty"`
}

// Inventory is the list of brokers this client talks to.
type Inventory struct {
	Brokers []Broker `yaml:"brokers"`
}

// LoadInventory reads and validates a YAML inventory file.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}
	for i, b := range inv.Brokers {
		if b.URL == "" {
			return nil, fmt.Errorf("%w: brokers[%d]: url is required", ErrInvalidInventory, i)
		}
	}
	return &inv, nil
}

// SessionConfigs maps the inventory onto broker session configurations,
// all sharing the given call timeout.
func (inv *Inventory) SessionConfigs(timeout time.Duration) []broker.Config {
	cfgs := make([]broker.Config, 0, len(inv.Brokers))
	for _, b := range inv.Brokers {
		cfgs = append(cfgs, broker.Config{
			URL:         b.URL,
			Aka:         b.Aka,
			InsecureTLS: b.InsecureTLS,
			CAPath:      b.CAPath,
			Timeout:     timeout,
		})
	}
	return cfgs
}
