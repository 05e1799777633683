package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keys lists the configuration keys Set and Get understand.
var Keys = []string{
	"esp_root",
	"boot_root",
	"algorithm",
	"hash_workers",
	"state_dir",
	"keep_snapshots",
	"attribution.rate_limit",
	"attribution.timeout_seconds",
	"services.safe_patterns",
	"services.unsafe_patterns",
	"modules.suspicious_taints",
	"modules.trusted_signers",
}

// Set assigns one configuration key from its string form. List-valued
// keys take a YAML list, such as '["getty@.*", "sshd?"]'.
func (c *Config) Set(key, value string) error {
	switch key {
	case "esp_root":
		c.ESPRoot = value
	case "boot_root":
		c.BootRoot = value
	case "algorithm":
		c.Algorithm = value
	case "state_dir":
		c.StateDir = value
	case "hash_workers":
		return setInt(&c.HashWorkers, key, value)
	case "keep_snapshots":
		return setInt(&c.KeepSnapshots, key, value)
	case "attribution.rate_limit":
		return setInt(&c.Attribution.RateLimit, key, value)
	case "attribution.timeout_seconds":
		return setInt(&c.Attribution.TimeoutSeconds, key, value)
	case "modules.suspicious_taints":
		c.Modules.SuspiciousTaints = value
	case "services.safe_patterns":
		return setList(&c.Services.SafePatterns, key, value)
	case "services.unsafe_patterns":
		return setList(&c.Services.UnsafePatterns, key, value)
	case "modules.trusted_signers":
		return setList(&c.Modules.TrustedSigners, key, value)
	default:
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Get returns the string form of one configuration key. List-valued
// keys come back as a YAML list, empty lists as the empty string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "esp_root":
		return c.ESPRoot, nil
	case "boot_root":
		return c.BootRoot, nil
	case "algorithm":
		return c.Algorithm, nil
	case "state_dir":
		return c.StateDir, nil
	case "hash_workers":
		return strconv.Itoa(c.HashWorkers), nil
	case "keep_snapshots":
		return strconv.Itoa(c.KeepSnapshots), nil
	case "attribution.rate_limit":
		return strconv.Itoa(c.Attribution.RateLimit), nil
	case "attribution.timeout_seconds":
		return strconv.Itoa(c.Attribution.TimeoutSeconds), nil
	case "modules.suspicious_taints":
		return c.Modules.SuspiciousTaints, nil
	case "services.safe_patterns":
		return getList(c.Services.SafePatterns)
	case "services.unsafe_patterns":
		return getList(c.Services.UnsafePatterns)
	case "modules.trusted_signers":
		return getList(c.Modules.TrustedSigners)
	default:
		return "", fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys, ", "))
	}
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s wants an integer, got %q", key, value)
	}
	*dst = n
	return nil
}

func setList(dst *[]string, key, value string) error {
	var list []string
	if err := yaml.Unmarshal([]byte(value), &list); err != nil {
		return fmt.Errorf("%s wants a YAML list: %w", key, err)
	}
	*dst = list
	return nil
}

func getList(list []string) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	data, err := yaml.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
