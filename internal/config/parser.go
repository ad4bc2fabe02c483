// Package config provides configuration parsing and management for the Oba LDAP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Parser errors.
var (
	ErrInvalidYAML       = errors.New("invalid YAML format")
	ErrInvalidDuration   = errors.New("invalid duration format")
	ErrInvalidNumber     = errors.New("invalid number format")
	ErrFileNotFound      = errors.New("configuration file not found")
	ErrMissingConfigFile = errors.New("config file path is required")
	ErrMissingOnChange   = errors.New("onChange callback is required")
)

// LoadConfig loads configuration from a file path.
// It reads the file, substitutes environment variables, parses YAML,
// and applies defaults for missing values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	return ParseConfig(data)
}

// ParseConfig parses configuration from YAML data.
// It substitutes environment variables and applies defaults for missing values.
func ParseConfig(data []byte) (*Config, error) {
	// Substitute environment variables
	data = substituteEnvVars(data)

	// Start with defaults
	config := DefaultConfig()

	// Parse YAML and merge with defaults
	if err := parseYAML(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func substituteEnvVars(data []byte) []byte {
	// Pattern matches ${VAR} or ${VAR:-default}
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllFunc(data, func(match []byte) []byte {
		// Extract content between ${ and }
		content := string(match[2 : len(match)-1])

		// Check for default value syntax: VAR:-default
		if idx := strings.Index(content, ":-"); idx != -1 {
			varName := content[:idx]
			defaultVal := content[idx+2:]
			if val := os.Getenv(varName); val != "" {
				return []byte(val)
			}
			return []byte(defaultVal)
		}

		// Simple variable substitution
		return []byte(os.Getenv(content))
	})
}

// parseYAML parses YAML data into the config struct using yaml.v3's node
// tree so unusual-but-valid shapes (flow sequences, quoting, comments,
// multi-document markers) are handled by the real parser rather than a
// hand-rolled subset. Duration/day-suffixed and numeric fields still go
// through our own conversion, since yaml.v3 has no notion of either.
func parseYAML(data []byte, config *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty document: keep the defaults.
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return ErrInvalidYAML
	}

	return applyConfig(root, config)
}

// forEachMapping walks a mapping node's key/value pairs, short-circuiting
// on the first error fn returns. A nil or non-mapping node is a no-op,
// so every applyXConfig helper below can be called unconditionally even
// when a section is absent from the document.
func forEachMapping(node *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// scalarList flattens a sequence node's scalar children to strings. It
// handles both flow (`[a, b]`) and block (`- a\n- b`) styles identically,
// since yaml.v3 represents both as a SequenceNode of scalar children.
func scalarList(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		out = append(out, item.Value)
	}
	return out
}

// applyConfig applies parsed YAML nodes to the config struct.
func applyConfig(root *yaml.Node, config *Config) error {
	return forEachMapping(root, func(key string, val *yaml.Node) error {
		switch key {
		case "server":
			return applyServerConfig(val, &config.Server)
		case "directory":
			return applyDirectoryConfig(val, &config.Directory)
		case "storage":
			return applyStorageConfig(val, &config.Storage)
		case "logging":
			return applyLogConfig(val, &config.Logging)
		case "security":
			return applySecurityConfig(val, &config.Security)
		case "acl":
			return applyACLConfig(val, &config.ACL)
		case "aclFile":
			if val.Value != "" {
				config.ACLFile = val.Value
			}
		}
		return nil
	})
}

// applyServerConfig applies server configuration.
func applyServerConfig(node *yaml.Node, config *ServerConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "address":
			if val.Value != "" {
				config.Address = val.Value
			}
		case "tlsAddress":
			if val.Value != "" {
				config.TLSAddress = val.Value
			}
		case "tlsCert":
			if val.Value != "" {
				config.TLSCert = val.Value
			}
		case "tlsKey":
			if val.Value != "" {
				config.TLSKey = val.Value
			}
		case "maxConnections":
			if val.Value != "" {
				n, err := strconv.Atoi(val.Value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.MaxConnections = n
			}
		case "readTimeout":
			if val.Value != "" {
				dur, err := parseDuration(val.Value)
				if err != nil {
					return err
				}
				config.ReadTimeout = dur
			}
		case "writeTimeout":
			if val.Value != "" {
				dur, err := parseDuration(val.Value)
				if err != nil {
					return err
				}
				config.WriteTimeout = dur
			}
		case "pidFile":
			if val.Value != "" {
				config.PIDFile = val.Value
			}
		}
		return nil
	})
}

// applyDirectoryConfig applies directory configuration.
func applyDirectoryConfig(node *yaml.Node, config *DirectoryConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "baseDN":
			if val.Value != "" {
				config.BaseDN = val.Value
			}
		case "rootDN":
			if val.Value != "" {
				config.RootDN = val.Value
			}
		case "rootPassword":
			if val.Value != "" {
				config.RootPassword = val.Value
			}
		}
		return nil
	})
}

// applyStorageConfig applies storage configuration.
func applyStorageConfig(node *yaml.Node, config *StorageConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "dataDir":
			if val.Value != "" {
				config.DataDir = val.Value
			}
		case "walDir":
			if val.Value != "" {
				config.WALDir = val.Value
			}
		case "pageSize":
			if val.Value != "" {
				n, err := strconv.Atoi(val.Value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.PageSize = n
			}
		case "bufferPoolSize":
			if val.Value != "" {
				config.BufferPoolSize = val.Value
			}
		case "checkpointInterval":
			if val.Value != "" {
				dur, err := parseDuration(val.Value)
				if err != nil {
					return err
				}
				config.CheckpointInterval = dur
			}
		}
		return nil
	})
}

// applyLogConfig applies logging configuration.
func applyLogConfig(node *yaml.Node, config *LogConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "level":
			if val.Value != "" {
				config.Level = val.Value
			}
		case "format":
			if val.Value != "" {
				config.Format = val.Value
			}
		case "output":
			if val.Value != "" {
				config.Output = val.Value
			}
		case "store":
			return applyLogStoreConfig(val, &config.Store)
		}
		return nil
	})
}

// applyLogStoreConfig applies log store configuration.
func applyLogStoreConfig(node *yaml.Node, config *LogStoreConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "enabled":
			config.Enabled = parseBool(val.Value)
		case "dbPath":
			if val.Value != "" {
				config.DBPath = val.Value
			}
		case "maxEntries":
			if val.Value != "" {
				n, err := strconv.Atoi(val.Value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.MaxEntries = n
			}
		}
		return nil
	})
}

// applySecurityConfig applies security configuration.
func applySecurityConfig(node *yaml.Node, config *SecurityConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "passwordPolicy":
			return applyPasswordPolicyConfig(val, &config.PasswordPolicy)
		case "rateLimit":
			return applyRateLimitConfig(val, &config.RateLimit)
		case "encryption":
			return applyEncryptionConfig(val, &config.Encryption)
		}
		return nil
	})
}

// applyPasswordPolicyConfig applies password policy configuration.
func applyPasswordPolicyConfig(node *yaml.Node, config *PasswordPolicyConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "enabled":
			config.Enabled = parseBool(val.Value)
		case "minLength":
			if val.Value != "" {
				n, err := strconv.Atoi(val.Value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.MinLength = n
			}
		case "requireUppercase":
			config.RequireUppercase = parseBool(val.Value)
		case "requireLowercase":
			config.RequireLowercase = parseBool(val.Value)
		case "requireDigit":
			config.RequireDigit = parseBool(val.Value)
		case "requireSpecial":
			config.RequireSpecial = parseBool(val.Value)
		case "maxAge":
			if val.Value != "" {
				dur, err := parseDuration(val.Value)
				if err != nil {
					return err
				}
				config.MaxAge = dur
			}
		case "historyCount":
			if val.Value != "" {
				n, err := strconv.Atoi(val.Value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.HistoryCount = n
			}
		}
		return nil
	})
}

// applyRateLimitConfig applies rate limit configuration.
func applyRateLimitConfig(node *yaml.Node, config *RateLimitConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "enabled":
			config.Enabled = parseBool(val.Value)
		case "maxAttempts":
			if val.Value != "" {
				n, err := strconv.Atoi(val.Value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.MaxAttempts = n
			}
		case "lockoutDuration":
			if val.Value != "" {
				dur, err := parseDuration(val.Value)
				if err != nil {
					return err
				}
				config.LockoutDuration = dur
			}
		}
		return nil
	})
}

// applyEncryptionConfig applies encryption configuration.
func applyEncryptionConfig(node *yaml.Node, config *EncryptionConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "enabled":
			config.Enabled = parseBool(val.Value)
		case "keyFile":
			if val.Value != "" {
				config.KeyFile = val.Value
			}
		}
		return nil
	})
}

// applyACLConfig applies ACL configuration.
func applyACLConfig(node *yaml.Node, config *ACLConfig) error {
	return forEachMapping(node, func(key string, val *yaml.Node) error {
		switch key {
		case "defaultPolicy":
			if val.Value != "" {
				config.DefaultPolicy = val.Value
			}
		case "rules":
			rules, err := parseACLRules(val)
			if err != nil {
				return err
			}
			config.Rules = rules
		}
		return nil
	})
}

// parseACLRules parses ACL rules from a YAML sequence node.
func parseACLRules(node *yaml.Node) ([]ACLRuleConfig, error) {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil, nil
	}

	rules := make([]ACLRuleConfig, 0, len(node.Content))
	for _, item := range node.Content {
		var rule ACLRuleConfig
		err := forEachMapping(item, func(key string, val *yaml.Node) error {
			switch key {
			case "target":
				rule.Target = val.Value
			case "subject":
				rule.Subject = val.Value
			case "rights":
				rule.Rights = scalarList(val)
			case "attributes":
				rule.Attributes = scalarList(val)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// parseDuration parses a duration string supporting formats like "30s", "5m", "1h", "90d".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	// Check for day suffix (not supported by time.ParseDuration)
	if strings.HasSuffix(s, "d") {
		numStr := strings.TrimSuffix(s, "d")
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, ErrInvalidDuration
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Use standard library for other formats
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, ErrInvalidDuration
	}
	return dur, nil
}

// parseBool parses a boolean string.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
