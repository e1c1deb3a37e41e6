package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the repository config file, relative to the git dir
const ConfigFileName = ".braid_config"

// RepoConfig represents the repository configuration
type RepoConfig struct {
	Trunk             *string `json:"trunk,omitempty"`
	Remote            *string `json:"remote,omitempty"`
	ShowTips          *bool   `json:"showTips,omitempty"`
	BranchNamePattern *string `json:"branchNamePattern,omitempty"`
}

func configPath(gitDir string) string {
	return filepath.Join(gitDir, ConfigFileName)
}

// GetRepoConfig reads the repository configuration. A missing file is not an
// error; it yields the zero config.
func GetRepoConfig(gitDir string) (*RepoConfig, error) {
	data, err := os.ReadFile(configPath(gitDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read repo config: %w", err)
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}
	return &config, nil
}

func saveRepoConfig(gitDir string, config *RepoConfig) error {
	if _, err := os.Stat(gitDir); err != nil {
		return fmt.Errorf("git directory does not exist: %w", err)
	}
	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(configPath(gitDir), configJSON, 0600)
}

// IsInitialized reports whether a trunk has been configured
func IsInitialized(gitDir string) bool {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		return false
	}
	return config.Trunk != nil && *config.Trunk != ""
}

// GetTrunk returns the configured trunk branch name, empty when the
// repository has not been initialized
func GetTrunk(gitDir string) (string, error) {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		return "", err
	}
	if config.Trunk != nil {
		return *config.Trunk, nil
	}
	return "", nil
}

// SetTrunk updates the trunk branch in the config
func SetTrunk(gitDir string, trunkName string) error {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		config = &RepoConfig{}
	}

	config.Trunk = &trunkName
	if config.ShowTips == nil {
		enabled := true
		config.ShowTips = &enabled
	}
	return saveRepoConfig(gitDir, config)
}

// GetRemote returns the configured remote name, or "origin" as default
func GetRemote(gitDir string) (string, error) {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		return "", err
	}
	if config.Remote != nil && *config.Remote != "" {
		return *config.Remote, nil
	}
	return "origin", nil
}

// SetRemote updates the remote name in the config
func SetRemote(gitDir string, remote string) error {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		config = &RepoConfig{}
	}
	config.Remote = &remote
	return saveRepoConfig(gitDir, config)
}

// GetShowTips returns whether tips are printed after commands, true by default
func GetShowTips(gitDir string) (bool, error) {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		return false, err
	}
	if config.ShowTips != nil {
		return *config.ShowTips, nil
	}
	return true, nil
}

// SetShowTips updates the tips toggle in the config
func SetShowTips(gitDir string, enabled bool) error {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		config = &RepoConfig{}
	}
	config.ShowTips = &enabled
	return saveRepoConfig(gitDir, config)
}

// GetBranchNamePattern returns the branch name pattern from config, or the
// default if not set
func GetBranchNamePattern(gitDir string) (string, error) {
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		return "", err
	}
	if config.BranchNamePattern != nil {
		return *config.BranchNamePattern, nil
	}
	return string(DefaultBranchPattern), nil
}

// SetBranchNamePattern updates the branch name pattern in the config
func SetBranchNamePattern(gitDir string, pattern string) error {
	if !strings.Contains(pattern, "{message}") {
		return fmt.Errorf("branch name pattern must contain {message} placeholder")
	}

	config, err := GetRepoConfig(gitDir)
	if err != nil {
		config = &RepoConfig{}
	}
	config.BranchNamePattern = &pattern
	return saveRepoConfig(gitDir, config)
}
