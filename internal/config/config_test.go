// Package config provides configuration management for parley.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir string
}

func (s *ConfigSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.T().Setenv("PARLEY_DATA_DIR", s.tempDir)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultBotName, cfg.BotName)
	s.Equal(DefaultPort, cfg.Port)
	s.Equal(DefaultMaxConns, cfg.MaxConns)
	s.Equal(DefaultContextWindow, cfg.ContextWindow)
	s.Equal(DefaultSearchLimit, cfg.SearchLimit)
	s.Equal(DefaultSimilarityThreshold, cfg.SimilarityThreshold)
	s.Equal(DefaultRetentionDays, cfg.RetentionDays)
	s.NotEmpty(cfg.Topics)
}

func (s *ConfigSuite) TestPaths() {
	s.Equal(s.tempDir, DataDir())
	s.Contains(DBPath(), "parley.db")
	s.Contains(ConfigPath(), "config.yaml")
	s.Contains(ResponsesPath(), "responses.csv")
}

func (s *ConfigSuite) TestEnsureDataDir() {
	s.NoError(EnsureDataDir())
	info, err := os.Stat(s.tempDir)
	s.Require().NoError(err)
	s.True(info.IsDir())
}

func (s *ConfigSuite) TestLoadMissingFile() {
	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(Default().BotName, cfg.BotName)
}

func (s *ConfigSuite) TestLoadOverrides() {
	content := []byte("bot_name: Chatterbox\nretention_days: 7\ntopics:\n  - name: space\n    keywords: [star, planet]\n")
	s.Require().NoError(os.WriteFile(filepath.Join(s.tempDir, "config.yaml"), content, 0o644))

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal("Chatterbox", cfg.BotName)
	s.Equal(7, cfg.RetentionDays)
	s.Require().Len(cfg.Topics, 1)
	s.Equal("space", cfg.Topics[0].Name)
}

func (s *ConfigSuite) TestLoadBadYAML() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.tempDir, "config.yaml"), []byte("{not yaml"), 0o644))

	_, err := Load()
	s.Error(err)
}
