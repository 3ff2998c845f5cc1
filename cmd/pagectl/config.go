package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyServer    = "server"
	cfgKeyAuthURL   = "auth_url"
	cfgKeyTokenFile = "token_file"

	defaultServer = "http://localhost:8080"
	envPrefix     = "PAGECTL"
)

// config 解析后的客户端配置
type config struct {
	Server    string
	AuthURL   string
	TokenFile string
}

// defaultConfigDir ~/.pagectl
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagectl"
	}
	return filepath.Join(home, ".pagectl")
}

// loadConfig 优先级：命令行参数 > PAGECTL_* 环境变量 > config.yaml > 默认值
// config.yaml 不存在不是错误
func loadConfig(configDir string, cmd *cobra.Command) (config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyServer, defaultServer)
	v.SetDefault(cfgKeyTokenFile, filepath.Join(configDir, "token"))
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		cfgKeyServer:    "server",
		cfgKeyAuthURL:   "auth-url",
		cfgKeyTokenFile: "token-file",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config{
		Server:    strings.TrimRight(v.GetString(cfgKeyServer), "/"),
		AuthURL:   v.GetString(cfgKeyAuthURL),
		TokenFile: v.GetString(cfgKeyTokenFile),
	}
	// 未单独配置认证服务时使用编辑器服务自带的登录接口
	if cfg.AuthURL == "" {
		cfg.AuthURL = cfg.Server + "/auth/login"
	}
	return cfg, nil
}
