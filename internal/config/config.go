// Package config 配置解析：环境变量 → 工作区 .vscode/settings.json →
// 可执行文件同目录 config.toml → 内置默认值，优先级从高到低。
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据与存储配置
type DataConfig struct {
	DataDir      string `toml:"data_dir"`
	OutputDir    string `toml:"output_dir"`
	DatabasePath string `toml:"database_path"`
	DatabaseName string `toml:"database_name"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    18900,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:      "data",
			OutputDir:    "",
			DatabasePath: "",
			DatabaseName: "ims_database",
		},
	}
}

// DatabaseFile 解析后的数据库文件路径。
// 未显式指定路径时放在数据目录下，以数据库名命名。
func (c *AppConfig) DatabaseFile() string {
	if c.Data.DatabasePath != "" {
		return c.Data.DatabasePath
	}
	return filepath.Join(c.Data.DataDir, c.Data.DatabaseName+".db")
}

// ResolvedOutputDir 解析后的 JSON 输出目录，未指定时落在数据目录下
func (c *AppConfig) ResolvedOutputDir() string {
	if c.Data.OutputDir != "" {
		return c.Data.OutputDir
	}
	return filepath.Join(c.Data.DataDir, "output")
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// applyTomlFile 读取 config.toml 并覆盖到 config，文件不存在则跳过
func applyTomlFile(config *AppConfig, info *LoadConfigInfo) error {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return nil
}

// stripLineComments 去掉 JSON 中的 // 行注释（忽略字符串内部的 //），
// 宿主编辑器的 settings.json 允许带注释。
func stripLineComments(data []byte) []byte {
	var out strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		ch := data[i]
		if inString {
			out.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}
		if ch == '/' && i+1 < len(data) && data[i+1] == '/' {
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out.WriteByte('\n')
			}
			continue
		}
		out.WriteByte(ch)
	}
	return []byte(out.String())
}

// applyWorkspaceSettings 读取 workspaceDir/.vscode/settings.json 中的
// imsViewer.* 配置并覆盖。认证类配置（用户名/密码/认证库）对嵌入式
// 存储没有意义，读到了也只接受不使用。
func applyWorkspaceSettings(config *AppConfig, workspaceDir string) error {
	settingsPath := filepath.Join(workspaceDir, ".vscode", "settings.json")

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var settings map[string]any
	if err := json.Unmarshal(stripLineComments(data), &settings); err != nil {
		return fmt.Errorf("failed to parse %s: %w", settingsPath, err)
	}

	strSetting := func(key string) string {
		v, _ := settings[key].(string)
		return strings.TrimSpace(v)
	}

	if v := strSetting("imsViewer.databaseName"); v != "" {
		config.Data.DatabaseName = v
	}
	if v := strSetting("imsViewer.databasePath"); v != "" {
		config.Data.DatabasePath = v
	}
	// 输出目录仅在 outputMode 为 custom（或未设置）时采纳自定义路径
	mode := strSetting("imsViewer.outputMode")
	custom := strSetting("imsViewer.customOutputPath")
	if custom != "" && (mode == "" || mode == "custom") {
		config.Data.OutputDir = custom
	}
	return nil
}

// applyEnv 环境变量覆盖，优先级最高
func applyEnv(config *AppConfig) {
	if v := os.Getenv("IMS_DB_PATH"); v != "" {
		config.Data.DatabasePath = v
	}
	if v := os.Getenv("IMS_DB_NAME"); v != "" {
		config.Data.DatabaseName = v
	}
	if v := os.Getenv("IMS_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("IMS_OUTPUT_DIR"); v != "" {
		config.Data.OutputDir = v
	}
}

// LoadConfigWithInfo 按优先级加载配置并返回元信息。
// workspaceDir 为宿主工作区根目录，通常是当前目录。
func LoadConfigWithInfo(workspaceDir string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	if err := applyTomlFile(config, &info); err != nil {
		return nil, info, err
	}
	if err := applyWorkspaceSettings(config, workspaceDir); err != nil {
		return nil, info, err
	}
	applyEnv(config)

	return config, info, nil
}

// LoadConfig 按优先级加载配置
func LoadConfig(workspaceDir string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(workspaceDir)
	return config, err
}

// SaveConfig 保存配置到可执行文件同目录的 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录及输出子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	if err := os.MkdirAll(config.Data.DataDir, 0755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(config.ResolvedOutputDir(), 0755); err != nil {
		return "", err
	}
	return config.Data.DataDir, nil
}
