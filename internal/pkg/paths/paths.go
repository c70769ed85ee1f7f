// Package paths 定位用户级配置目录
package paths

import (
	"os"
	"path/filepath"
)

// AppName 用户配置目录下的子目录名
const AppName = "investment-agent"

// ConfigFileName 默认配置文件名
const ConfigFileName = "config.yaml"

// GetDataDir 获取应用数据目录
func GetDataDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil || userConfigDir == "" {
		return filepath.Join(".", "data")
	}
	return filepath.Join(userConfigDir, AppName)
}

// FindConfig 返回要加载的配置文件
// 显式指定时原样返回；否则依次查找当前目录与数据目录下的 config.yaml，都不存在时返回空
func FindConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range []string{ConfigFileName, filepath.Join(GetDataDir(), ConfigFileName)} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
