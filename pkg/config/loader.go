package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "ccrun.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".ccrun"

// DotEnvFileName is the project file consulted for CCRUN_* variables that
// are not set in the process environment.
const DotEnvFileName = ".env"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "ccrun"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/ccrun/config.toml)
//  3. Project config (.ccrun/config.toml or ccrun.toml)
//  4. Environment variables (CCRUN_*), then the project .env file
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		cfg := NewConfig()
		if globalCfg := loadGlobalConfig(); globalCfg != nil {
			cfg.Merge(globalCfg)
		}
		applyEnvironmentVariables(cfg)
		return cfg
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	// Layer 2: Global user config
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config from specified directory
	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	// Layer 4: Environment variables, with the project .env as fallback
	dotenv := loadDotEnv(ProjectRoot(dir))
	applyEnv(cfg, func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	})

	return cfg
}

// loadDotEnv reads KEY=value pairs from the .env file in dir. A missing or
// malformed file yields nil.
func loadDotEnv(dir string) map[string]string {
	env, err := godotenv.Read(filepath.Join(dir, DotEnvFileName))
	if err != nil {
		return nil
	}
	return env
}

// loadGlobalConfig loads the global user configuration from ~/.config/ccrun/config.toml.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom looks for project configuration starting from the given directory.
func loadProjectConfigFrom(dir string) *Config {
	current := dir
	for {
		for _, path := range GetProjectConfigPaths(current) {
			if cfg := loadConfigFile(path); cfg != nil {
				return cfg
			}
		}

		// Stop at filesystem root or repository root
		if isProjectRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isProjectRoot checks if the directory is a repository root.
func isProjectRoot(dir string) bool {
	markers := []string{".git", ".hg", ".svn"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil
	}

	return &cfg
}

// applyEnvironmentVariables applies CCRUN_* environment variables to the config.
// List values are comma-separated.
func applyEnvironmentVariables(cfg *Config) {
	applyEnv(cfg, os.Getenv)
}

// applyEnv applies CCRUN_* variables resolved through getenv.
func applyEnv(cfg *Config, getenv func(string) string) {
	applyStringEnv := func(key string, target *string) {
		if v := getenv(key); v != "" {
			*target = v
		}
	}
	applyListEnv := func(key string, target *[]string) {
		if v := getenv(key); v != "" {
			*target = splitAndTrim(v)
		}
	}

	applyStringEnv("CCRUN_BUILD_PATH", &cfg.Build.Path)
	if v := getenv("CCRUN_BUILD_MODE"); v != "" {
		cfg.Build.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
	}
	applyListEnv("CCRUN_BUILD_INCLUDES", &cfg.Build.Includes)
	applyListEnv("CCRUN_BUILD_EXCLUDES", &cfg.Build.Excludes)
	applyStringEnv("CCRUN_BUILD_LIB_PREFIX", &cfg.Build.LibPrefix)
	applyStringEnv("CCRUN_BUILD_BIN_NAME", &cfg.Build.BinName)

	applyStringEnv("CCRUN_COMPILER_PATH", &cfg.Compiler.Path)
	applyListEnv("CCRUN_COMPILER_OPTIONS", &cfg.Compiler.Options)

	applyStringEnv("CCRUN_RESOURCE_PATH", &cfg.Resource.Path)
	applyListEnv("CCRUN_RESOURCE_OPTIONS", &cfg.Resource.Options)

	applyStringEnv("CCRUN_LINKER_PATH", &cfg.Linker.Path)
	applyListEnv("CCRUN_LINKER_OPTIONS", &cfg.Linker.Options)
	applyListEnv("CCRUN_LINKER_LIBS", &cfg.Linker.Libs)
	applyListEnv("CCRUN_LINKER_LIB_PATHS", &cfg.Linker.LibPaths)

	applyListEnv("CCRUN_RUN_ARGS", &cfg.Run.Args)
	applyListEnv("CCRUN_RUN_PUBLICS", &cfg.Run.Publics)
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}

// ProjectRoot returns the directory holding the nearest project config
// file at or above dir, or dir itself when none is found.
func ProjectRoot(dir string) string {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, ConfigFileName)); err == nil {
			return current
		}
		if _, err := os.Stat(filepath.Join(current, ConfigDirName, "config.toml")); err == nil {
			return current
		}
		if isProjectRoot(current) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}
