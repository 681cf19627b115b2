package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is implemented by configuration structs that know their defaults
// and can validate themselves after loading.
type Config interface {
	ApplyDefaults()
	Validate() error
}

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for name.
// Returns explicit paths if provided, otherwise searches for them.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.firstExisting(configSearchPaths(name))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.firstExisting(envSearchPaths(name))
	}
	return resolved
}

func (r *Resolver) firstExisting(paths []string) string {
	for _, path := range paths {
		if r.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// configSearchPaths lists candidate config files, nearest first.
// Tests run with the package directory as working directory, so parents are searched too.
func configSearchPaths(name string) []string {
	var paths []string
	for _, dir := range []string{".", "./testdata", "./config", "..", "../testdata", "../.."} {
		for _, ext := range []string{"yml", "yaml"} {
			paths = append(paths, fmt.Sprintf("%s/%s.%s", dir, name, ext))
		}
	}
	return paths
}

func envSearchPaths(name string) []string {
	var paths []string
	for _, file := range []string{".env." + name, ".env"} {
		for _, dir := range []string{".", "..", "../.."} {
			paths = append(paths, fmt.Sprintf("%s/%s", dir, file))
		}
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	EnvPrefix  string // Overrides the upper-cased name as env prefix (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// Load reads configuration for name into cfg, applies defaults and validates it.
// A missing config file is not an error; defaults and environment still apply.
func Load(name string, cfg Config, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.EnvPrefix == "" {
		lc.EnvPrefix = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)

	v, err := readResolvedFiles(files, lc)
	if err != nil {
		return err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config %s: %w", name, err)
	}

	cfg.ApplyDefaults()
	return cfg.Validate()
}

// readResolvedFiles builds a Viper instance from the resolved files and environment.
func readResolvedFiles(files ResolvedFiles, lc LoaderConfig) (*viper.Viper, error) {
	v := viper.New()

	// 1. .env first so its variables are visible to the env overlay
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", files.EnvFile, err)
		}
	}

	// 2. Config file
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", files.ConfigFile, err)
		}
	}

	// 3. Prefixed environment variables override the file
	bindPrefixedEnv(v, lc.EnvPrefix)
	return v, nil
}

// bindPrefixedEnv sets every PREFIX_* environment variable on v under all
// nesting variants of the remaining key, so both flat and nested struct
// fields pick the value up during Unmarshal.
func bindPrefixedEnv(v *viper.Viper, prefix string) {
	p := strings.ToUpper(prefix) + "_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], p) {
			continue
		}
		key := strings.TrimPrefix(pair[0], p)
		if key == "" {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// generateEnvKeyVariants creates all possible key variants for environment variable binding.
// Examples:
//
//	ASYNC_TIMEOUT     -> [async_timeout, async.timeout]
//	LOGGING_NO_COLOR  -> [logging_no_color, logging.no.color, logging.no_color]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}
	return removeDuplicates(variants)
}

// removeDuplicates removes duplicate strings from a slice.
func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
