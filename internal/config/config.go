// Package config parses the daemon's command line, in the same
// flag.Func style main.go uses. Flag names and defaults are grounded
// on original_source/src/config/mod.rs.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/shardkeep/partyd/internal/kdf"
	"github.com/shardkeep/partyd/internal/mnemonic"
)

const (
	DefaultDirectory = ".partyd"
	DefaultPort      = 50051
	TofndHomeEnvVar  = "TOFND_HOME"
)

// Config is the daemon's parsed startup configuration.
type Config struct {
	Port           int
	SafePrimes     bool
	MnemonicCmd    mnemonic.Cmd
	Directory      string
	PasswordMethod kdf.Method
}

// Parse reads args (normally os.Args[1:]) into a Config, applying the
// same directory precedence the original gives --directory/TOFND_HOME:
// an explicit flag wins, otherwise the environment variable, otherwise
// DefaultDirectory.
func Parse(args []string) (Config, error) {
	cfg := Config{
		Port:           DefaultPort,
		SafePrimes:     true,
		MnemonicCmd:    mnemonic.Existing,
		Directory:      defaultDirectory(),
		PasswordMethod: kdf.Prompt,
	}

	fs := flag.NewFlagSet("partyd", flag.ContinueOnError)
	var parseErr error

	fs.IntVar(&cfg.Port, "port", cfg.Port, "<port> - RPC listen port")
	fs.BoolFunc("unsafe", "test-only preparams setting; generation still uses safe primes (tests only, never for real keys)", func(string) error {
		cfg.SafePrimes = false
		return nil
	})
	fs.BoolFunc("no-password", "skip the password prompt; storage is encrypted with an insecure default key (tests only)", func(string) error {
		cfg.PasswordMethod = kdf.NoPassword
		return nil
	})
	fs.Func("mnemonic", "<existing|create|import|export> - mnemonic lifecycle command (default 'existing')", func(arg string) error {
		cmd, err := mnemonic.ParseCmd(arg)
		if err != nil {
			parseErr = err
			return err
		}
		cfg.MnemonicCmd = cmd
		return nil
	})
	fs.StringVar(&cfg.Directory, "directory", cfg.Directory, fmt.Sprintf("<path> - storage directory (default %q, or $%s)", DefaultDirectory, TofndHomeEnvVar))

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if parseErr != nil {
		return Config{}, parseErr
	}
	return cfg, nil
}

func defaultDirectory() string {
	if v := os.Getenv(TofndHomeEnvVar); v != "" {
		return v
	}
	return DefaultDirectory
}
