// Package mnemonic implements the BIP-39 mnemonic lifecycle (component
// C3): create, import, existing and export, plus the seed() that derives
// the SecretRecoveryKey consumed by keygen and recovery.
package mnemonic

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dogeorg/doge/bip39"

	"github.com/shardkeep/partyd/internal/kv"
	"github.com/shardkeep/partyd/internal/kverrors"
)

// mnemonicKey is the single reserved kv key the mnemonic lives under,
// per spec invariant: written exactly once across the store's lifetime.
var mnemonicKey = []byte("mnemonic")

const (
	entropyBits   = 256 // 24-word phrase
	maxGenAttempt = 1000
)

var (
	ErrAlreadyPresent = errors.New("mnemonic: already present")
	ErrMissing        = errors.New("mnemonic: not found, run with --mnemonic=create or --mnemonic=import first")
	ErrExportExists   = errors.New("mnemonic: export file already exists, refusing to overwrite")
	ErrTooManyRetries = errors.New("mnemonic: could not generate a usable phrase")
)

// SecretRecoveryKey is the 64-byte opaque seed handed to the GG20 library
// for keygen and recovery. It is zeroed by Zero() as soon as the caller is
// done with it; callers must not retain slices into it afterwards.
type SecretRecoveryKey [64]byte

func (k *SecretRecoveryKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// Cmd selects which of the four mnemonic operations to run at startup.
type Cmd int

const (
	Existing Cmd = iota
	Create
	Import
	Export
)

func ParseCmd(s string) (Cmd, error) {
	switch strings.ToLower(s) {
	case "existing":
		return Existing, nil
	case "create":
		return Create, nil
	case "import":
		return Import, nil
	case "export":
		return Export, nil
	default:
		return 0, fmt.Errorf("mnemonic: unknown command %q (want existing|create|import|export)", s)
	}
}

const exportFileName = "export"
const importFileName = "import"

// Run executes cmd against store, reading/writing the sidecar files under
// homeDir as needed. It returns once the mnemonic lifecycle step has
// committed (or failed); it does not compute seed() itself.
func Run(cmd Cmd, store *kv.Store, homeDir string) error {
	switch cmd {
	case Create:
		return create(store, homeDir)
	case Import:
		return importPhrase(store, homeDir)
	case Existing:
		return existing(store)
	case Export:
		return export(store, homeDir)
	default:
		return fmt.Errorf("mnemonic: unhandled command %d", cmd)
	}
}

func create(store *kv.Store, homeDir string) error {
	if ok, err := store.Exists(mnemonicKey); err != nil {
		return err
	} else if ok {
		return ErrAlreadyPresent
	}

	phrase, seed, err := generate()
	if err != nil {
		return err
	}
	defer memZero(seed)

	if err := writeExport(homeDir, phrase); err != nil {
		return err
	}

	r, err := store.Reserve(mnemonicKey)
	if err != nil {
		if kverrors.IsAlreadyExists(err) {
			return ErrAlreadyPresent
		}
		return err
	}
	return store.Put(r, []byte(strings.Join(phrase, " ")))
}

func importPhrase(store *kv.Store, homeDir string) error {
	if ok, err := store.Exists(mnemonicKey); err != nil {
		return err
	} else if ok {
		return ErrAlreadyPresent
	}

	phrase, err := readImportFile(homeDir)
	if err != nil {
		return err
	}
	seed, err := bip39.SeedFromMnemonic(phrase, "", bip39.EnglishWordList)
	if err != nil {
		return fmt.Errorf("mnemonic: invalid import phrase: %w", err)
	}
	memZero(seed)

	r, err := store.Reserve(mnemonicKey)
	if err != nil {
		if kverrors.IsAlreadyExists(err) {
			return ErrAlreadyPresent
		}
		return err
	}
	return store.Put(r, []byte(strings.Join(phrase, " ")))
}

func existing(store *kv.Store) error {
	ok, err := store.Exists(mnemonicKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMissing
	}
	return nil
}

func export(store *kv.Store, homeDir string) error {
	raw, err := store.Get(mnemonicKey)
	if err != nil {
		if kverrors.IsNotFound(err) {
			return ErrMissing
		}
		return err
	}
	phrase := strings.Fields(string(raw))
	return writeExport(homeDir, phrase)
}

// Seed loads the mnemonic and derives the SecretRecoveryKey. Startup must
// fail hard if this cannot be produced.
func Seed(store *kv.Store) (SecretRecoveryKey, error) {
	var key SecretRecoveryKey
	raw, err := store.Get(mnemonicKey)
	if err != nil {
		if kverrors.IsNotFound(err) {
			return key, ErrMissing
		}
		return key, err
	}
	phrase := strings.Fields(string(raw))
	seed, err := bip39.SeedFromMnemonic(phrase, "", bip39.EnglishWordList)
	if err != nil {
		return key, fmt.Errorf("mnemonic: stored phrase no longer decodes: %w", err)
	}
	defer memZero(seed)
	if len(seed) < len(key) {
		return key, fmt.Errorf("mnemonic: derived seed too short (%d bytes)", len(seed))
	}
	copy(key[:], seed[:len(key)])
	return key, nil
}

func generate() (phrase []string, seed []byte, err error) {
	for attempt := 0; attempt < maxGenAttempt; attempt++ {
		phrase, seed, err = bip39.GenerateRandomMnemonic(entropyBits, "", bip39.EnglishWordList)
		if err != nil {
			return nil, nil, err // only ErrOutOfEntropy
		}

		// round-trip before trusting it: the daemon must never hand out a
		// phrase it cannot later re-derive the same seed from.
		seed2, err := bip39.SeedFromMnemonic(phrase, "", bip39.EnglishWordList)
		if err != nil {
			log.Printf("[mnemonic] BUG: generated phrase did not decode, retrying")
			continue
		}
		ok := bytes.Equal(seed, seed2)
		memZero(seed2)
		if !ok {
			log.Printf("[mnemonic] BUG: generated phrase did not round-trip, retrying")
			continue
		}
		return phrase, seed, nil
	}
	return nil, nil, ErrTooManyRetries
}

func writeExport(homeDir string, phrase []string) error {
	path := homeDir + string(os.PathSeparator) + exportFileName
	if _, err := os.Stat(path); err == nil {
		return ErrExportExists
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(phrase, " ")+"\n"), 0600)
}

func readImportFile(homeDir string) ([]string, error) {
	path := homeDir + string(os.PathSeparator) + importFileName
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mnemonic: reading %s: %w", path, err)
	}
	words := strings.Fields(string(raw))
	if len(words) != 24 {
		return nil, fmt.Errorf("mnemonic: %s must contain 24 words, found %d", path, len(words))
	}
	return words, nil
}

func memZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
