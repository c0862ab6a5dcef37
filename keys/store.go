package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"xdao.co/tanglemsg/ident"
)

// KeyStore keeps Ed25519 seeds on the local filesystem:
//
//	<dir>/<name>/root.key
//	<dir>/<name>/roles/<role>.key
//
// EXPERIMENTAL: this layout may change.
type KeyStore struct {
	Directory string
}

// GetDefaultDirectory returns ~/.tanglemsg/keys.
func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(homeDir, ".tanglemsg", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) roleKeyPath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

func checkLabel(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

func CheckKeyName(name string) error { return checkLabel("key name", name) }

func CheckRole(role string) error { return checkLabel("role", role) }

// ParseSeed parses a base58 seed.
func ParseSeed(s string) ([ident.SigningKeySize]byte, error) {
	var out [ident.SigningKeySize]byte
	b, err := ident.DecodeBase58(strings.TrimSpace(s), ident.SigningKeySize)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func saveSeed(path string, seed [ident.SigningKeySize]byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create key directory")
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	if _, err := file.WriteString(ident.EncodeBase58(seed[:]) + "\n"); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}

func loadSeed(path string) ([ident.SigningKeySize]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [ident.SigningKeySize]byte{}, errors.Wrapf(err, "read %s", path)
	}
	seed, err := ParseSeed(string(data))
	if err != nil {
		return seed, errors.Wrapf(err, "parse %s", path)
	}
	return seed, nil
}

// InitializeRootKey stores seed as the root key of name.
func (ks *KeyStore) InitializeRootKey(name string, seed [ident.SigningKeySize]byte, overwrite bool) (ident.VerifyingKey, string, error) {
	if err := CheckKeyName(name); err != nil {
		return ident.VerifyingKey{}, "", err
	}
	path := ks.rootKeyPath(name)
	if err := saveSeed(path, seed, overwrite); err != nil {
		return ident.VerifyingKey{}, "", err
	}
	return ident.KeypairFromSeed(seed).Verifying, path, nil
}

// DeriveKeyFromRole derives and stores the role key of name.
func (ks *KeyStore) DeriveKeyFromRole(name, role string, overwrite bool) (ident.VerifyingKey, string, error) {
	if err := CheckKeyName(name); err != nil {
		return ident.VerifyingKey{}, "", err
	}
	if err := CheckRole(role); err != nil {
		return ident.VerifyingKey{}, "", err
	}
	rootSeed, err := loadSeed(ks.rootKeyPath(name))
	if err != nil {
		return ident.VerifyingKey{}, "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return ident.VerifyingKey{}, "", err
	}
	path := ks.roleKeyPath(name, role)
	if err := saveSeed(path, roleSeed, overwrite); err != nil {
		return ident.VerifyingKey{}, "", err
	}
	return ident.KeypairFromSeed(roleSeed).Verifying, path, nil
}

// Keypair loads the root key of name, or its role key when role is set.
func (ks *KeyStore) Keypair(name, role string) (ident.SignKeypair, error) {
	if err := CheckKeyName(name); err != nil {
		return ident.SignKeypair{}, err
	}
	path := ks.rootKeyPath(name)
	if role != "" {
		if err := CheckRole(role); err != nil {
			return ident.SignKeypair{}, err
		}
		path = ks.roleKeyPath(name, role)
	}
	seed, err := loadSeed(path)
	if err != nil {
		return ident.SignKeypair{}, err
	}
	return ident.KeypairFromSeed(seed), nil
}

// ListKeys returns the stored key names, sorted.
func (ks *KeyStore) ListKeys() ([]string, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "list keys")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || CheckKeyName(e.Name()) != nil {
			continue
		}
		if _, err := os.Stat(ks.rootKeyPath(e.Name())); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
