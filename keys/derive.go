package keys

import (
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"xdao.co/tanglemsg/ident"
)

const deriveSalt = "tanglemsg-keys-v1"

// DeriveRoleSeed deterministically derives a role-specific Ed25519 seed from a
// root seed using HKDF-SHA256.
func DeriveRoleSeed(rootSeed [ident.SigningKeySize]byte, role string) ([ident.SigningKeySize]byte, error) {
	var out [ident.SigningKeySize]byte
	if err := CheckRole(role); err != nil {
		return out, err
	}
	r := hkdf.New(sha256.New, rootSeed[:], []byte(deriveSalt), []byte("role:"+role))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, errors.Wrap(err, "derive role seed")
	}
	return out, nil
}

// DeriveRoleKeypair is DeriveRoleSeed followed by key expansion.
func DeriveRoleKeypair(rootSeed [ident.SigningKeySize]byte, role string) (ident.SignKeypair, error) {
	seed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return ident.SignKeypair{}, err
	}
	return ident.KeypairFromSeed(seed), nil
}
