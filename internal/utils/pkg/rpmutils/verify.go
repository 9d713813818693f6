package rpmutils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	pgperrors "github.com/ProtonMail/go-crypto/openpgp/errors"
	rpm "github.com/sassoftware/go-rpmutils"
)

// Status is the outcome of a signature check.
type Status int

const (
	Valid Status = iota
	MissingKey
	SignatureMismatch
	OtherError
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case MissingKey:
		return "missing key"
	case SignatureMismatch:
		return "signature mismatch"
	default:
		return "error"
	}
}

// Verdict is what a Verifier concluded about one file.
type Verdict struct {
	Status  Status
	Message string
}

// OK reports whether the file passed.
func (v Verdict) OK() bool {
	return v.Status == Valid
}

// Verifier checks the signature of a downloaded package.
type Verifier interface {
	Verify(path string) Verdict
}

// KeyringVerifier checks RPM signatures against a fixed set of OpenPGP keys.
type KeyringVerifier struct {
	keys openpgp.EntityList
}

// NewKeyringVerifier returns a verifier trusting keys. With no keys every
// signed package gets a MissingKey verdict.
func NewKeyringVerifier(keys openpgp.EntityList) *KeyringVerifier {
	return &KeyringVerifier{keys: keys}
}

// ReadKeyRing parses armored or binary OpenPGP public keys.
func ReadKeyRing(r io.Reader) (openpgp.EntityList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read key data: %w", err)
	}
	keys, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err == nil {
		return keys, nil
	}
	keys, binErr := openpgp.ReadKeyRing(bytes.NewReader(data))
	if binErr != nil {
		return nil, fmt.Errorf("parse key ring: %v (armored: %v)", binErr, err)
	}
	return keys, nil
}

// Verify checks every signature in the package at path. Unsigned packages
// are reported as SignatureMismatch.
func (v *KeyringVerifier) Verify(path string) Verdict {
	f, err := os.Open(path)
	if err != nil {
		return Verdict{Status: OtherError, Message: err.Error()}
	}
	defer f.Close()

	// A nil key list makes rpm.Verify skip signature validation entirely.
	keys := v.keys
	if keys == nil {
		keys = openpgp.EntityList{}
	}
	_, sigs, err := rpm.Verify(f, keys)
	if err != nil {
		var notFound rpm.KeyNotFoundError
		var sigErr pgperrors.SignatureError
		switch {
		case errors.As(err, &notFound):
			return Verdict{Status: MissingKey, Message: err.Error()}
		case errors.As(err, &sigErr), errors.Is(err, rpm.ErrNoPGPSignature):
			return Verdict{Status: SignatureMismatch, Message: err.Error()}
		default:
			return Verdict{Status: OtherError, Message: err.Error()}
		}
	}
	if len(sigs) == 0 {
		return Verdict{Status: SignatureMismatch, Message: "package is not signed"}
	}
	return Verdict{Status: Valid}
}
