package jwtx

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/aussiebroadwan/authcore/pkg/cryptox"
)

// AlgorithmEdDSA is the only signing algorithm the service issues.
const AlgorithmEdDSA = "EdDSA"

// KeyManager manages JWT signing and verification keys for an instance.
// Keys are selected randomly for signing; every key stays in the KeySet
// for verification.
type KeyManager struct {
	Verifier *EdDSAVerifier
	KeySet   *KeySet

	signers []Signer
	mu      sync.RWMutex
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// PrivateKeys are PKCS8 PEM encoded Ed25519 keys loaded from disk. When
	// empty, NumKeys ephemeral keys are generated instead.
	PrivateKeys [][]byte

	// NumKeys specifies how many ephemeral signing keys to generate.
	// Defaults to 3. Minimum is 1, maximum is 10.
	NumKeys int
}

// NewKeyManager creates a KeyManager. Persisted keys get a kid derived from
// their public key so tokens stay verifiable across restarts; ephemeral keys
// only live in memory and all tokens become invalid when the process exits.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	km := &KeyManager{KeySet: NewKeySet()}

	if len(opts.PrivateKeys) > 0 {
		for i, pemKey := range opts.PrivateKeys {
			signer, err := NewSignerEdDSA("", pemKey)
			if err != nil {
				return nil, fmt.Errorf("jwtx: load key %d: %w", i+1, err)
			}
			signer.kid = stableKeyID(signer)
			if err := km.AddSigner(signer); err != nil {
				return nil, err
			}
		}
	} else {
		numKeys := opts.NumKeys
		if numKeys <= 0 {
			numKeys = 3
		}
		if numKeys > 10 {
			numKeys = 10
		}

		for i := 0; i < numKeys; i++ {
			keyID, err := generateRandomKeyID()
			if err != nil {
				return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
			}

			pemBytes, err := cryptox.GenerateEd25519Key()
			if err != nil {
				return nil, fmt.Errorf("jwtx: failed to generate EdDSA key: %w", err)
			}

			signer, err := NewSignerEdDSA(keyID, pemBytes)
			if err != nil {
				return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
			}
			if err := km.AddSigner(signer); err != nil {
				return nil, err
			}
		}
	}

	km.Verifier = NewVerifierEdDSA(km.KeySet, opts.Issuer)
	return km, nil
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected signer from the available signing keys.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}

	return km.signers[rand.IntN(len(km.signers))]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner adds a new signing key to both the active signers and the KeySet.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("jwtx: signer cannot be nil")
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}
	km.signers = append(km.signers, signer)
	return nil
}

// generateRandomKeyID creates a random key identifier.
// Format: "authcore-{random-token}".
func generateRandomKeyID() (string, error) {
	token, err := cryptox.RandomString(cryptox.KeyIDSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate random key ID: %w", err)
	}
	return fmt.Sprintf("authcore-%s", token), nil
}

func stableKeyID(s Signer) string {
	sum := sha256.Sum256(s.PublicKey())
	return "authcore-" + base64.RawURLEncoding.EncodeToString(sum[:12])
}
