package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/authcore/pkg/cryptox"
	"github.com/aussiebroadwan/authcore/pkg/jwtx"
)

// InitAuthKeys builds the KeyManager that signs every token.
//
// Key modes:
//   - persistent: AUTH_SIGNING_KEY_FILE names a PEM encoded Ed25519 key,
//     created on first start. Tokens survive restarts.
//   - ephemeral: no key file; AUTH_NUM_KEYS keys are generated in memory and
//     every outstanding token becomes invalid when the process exits.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	if cfg.SigningKeyFile != "" {
		pemKey, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}

		km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
			Issuer:      cfg.Issuer,
			PrivateKeys: [][]byte{pemKey},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}

		logger.Info("signing key loaded",
			"algorithm", jwtx.AlgorithmEdDSA,
			"kid", km.GetSigner().KID(),
			"issuer", cfg.Issuer,
		)
		return km, nil
	}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
	}

	logger.Info("generated ephemeral signing keys",
		"algorithm", jwtx.AlgorithmEdDSA,
		"num_keys", km.NumSigners(),
		"issuer", cfg.Issuer,
	)
	logger.Warn("all existing tokens are now invalid due to key rotation on startup")

	return km, nil
}
