package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authcore/pkg/assetx"
	"github.com/aussiebroadwan/authcore/pkg/cryptox"
	"github.com/aussiebroadwan/authcore/pkg/idx"
	"github.com/aussiebroadwan/authcore/pkg/jwtx"
	"github.com/aussiebroadwan/authcore/pkg/mailx"
	"github.com/aussiebroadwan/authcore/pkg/qrx"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "authcore-test"
	testPassword = "password1"
)

// Cheap parameters keep the suite fast; production uses the defaults.
var testArgon2Params = cryptox.Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

type testEnv struct {
	store  *sqlite.Store
	tokens *TokenService
	auth   *AuthService
	mfa    *MFAService
	queue  *DeliveryQueue
	sender *fakeSender
	assets *fakeAssets
	user   domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: testIssuer, NumKeys: 2})
	require.NoError(t, err)

	hasher := cryptox.NewArgon2Hasher("test-pepper").WithParams(testArgon2Params)

	logger := slogx.Discard()
	queue := NewDeliveryQueue(logger, 1, 16, 5*time.Second)
	t.Cleanup(queue.Stop)

	sender := &fakeSender{}
	assets := &fakeAssets{}
	mailer := &Mailer{
		Queue:      queue,
		Sender:     sender,
		Assets:     assets,
		AppBaseURL: "http://link-to-app",
		Logger:     logger,
	}

	tokens := &TokenService{
		KeyManager: km,
		Tokens:     s.Tokens(),
		Issuer:     testIssuer,
	}

	env := &testEnv{
		store:  s,
		tokens: tokens,
		auth: &AuthService{
			Users:  s.Users(),
			Tokens: tokens,
			Hasher: hasher,
			Mailer: mailer,
		},
		mfa: &MFAService{
			Users:  s.Users(),
			QR:     qrx.Renderer{Size: 128},
			Mailer: mailer,
			Issuer: "AuthCore",
		},
		queue:  queue,
		sender: sender,
		assets: assets,
	}

	digest, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	env.user = domain.User{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: digest,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), env.user))

	return env
}

// drain waits for every queued delivery task to finish.
func (e *testEnv) drain() { e.queue.Stop() }

func (e *testEnv) reloadUser(t *testing.T) domain.User {
	t.Helper()
	u, err := e.store.Users().GetUserByID(context.Background(), e.user.ID)
	require.NoError(t, err)
	return u
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailx.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailx.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Verify(context.Context) error { return nil }
func (f *fakeSender) Close() error                 { return nil }

func (f *fakeSender) messages() []mailx.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailx.Message(nil), f.sent...)
}

type fakeAssets struct {
	mu      sync.Mutex
	uploads map[string][]byte
	fail    bool
}

func (f *fakeAssets) Upload(_ context.Context, folder, name string, data []byte, _ string) (assetx.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assetx.Object{}, errors.New("upload failed")
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	id := folder + "/" + name
	f.uploads[id] = data
	return assetx.Object{ID: id, URL: "https://assets.example.com/" + id}, nil
}

func (f *fakeAssets) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploads, id)
	return nil
}
