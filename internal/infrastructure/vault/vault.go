package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"golang.org/x/crypto/scrypt"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

const (
	saltKey  = "vault/salt"
	checkKey = "vault/check"

	keyPrefix = "vault/key/"

	saltLen = 32
	keyLen  = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var checkToken = []byte("halcyond-vault-check")

// Vault is the password-locked store of private keys, one per wallet
// address. Keys are sealed with AES-GCM under a scrypt-derived key that only
// lives in memory while the vault is unlocked.
type Vault struct {
	db *badger.DB

	mtx       sync.RWMutex
	cipherKey []byte
}

// NewVault opens (or creates if not exists) the vault db on disk under the
// given data directory. The vault starts locked.
func NewVault(datadir string, logger badger.Logger) (*Vault, error) {
	dbDir := filepath.Join(datadir, "vault")
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0700); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening vault db: %w", err)
	}

	return &Vault{db: db}, nil
}

// IsLocked returns whether the encryption key is flushed from memory.
func (v *Vault) IsLocked() bool {
	v.mtx.RLock()
	defer v.mtx.RUnlock()
	return v.cipherKey == nil
}

// Lock flushes the in-memory encryption key.
func (v *Vault) Lock() {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	for i := range v.cipherKey {
		v.cipherKey[i] = 0
	}
	v.cipherKey = nil
}

// CreateUnlock initializes the vault with a password on first use, or checks
// the password against the stored check token and unlocks it. Unlocking an
// unlocked vault is a no-op.
func (v *Vault) CreateUnlock(password []byte) error {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.cipherKey != nil {
		return nil
	}
	if len(password) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	salt, created, err := v.getOrCreateSalt()
	if err != nil {
		return err
	}
	cipherKey, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return err
	}

	if created {
		sealed, err := seal(cipherKey, checkToken)
		if err != nil {
			return err
		}
		if err := v.set(checkKey, sealed); err != nil {
			return err
		}
	} else {
		sealed, err := v.get(checkKey)
		if err != nil {
			return err
		}
		token, err := open(cipherKey, sealed)
		if err != nil {
			return fmt.Errorf("invalid password")
		}
		if subtle.ConstantTimeCompare(token, checkToken) != 1 {
			return fmt.Errorf("invalid password")
		}
	}

	v.cipherKey = cipherKey
	return nil
}

// ChangePassword re-seals every stored key under a key derived from the new
// password. The vault must be unlockable with the old password.
func (v *Vault) ChangePassword(oldPw, newPw []byte) error {
	if err := v.CreateUnlock(oldPw); err != nil {
		return err
	}

	v.mtx.Lock()
	defer v.mtx.Unlock()

	if len(newPw) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	newKey, err := scrypt.Key(newPw, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return err
	}

	entries, err := v.allKeyEntries()
	if err != nil {
		return err
	}

	txn := v.db.NewTransaction(true)
	defer txn.Discard()

	for dbKey, sealed := range entries {
		plain, err := open(v.cipherKey, sealed)
		if err != nil {
			return err
		}
		resealed, err := seal(newKey, plain)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(dbKey), resealed); err != nil {
			return err
		}
	}

	sealedCheck, err := seal(newKey, checkToken)
	if err != nil {
		return err
	}
	if err := txn.Set([]byte(checkKey), sealedCheck); err != nil {
		return err
	}
	if err := txn.Set([]byte(saltKey), salt); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}

	v.cipherKey = newKey
	return nil
}

// StoreKey seals and stores the private key seed controlling an address.
func (v *Vault) StoreKey(address string, seed []byte) error {
	v.mtx.RLock()
	defer v.mtx.RUnlock()

	if v.cipherKey == nil {
		return domain.ErrVaultLocked
	}
	sealed, err := seal(v.cipherKey, seed)
	if err != nil {
		return err
	}
	return v.set(keyPrefix+address, sealed)
}

// DeleteKey removes the stored key of an address, if any.
func (v *Vault) DeleteKey(address string) error {
	return v.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + address))
	})
}

// ResolvePrivateKey returns the signing handle for an address. It implements
// ports.KeySource.
func (v *Vault) ResolvePrivateKey(
	_ context.Context, address string,
) (explorer.Signer, error) {
	v.mtx.RLock()
	defer v.mtx.RUnlock()

	if v.cipherKey == nil {
		return nil, domain.ErrVaultLocked
	}

	sealed, err := v.get(keyPrefix + address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrKeyNotFound, address)
	}
	seed, err := open(v.cipherKey, sealed)
	if err != nil {
		return nil, err
	}
	return newKeyHandle(address, seed), nil
}

// Close locks the vault and closes the underlying db.
func (v *Vault) Close() error {
	v.Lock()
	return v.db.Close()
}

func (v *Vault) getOrCreateSalt() ([]byte, bool, error) {
	salt, err := v.get(saltKey)
	if err == nil {
		return salt, false, nil
	}
	if err != badger.ErrKeyNotFound {
		return nil, false, err
	}

	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, false, err
	}
	if err := v.set(saltKey, salt); err != nil {
		return nil, false, err
	}
	return salt, true, nil
}

func (v *Vault) allKeyEntries() (map[string][]byte, error) {
	entries := map[string][]byte{}
	err := v.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries[string(item.Key())] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (v *Vault) get(key string) ([]byte, error) {
	var value []byte
	err := v.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (v *Vault) set(key string, value []byte) error {
	return v.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func seal(cipherKey, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func open(cipherKey, sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed value too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
