// Package wallet provides password-based sealing for a node's chameleon
// trapdoor secret key — the one credential in the simulation whose leakage
// actually matters, since holding it lets the bearer redact any block the
// node mined.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

type keystoreFile struct {
	NodeID     int    `json:"node_id"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipher_text"`
}

// SealSK encrypts a node's chameleon secret key with password and writes it
// to path, for operators who want to export an admin or regulator's
// redaction trapdoor outside the simulator's in-memory node table.
func SealSK(path, password string, nodeID int, sk *big.Int) error {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	key := deriveKey(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	cipherText := gcm.Seal(nil, nonce, sk.Bytes(), nil)

	ks := keystoreFile{
		NodeID:     nodeID,
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		CipherText: hex.EncodeToString(cipherText),
	}
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// OpenSK decrypts the keystore at path using password and returns the
// node id it belongs to along with the recovered secret key.
func OpenSK(path, password string) (nodeID int, sk *big.Int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return 0, nil, err
	}
	salt, err := hex.DecodeString(ks.Salt)
	if err != nil {
		return 0, nil, err
	}
	nonce, err := hex.DecodeString(ks.Nonce)
	if err != nil {
		return 0, nil, err
	}
	cipherText, err := hex.DecodeString(ks.CipherText)
	if err != nil {
		return 0, nil, err
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return 0, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return 0, nil, err
	}
	skBytes, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return 0, nil, errors.New("wrong password or corrupted keystore")
	}
	return ks.NodeID, new(big.Int).SetBytes(skBytes), nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 210_000, 32, sha256.New)
}
