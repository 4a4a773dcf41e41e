// Package payload recovers the bootstrap request for one invocation: a
// file-resident, hex-encoded, AES-256-CBC encrypted JSON document.
package payload

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the decrypted inbound payload. It is constructed once per
// invocation and never mutated.
type Request struct {
	ChatID           int64  `json:"chat_id"`
	MessageID        int64  `json:"message_id"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
	Question         string `json:"question"`
	Style            string `json:"style,omitempty"`
}

const (
	keySize = 32
	ivSize  = aes.BlockSize
)

// DecryptRequest decodes and decrypts the hex-encoded ciphertext with the
// hex-encoded secret and parses the resulting JSON document.
func DecryptRequest(encryptedHex, secretHex string) (*Request, error) {
	secret, err := hex.DecodeString(strings.TrimSpace(secretHex))
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	plaintext, err := Decrypt(encryptedHex, secret)
	if err != nil {
		return nil, err
	}
	var req Request
	if err := json.Unmarshal(plaintext, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

// Decrypt recovers the plaintext from a hex-encoded AES-256-CBC ciphertext.
// The secret carries the cipher key in its first 32 bytes and the IV in the
// following 16.
func Decrypt(encryptedHex string, secret []byte) ([]byte, error) {
	if len(secret) < keySize+ivSize {
		return nil, fmt.Errorf("secret too short: need %d bytes, got %d", keySize+ivSize, len(secret))
	}
	data, err := hex.DecodeString(strings.TrimSpace(encryptedHex))
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a positive multiple of the block size", len(data))
	}

	block, err := aes.NewCipher(secret[:keySize])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, secret[keySize:keySize+ivSize]).CryptBlocks(plaintext, data)

	return trimPKCS7(plaintext)
}

func trimPKCS7(data []byte) ([]byte, error) {
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
