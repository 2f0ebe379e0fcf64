package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/goccy/go-json"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-kafka/constants"
)

const kmsKeyPrefix = "arn:aws:kms:"

// secretKey returns the local AES key, or a KMS client when the configured
// key is a KMS arn. Both are empty when encryption is disabled.
func secretKey(ctx context.Context) ([]byte, *kms.Client, error) {
	key := strings.TrimSpace(viper.GetString(constants.EncryptionKey))
	if key == "" {
		return nil, nil, nil
	}

	if strings.HasPrefix(key, kmsKeyPrefix) {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, ConfigError.Wrap(err, "failed to load AWS config")
		}
		return []byte(key), kms.NewFromConfig(cfg), nil
	}

	// local AES-GCM with a SHA-256 derived key
	hash := sha256.Sum256([]byte(key))
	return hash[:], nil, nil
}

func localCipher(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ConfigError.Wrap(err, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ConfigError.Wrap(err, "failed to create GCM")
	}

	return gcm, nil
}

// Decrypt decodes a json string holding base64 ciphertext of a config file.
// The text is returned untouched when no encryption key is configured.
func Decrypt(encryptedText string) (string, error) {
	if strings.TrimSpace(encryptedText) == "" {
		return "", ConfigError.New("cannot decrypt empty or whitespace-only input")
	}

	ctx := context.Background()
	key, kmsClient, err := secretKey(ctx)
	if err != nil {
		return "", err
	}
	if len(key) == 0 {
		return encryptedText, nil
	}

	var encoded string
	if err := json.Unmarshal([]byte(encryptedText), &encoded); err != nil {
		return "", ConfigError.Wrap(err, "encrypted config must be a json string")
	}

	encryptedData, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ConfigError.Wrap(err, "failed to decode base64 data")
	}

	if kmsClient != nil {
		result, err := kmsClient.Decrypt(ctx, &kms.DecryptInput{
			CiphertextBlob: encryptedData,
		})
		if err != nil {
			return "", ConfigError.Wrap(err, "failed to decrypt with KMS")
		}
		return string(result.Plaintext), nil
	}

	gcm, err := localCipher(key)
	if err != nil {
		return "", err
	}

	if len(encryptedData) < gcm.NonceSize() {
		return "", ConfigError.New("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, encryptedData[:gcm.NonceSize()], encryptedData[gcm.NonceSize():], nil)
	if err != nil {
		return "", ConfigError.Wrap(err, "failed to decrypt")
	}

	return string(plaintext), nil
}

// Encrypt produces the json string Decrypt accepts, using the local key
func Encrypt(plaintext string) (string, error) {
	key, kmsClient, err := secretKey(context.Background())
	if err != nil {
		return "", err
	}
	if len(key) == 0 || kmsClient != nil {
		return "", ConfigError.New("local encryption key is not configured")
	}

	gcm, err := localCipher(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", ConfigError.Wrap(err, "failed to generate nonce")
	}

	encoded, err := json.Marshal(base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}
