package clients

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // Hive key checksums are ripemd160 by protocol
)

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// wifVersion is the version byte every Hive WIF starts with.
const wifVersion = 0x80

// publicKeyPrefix prefixes base58 public keys on the Hive mainnet.
const publicKeyPrefix = "STM"

// DecodeWIF decodes a base58check private key in wallet import format.
func DecodeWIF(wif string) (*ecdsa.PrivateKey, error) {
	raw, err := b58Decode(wif)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode WIF")
	}
	// version byte + 32 key bytes + optional compression flag + 4 checksum bytes
	if len(raw) != 37 && len(raw) != 38 {
		return nil, errors.Errorf("invalid WIF length %d", len(raw))
	}

	payload, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	digest := sha256.Sum256(payload)
	digest = sha256.Sum256(digest[:])
	if !bytes.Equal(checksum, digest[:4]) {
		return nil, errors.New("invalid WIF checksum")
	}

	if payload[0] != wifVersion {
		return nil, errors.Errorf("invalid WIF version byte 0x%02x", payload[0])
	}
	if len(payload) == 34 && payload[33] != 0x01 {
		return nil, errors.Errorf("invalid WIF compression flag 0x%02x", payload[33])
	}

	key, err := crypto.ToECDSA(payload[1:33])
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key material")
	}
	return key, nil
}

// PublicKeyString renders the public half of key in the STM... form used by
// account authorities on chain.
func PublicKeyString(key *ecdsa.PrivateKey) string {
	compressed := crypto.CompressPubkey(&key.PublicKey)

	hasher := ripemd160.New()
	hasher.Write(compressed)
	checksum := hasher.Sum(nil)[:4]

	return publicKeyPrefix + b58Encode(append(compressed, checksum...))
}

func b58Decode(s string) ([]byte, error) {
	result := big.NewInt(0)
	radix := big.NewInt(58)
	for _, r := range s {
		idx := bytes.IndexRune([]byte(b58Alphabet), r)
		if idx < 0 {
			return nil, errors.Errorf("invalid base58 character %q", r)
		}
		result.Mul(result, radix)
		result.Add(result, big.NewInt(int64(idx)))
	}

	decoded := result.Bytes()

	// leading '1' characters encode leading zero bytes
	zeros := 0
	for _, r := range s {
		if r != '1' {
			break
		}
		zeros++
	}

	return append(make([]byte, zeros), decoded...), nil
}

func b58Encode(b []byte) string {
	value := new(big.Int).SetBytes(b)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var encoded []byte
	for value.Sign() > 0 {
		value.DivMod(value, radix, mod)
		encoded = append(encoded, b58Alphabet[mod.Int64()])
	}

	for _, c := range b {
		if c != 0 {
			break
		}
		encoded = append(encoded, '1')
	}

	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded)
}
