package clients

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// mainnetChainID is the Hive mainnet chain id mixed into every signing digest.
const mainnetChainID = "beeab0de00000000000000000000000000000000000000000000000000000000"

// customJSONOpID is the serialized operation id of custom_json.
const customJSONOpID = 18

// expirationFormat is the timestamp layout the condenser API expects.
const expirationFormat = "2006-01-02T15:04:05"

// maxSigningAttempts bounds the expiration-bump loop used to obtain a
// canonical signature.
const maxSigningAttempts = 10

// customJSON is the single operation type the engine broadcasts: sidechain
// contract calls wrapped in a custom_json op.
type customJSON struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

// signedTransaction is the broadcast wire format.
type signedTransaction struct {
	RefBlockNum    uint16        `json:"ref_block_num"`
	RefBlockPrefix uint32        `json:"ref_block_prefix"`
	Expiration     string        `json:"expiration"`
	Operations     []interface{} `json:"operations"`
	Extensions     []interface{} `json:"extensions"`
	Signatures     []string      `json:"signatures"`
}

// signCustomJSON builds and signs a one-op transaction around the given
// custom_json. The signature must be canonical for the chain to accept it;
// since signing is deterministic, non-canonical results are retried with the
// expiration bumped by one second, which changes the digest without
// affecting validity.
func signCustomJSON(key *ecdsa.PrivateKey, refBlockNum uint16, refBlockPrefix uint32, expiration time.Time, op customJSON) (signedTransaction, error) {
	chainID, err := hex.DecodeString(mainnetChainID)
	if err != nil {
		return signedTransaction{}, errors.Wrap(err, "failed to decode chain id")
	}

	for attempt := 0; attempt < maxSigningAttempts; attempt++ {
		exp := expiration.Add(time.Duration(attempt) * time.Second).UTC()

		digest := sha256.Sum256(append(chainID, serializeTransaction(refBlockNum, refBlockPrefix, exp, op)...))
		sig, err := crypto.Sign(digest[:], key)
		if err != nil {
			return signedTransaction{}, errors.Wrap(err, "failed to sign transaction digest")
		}

		// crypto.Sign yields R || S || V; the chain wants V+31 || R || S
		if !isCanonicalSignature(sig[:64]) {
			continue
		}
		compact := make([]byte, 65)
		compact[0] = sig[64] + 31
		copy(compact[1:], sig[:64])

		return signedTransaction{
			RefBlockNum:    refBlockNum,
			RefBlockPrefix: refBlockPrefix,
			Expiration:     exp.Format(expirationFormat),
			Operations:     []interface{}{[]interface{}{"custom_json", op}},
			Extensions:     []interface{}{},
			Signatures:     []string{hex.EncodeToString(compact)},
		}, nil
	}

	return signedTransaction{}, errors.Errorf("no canonical signature found in %d attempts", maxSigningAttempts)
}

// serializeTransaction renders the transaction in graphene binary form for
// digest computation.
func serializeTransaction(refBlockNum uint16, refBlockPrefix uint32, expiration time.Time, op customJSON) []byte {
	var buf bytes.Buffer

	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], refBlockNum)
	buf.Write(u16[:])

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], refBlockPrefix)
	buf.Write(u32[:])

	binary.LittleEndian.PutUint32(u32[:], uint32(expiration.Unix()))
	buf.Write(u32[:])

	writeUvarint(&buf, 1) // operation count
	writeUvarint(&buf, customJSONOpID)

	writeUvarint(&buf, uint64(len(op.RequiredAuths)))
	for _, account := range op.RequiredAuths {
		writeString(&buf, account)
	}
	writeUvarint(&buf, uint64(len(op.RequiredPostingAuths)))
	for _, account := range op.RequiredPostingAuths {
		writeString(&buf, account)
	}
	writeString(&buf, op.ID)
	writeString(&buf, op.JSON)

	writeUvarint(&buf, 0) // extensions

	return buf.Bytes()
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

// isCanonicalSignature reports whether the 64-byte r||s signature is in the
// canonical low form the chain accepts.
func isCanonicalSignature(sig []byte) bool {
	return sig[0]&0x80 == 0 &&
		!(sig[0] == 0 && sig[1]&0x80 == 0) &&
		sig[32]&0x80 == 0 &&
		!(sig[32] == 0 && sig[33]&0x80 == 0)
}
