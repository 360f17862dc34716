// Package signing produces and verifies keccak-based secp256k1 signatures,
// used to turn withdrawal receipts into verifiable proofs of release.
package signing

import (
	"bufio"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Signer allows you to sign a big stream of bytes by calling Sum multiple times, then Sign.
type Signer struct {
	state      crypto.KeccakState
	privateKey *ecdsa.PrivateKey
}

// HexToECDSA creates an ecdsa.PrivateKey from a hex-encoded string.
func HexToECDSA(hexKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(hexKey)
}

// FileToECDSA creates an ecdsa.PrivateKey from a file containing a hex-encoded key.
func FileToECDSA(filename string) (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(filename)
}

// SignatureBytesToHex hex-encodes a signature.
func SignatureBytesToHex(sig []byte) string {
	return hex.EncodeToString(sig)
}

// NewSigner creates a new signer with a private key and internal state.
func NewSigner(pk *ecdsa.PrivateKey) *Signer {
	return &Signer{
		state:      sha3.NewLegacyKeccak256().(crypto.KeccakState),
		privateKey: pk,
	}
}

// Sum updates the hash state with a new chunk.
func (s *Signer) Sum(chunk []byte) {
	s.state.Write(chunk)
}

// signState returns the signature of the hash state.
func (s *Signer) signState() ([]byte, error) {
	var h common.Hash
	_, _ = s.state.Read(h[:])
	signature, err := crypto.Sign(h.Bytes(), s.privateKey)
	if err != nil {
		return []byte{}, fmt.Errorf("failed to sign state: %s", err)
	}

	return signature, nil
}

// SignBytes returns the signature of a byte slice.
func (s *Signer) SignBytes(content []byte) ([]byte, error) {
	if len(content) == 0 {
		return nil, errors.New("error with data: content is empty")
	}

	s.state.Reset()
	s.Sum(content)
	return s.signState()
}

// SignFile returns the signature of a file's content.
func (s *Signer) SignFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading [file=%v]: %s", filename, err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %s", err)
	}
	if info.Size() == 0 {
		return nil, errors.New("error with file: content is empty")
	}

	s.state.Reset()
	r := bufio.NewReader(file)
	buf := make([]byte, 0, 4*1024) // 4KB buffer
	for {
		n, err := r.Read(buf[:cap(buf)])
		buf = buf[:n]
		if n == 0 {
			if err == nil {
				continue
			}
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read error: %s", err)
		}

		s.Sum(buf)
	}

	return s.signState()
}

// RecoverSigner returns the address that signed content with SignBytes.
func RecoverSigner(content []byte, signature []byte) (common.Address, error) {
	state := sha3.NewLegacyKeccak256().(crypto.KeccakState)
	state.Write(content)

	var h common.Hash
	_, _ = state.Read(h[:])

	pubk, err := crypto.SigToPub(h.Bytes(), signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %s", err)
	}

	return crypto.PubkeyToAddress(*pubk), nil
}
