package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// WalletPrefix is the bech32 human-readable part of collector and owner
// wallets.
const WalletPrefix = "skb"

// AddressLength is the size of a raw wallet address.
const AddressLength = 20

// ErrForeignPrefix is returned for bech32 strings minted under another
// human-readable part.
var ErrForeignPrefix = errors.New("crypto: address prefix is not " + WalletPrefix)

// Address is a 20-byte wallet address.
type Address [AddressLength]byte

// String renders the bech32 form.
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(WalletPrefix, conv)
	if err != nil {
		return ""
	}
	return encoded
}

// Hex renders the EIP-55 checksummed form.
func (a Address) Hex() string {
	return common.Address(a).Hex()
}

// ParseAddress accepts a bech32 wallet address or a 0x-prefixed hex address.
func ParseAddress(value string) ([AddressLength]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [AddressLength]byte{}, fmt.Errorf("address required")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		if !common.IsHexAddress(trimmed) {
			return [AddressLength]byte{}, fmt.Errorf("invalid hex address %q", value)
		}
		return common.HexToAddress(trimmed), nil
	}
	return decodeBech32(trimmed)
}

func decodeBech32(value string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	prefix, decoded, err := bech32.Decode(value)
	if err != nil {
		return out, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != WalletPrefix {
		return out, fmt.Errorf("%w: got %q", ErrForeignPrefix, prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return out, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != AddressLength {
		return out, fmt.Errorf("decoded address must be %d bytes, got %d", AddressLength, len(conv))
	}
	copy(out[:], conv)
	return out, nil
}

// FormatAddress renders a raw address in bech32 wallet form.
func FormatAddress(raw [AddressLength]byte) string {
	return Address(raw).String()
}

// PrivateKey is a secp256k1 wallet key.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey is the public half of a PrivateKey.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey draws a fresh key from crypto/rand.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(ethcrypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PubKey returns the public half of k.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the wallet address of the key.
func (k *PublicKey) Address() Address {
	return Address(ethcrypto.PubkeyToAddress(*k.PublicKey))
}
