package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/accounts/keystore"
)

func TestAddressRoundTripBech32AndHex(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()

	fromBech, err := ParseAddress(addr.String())
	if err != nil {
		t.Fatalf("parse bech32: %v", err)
	}
	fromHex, err := ParseAddress(addr.Hex())
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if fromBech != fromHex {
		t.Fatalf("bech32 and hex decode differ: %x vs %x", fromBech, fromHex)
	}
	if FormatAddress(fromHex) != addr.String() {
		t.Fatalf("unexpected formatted address %s", FormatAddress(fromHex))
	}
}

func TestParseAddressRejectsForeignPrefix(t *testing.T) {
	raw := [AddressLength]byte{1, 2, 3}
	conv, err := bech32.ConvertBits(raw[:], 8, 5, true)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	foreign, err := bech32.Encode("nft", conv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := ParseAddress(foreign); !errors.Is(err, ErrForeignPrefix) {
		t.Fatalf("expected ErrForeignPrefix, got %v", err)
	}
	if got, err := ParseAddress(FormatAddress(raw)); err != nil || got != raw {
		t.Fatalf("round trip failed: %x %v", got, err)
	}
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "0x1234", "skb1notanaddress", "hello"} {
		if _, err := ParseAddress(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestKeystoreCreateAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owner.keystore")
	key, err := CreateKeystore(path, "pass", false, keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		t.Fatalf("create keystore: %v", err)
	}
	if _, err := CreateKeystore(path, "pass", false, keystore.LightScryptN, keystore.LightScryptP); !errors.Is(err, ErrKeystoreExists) {
		t.Fatalf("expected ErrKeystoreExists, got %v", err)
	}
	loaded, err := LoadFromKeystore(path, "pass")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	if loaded.PubKey().Address().String() != key.PubKey().Address().String() {
		t.Fatalf("loaded key mismatch")
	}
	if _, err := LoadFromKeystore(path, "wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat keystore: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected keystore mode %v", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %d entries", len(entries))
	}
}
