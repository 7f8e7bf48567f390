package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/0xhanvalen/skaterbirds-nft/cmd/internal/passphrase"
	"github.com/0xhanvalen/skaterbirds-nft/crypto"
)

const minPassphraseLen = 8

func runKeygen(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	path := fs.String("keystore", defaultKeystore, "Output path for the owner keystore")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	light := fs.Bool("light", false, "Use light scrypt parameters (testing only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pass, err := passphrase.NewSource(*passEnv, "owner keystore", passphrase.WithConfirm(), passphrase.WithMinLength(minPassphraseLen)).Get()
	if err != nil {
		return err
	}
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if *light {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	key, err := crypto.CreateKeystore(*path, pass, *force, scryptN, scryptP)
	if err != nil {
		return fmt.Errorf("create keystore: %w", err)
	}
	addr := key.PubKey().Address()
	fmt.Fprintf(stdout, "keystore: %s\n", *path)
	fmt.Fprintf(stdout, "owner:    %s\n", addr.String())
	fmt.Fprintf(stdout, "hex:      %s\n", addr.Hex())
	return nil
}

func runAddress(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	path := fs.String("keystore", defaultKeystore, "Path to the owner keystore")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pass, err := passphrase.NewSource(*passEnv, "owner keystore").Get()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(*path, pass)
	if err != nil {
		return err
	}
	addr := key.PubKey().Address()
	fmt.Fprintf(stdout, "%s %s\n", addr.String(), addr.Hex())
	return nil
}
