package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/0xhanvalen/skaterbirds-nft/services/mintd"
)

func runToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "Caller address (bech32 or 0x hex)")
	secretEnv := fs.String("secret-env", defaultSecretEnv, "Environment variable containing the HS256 secret")
	issuer := fs.String("issuer", "", "Token issuer claim")
	audience := fs.String("audience", "", "Token audience claim")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*subject) == "" {
		return fmt.Errorf("-subject is required")
	}
	secret := strings.TrimSpace(os.Getenv(*secretEnv))
	if secret == "" {
		return fmt.Errorf("%s is not set", *secretEnv)
	}
	token, err := mintd.IssueToken(secret, *subject, *issuer, *audience, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
