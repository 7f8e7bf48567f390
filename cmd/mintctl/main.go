package main

import (
	"fmt"
	"io"
	"os"
)

const (
	defaultPassEnv   = "SKB_OWNER_PASS"
	defaultSecretEnv = "MINTD_JWT_SECRET"
	defaultKeystore  = "owner.keystore"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		usage(stdout)
		return fmt.Errorf("command required")
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:], stdout)
	case "address":
		return runAddress(args[1:], stdout)
	case "token":
		return runToken(args[1:], stdout)
	case "export":
		return runExport(args[1:], stdout)
	case "amount":
		return runAmount(args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mintctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  keygen   generate the collection owner key into a v3 keystore")
	fmt.Fprintln(w, "  address  print the address held by a keystore")
	fmt.Fprintln(w, "  token    issue a caller token for the mintd API")
	fmt.Fprintln(w, "  export   export the mintd audit log as csv, jsonl or parquet")
	fmt.Fprintln(w, "  amount   convert between decimal amounts and wei (parse|format)")
}
