package main

import (
	"fmt"
	"io"

	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
)

func runAmount(args []string, stdout io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: mintctl amount parse|format <value>")
	}
	switch args[0] {
	case "parse":
		value, err := mint.ParseAmount(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, value.String())
	case "format":
		value, err := mint.ParseWei(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, mint.FormatAmount(value))
	default:
		return fmt.Errorf("unknown amount mode %q", args[0])
	}
	return nil
}
