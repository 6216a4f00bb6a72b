// Command sealcfg encrypts a plaintext JSON configuration file into the
// sealed bundle format the server loads at startup. The key comes from the
// ENCRYPT_KEY environment variable or the -key flag.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/miketerry-org/kickstart-mvc/internal/vault"
)

func main() {
	var (
		keyHex = flag.String("key", os.Getenv("ENCRYPT_KEY"), "64-hex-character encryption key")
		in     = flag.String("in", "", "plaintext JSON file")
		out    = flag.String("out", "", "sealed bundle to write")
	)
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: sealcfg -in config.json -out config.secure [-key HEX]")
		os.Exit(2)
	}

	if err := run(*keyHex, *in, *out); err != nil {
		fmt.Fprintln(os.Stderr, "sealcfg:", err)
		os.Exit(1)
	}
}

func run(keyHex, in, out string) error {
	key, err := vault.ParseKey(keyHex)
	if err != nil {
		return err
	}

	plaintext, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	// Reject malformed input here rather than at server startup.
	var doc any
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", in, err)
	}

	blob, err := vault.Seal(key, plaintext)
	if err != nil {
		return err
	}
	return os.WriteFile(out, blob, 0o600)
}
