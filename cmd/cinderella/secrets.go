package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"cinderella/internal/security"
)

type secretsFlags struct {
	plain     string
	encrypted string
	password  string
}

func parseSecretsFlags(name string, args []string) (secretsFlags, error) {
	var f secretsFlags
	flags := newFlagSet(name)
	flags.StringVar(&f.plain, "plain", security.PlainSecretsFile, "plaintext secrets file")
	flags.StringVar(&f.encrypted, "encrypted", security.EncryptedSecretsFile, "encrypted secrets file")
	flags.StringVarP(&f.password, "password", "p", "", "password (prompted when omitted)")
	if err := flags.Parse(args); err != nil {
		return f, err
	}
	if flags.NArg() != 0 {
		return f, fmt.Errorf("%s takes no arguments", name)
	}
	return f, nil
}

func runEncrypt(args []string) error {
	f, err := parseSecretsFlags("encrypt", args)
	if err != nil {
		return err
	}
	password, err := readPassword(f.password, true)
	if err != nil {
		return err
	}

	if err := security.EncryptFile(f.plain, f.encrypted, password); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "encrypted %s to %s\n", f.plain, f.encrypted)
	return nil
}

func runDecrypt(args []string) error {
	f, err := parseSecretsFlags("decrypt", args)
	if err != nil {
		return err
	}
	password, err := readPassword(f.password, false)
	if err != nil {
		return err
	}

	plaintext, err := security.DecryptFile(f.encrypted, password)
	if err != nil {
		return err
	}
	if _, err := security.ParseSecrets(plaintext); err != nil {
		return err
	}
	if err := os.WriteFile(f.plain, plaintext, 0600); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "decrypted %s to %s\n", f.encrypted, f.plain)
	return nil
}

// readPassword returns flagValue when set and prompts on the terminal
// otherwise. confirm asks twice.
func readPassword(flagValue string, confirm bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return "", fmt.Errorf("no terminal available for the password prompt (use -p)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
