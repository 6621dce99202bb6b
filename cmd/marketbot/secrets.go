package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"golang.org/x/term"

	"marketbot/pkg/config"
)

// EnvSecretsPassword lets non-interactive environments supply the secrets
// file password without a terminal prompt.
const EnvSecretsPassword = "MARKETBOT_SECRETS_PASSWORD"

// loadSecretsIfPresent decrypts dir's secrets file into memory when one
// exists. Without a file, env vars remain the only credential source.
func loadSecretsIfPresent(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, config.SecretsFileName)); os.IsNotExist(err) {
		return nil
	}
	password, err := secretsPassword(false)
	if err != nil {
		return err
	}
	return config.LoadSecrets(dir, password)
}

// secretsPassword resolves the secrets password from the environment or an
// interactive prompt. confirm forces double entry for new files.
func secretsPassword(confirm bool) (string, error) {
	if v := os.Getenv(EnvSecretsPassword); v != "" {
		return v, nil
	}

	fmt.Print("Secrets password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if confirm {
		fmt.Print("Confirm password: ")
		confirmed, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if !bytes.Equal(password, confirmed) {
			return "", fmt.Errorf("passwords do not match")
		}
	}
	return string(password), nil
}

// runSecrets manages the encrypted credentials file.
func runSecrets(args []string) int {
	fs := flag.NewFlagSet("secrets", flag.ExitOnError)
	dir := fs.String("dir", ".", "Directory holding the secrets file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "secrets: expected a subcommand (set, list)")
		return 2
	}

	switch fs.Arg(0) {
	case "set":
		if fs.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "secrets set: expected a secret name (e.g. TAVILY_API_KEY)")
			return 2
		}
		if err := secretsSet(*dir, fs.Arg(1)); err != nil {
			fmt.Fprintf(os.Stderr, "secrets set: %v\n", err)
			return 1
		}
		return 0
	case "list":
		if err := secretsList(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "secrets list: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "secrets: unknown subcommand %q\n", fs.Arg(0))
		return 2
	}
}

// secretsSet stores one secret, creating the encrypted file on first use.
func secretsSet(dir, name string) error {
	path := filepath.Join(dir, config.SecretsFileName)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	password, err := secretsPassword(isNew)
	if err != nil {
		return err
	}

	if !isNew {
		if err := config.LoadSecrets(dir, password); err != nil {
			return err
		}
	}

	fmt.Printf("Value for %s: ", name)
	value, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read value: %w", err)
	}

	secrets := make(map[string]string)
	for _, existing := range config.SecretNames() {
		if v, err := config.GetSecret(existing); err == nil {
			secrets[existing] = v
		}
	}
	secrets[name] = string(value)

	if err := config.SaveSecrets(dir, password, secrets); err != nil {
		return err
	}
	fmt.Printf("stored %s in %s\n", name, path)
	return nil
}

// secretsList prints stored secret names, never values.
func secretsList(dir string) error {
	password, err := secretsPassword(false)
	if err != nil {
		return err
	}
	if err := config.LoadSecrets(dir, password); err != nil {
		return err
	}

	names := config.SecretNames()
	if len(names) == 0 {
		fmt.Println("no secrets stored")
		return nil
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
