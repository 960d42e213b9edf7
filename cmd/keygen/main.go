// Command keygen issues license keys for the label printer.
//
//	keygen -email customer@example.com -days 365
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"labelcli/internal/config"
	"labelcli/internal/license"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(2)
	}
}

func run(args []string, stdout io.Writer, now time.Time) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	email := fs.String("email", "", "customer email the key is bound to")
	days := fs.Int("days", config.DefaultLicenseDuration, "license duration in days from today")
	secret := fs.String("secret", config.DefaultLicenseSecret, "shared license secret")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("-email is required")
	}
	if *days < 1 || *days > config.DefaultValidationWindow-1 {
		return fmt.Errorf("-days must be between 1 and %d so the key validates", config.DefaultValidationWindow-1)
	}

	key, expiry := license.Generate(strings.TrimSpace(*email), *days, *secret, now)
	fmt.Fprintf(stdout, "Email:   %s\n", strings.TrimSpace(*email))
	fmt.Fprintf(stdout, "Key:     %s\n", key)
	fmt.Fprintf(stdout, "Expires: %s\n", expiry.Format(license.DateLayout))
	return nil
}
