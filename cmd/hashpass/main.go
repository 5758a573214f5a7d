// Command hashpass prints a bcrypt hash for seeding an admin account.
//
//	go run ./cmd/hashpass 'S3cure-Passw0rd!'
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"gameforge.gg/platform/internal/handlers"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(2)
	}
	password := os.Args[1]
	if err := handlers.ValidatePassword(password); err != nil {
		fmt.Fprintln(os.Stderr, "weak password:", err)
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash failed:", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
