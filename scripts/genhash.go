// One-off seeding helper: go run scripts/genhash.go <username> <password>
// Prints an INSERT for the users table with the bcrypt hash.
package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: genhash <username> <password>")
		os.Exit(2)
	}
	// Stored lowercased, same as the register flow.
	username := strings.ToLower(strings.TrimSpace(os.Args[1]))
	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("INSERT INTO users (username, password_hash) VALUES ('%s', '%s');\n", username, string(hash))
}
