package main

import (
	"fmt"
	"os"

	"github.com/authgate/authgate/internal/components/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/hash/main.go <password>")
		os.Exit(1)
	}

	password := os.Args[1]
	hash, err := auth.NewBcryptHasher().Hash(password)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Hash: %s\n", hash)
}
