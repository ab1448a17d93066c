package main

import (
	"fmt"
	"os"

	"memorial/internal/services/auth"
)

// hashpass печатает bcrypt-хеш пароля для секции auth.accounts конфигурации
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
