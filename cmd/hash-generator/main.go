// Command hash-generator prints bcrypt hashes for seeding users directly
// into the database. Passwords are read one per line from stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/task-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost factor")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, auth.NewBcryptHasher(*cost)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, hasher auth.PasswordHasher) error {
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		password := scanner.Text()
		if password == "" {
			continue
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := fmt.Fprintln(out, hash); err != nil {
			return err
		}
	}
	return scanner.Err()
}
