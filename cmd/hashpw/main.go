// Command hashpw は標準入力のパスワードから users.toml 用の bcrypt ハッシュを出力します。
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/yourusername/chat-demo/internal/auth"
)

func main() {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		log.Fatal("password is empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
