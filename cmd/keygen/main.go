// Package main 生成 API Key 并打印使用说明
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func main() {
	length := flag.Int("length", 32, "Length of the API key")
	flag.Parse()

	key, err := generateKey(*length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		os.Exit(1)
	}

	bold := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Println()
	fmt.Println(bold("=== LCSH API Key Generator ==="))
	fmt.Println()
	fmt.Printf("Your new API key: %s\n", cyan(key))
	fmt.Println()
	fmt.Println("1. Add it to your .env file (multiple keys separated by commas):")
	fmt.Printf("   API_KEYS=%q\n", key)
	fmt.Println()
	fmt.Println("2. Or pass it to the container:")
	fmt.Printf("   docker run -e API_KEYS=%q -p 8000:8000 lcsh-api\n", key)
	fmt.Println()
	fmt.Println("3. Send it with each request:")
	fmt.Printf("   curl -H \"X-API-Key: %s\" -H \"Content-Type: application/json\" \\\n", key)
	fmt.Println(`     -d '{"terms": ["Digital humanities"]}' http://localhost:8000/recommend`)
	fmt.Println()
	fmt.Println(warn("Keep this key secret."))
}

// generateKey 从字母数字表中均匀取 length 个字符
func generateKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive, got %d", length)
	}
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
