package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betbot/aavebot/pkg/config"
	"github.com/betbot/aavebot/pkg/secretstore"
	"github.com/joho/godotenv"
)

// 把 .env 中的 PRIVATE_KEY / MNEMONIC / DERIVATION_PATH 导入加密的 badger 密钥库，
// 之后只需配置 AAVEBOT_SECRET_DB + AAVEBOT_SECRET_KEY 即可运行，不必再把私钥放在明文文件里

func main() {
	var (
		inPath    = flag.String("in", ".env", "input .env file path")
		dbPath    = flag.String("badger", getenv(config.EnvSecretDB, "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv(config.EnvSecretKey, ""), "badger encryption key (32 bytes base64/hex)")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set %s or pass -secret-key", config.EnvSecretKey))
	}

	env, err := godotenv.Read(*inPath)
	if err != nil {
		fatal(err)
	}
	entries := secretstore.WalletEntries(env)
	if len(entries) == 0 {
		fatal(errors.New("no PRIVATE_KEY / MNEMONIC / DERIVATION_PATH entries found"))
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: keyBytes,
	})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	written, err := ss.Import(entries)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "已导入 %d 项到 badger：%s（%s）\n", len(written), *dbPath, strings.Join(written, ", "))
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
