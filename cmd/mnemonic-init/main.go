package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betbot/aavebot/pkg/account"
	"github.com/betbot/aavebot/pkg/config"
	"github.com/betbot/aavebot/pkg/secretstore"
)

// 把助记词写入加密的 badger 密钥库（从标准输入读取，或 -generate 生成新的）

func main() {
	var (
		dbPath    = flag.String("badger", getenv(config.EnvSecretDB, "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv(config.EnvSecretKey, ""), "badger encryption key (32 bytes base64/hex)")
		path      = flag.String("path", account.DefaultDerivationPath, "derivation path stored alongside the mnemonic")
		generate  = flag.Bool("generate", false, "generate a new 12-word mnemonic instead of reading one")
		force     = flag.Bool("force", false, "overwrite an existing mnemonic")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set %s or pass -secret-key", config.EnvSecretKey))
	}

	var mn string
	if *generate {
		if mn, err = account.NewMnemonic(); err != nil {
			fatal(err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "请输入助记词（12/15/18/21/24 个单词），输入完成后回车：")
		mn = readLine()
	}
	if mn == "" {
		fatal(errors.New("mnemonic is empty"))
	}

	// 写入前先校验助记词和派生路径
	acct, err := account.FromMnemonic(mn, *path)
	if err != nil {
		fatal(err)
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{Path: *dbPath, EncryptionKey: keyBytes})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	if _, exists, err := ss.GetString(secretstore.KeyMnemonic); err != nil {
		fatal(err)
	} else if exists && !*force {
		fatal(fmt.Errorf("mnemonic already stored in %s (use -force to overwrite)", *dbPath))
	}

	if _, err := ss.Import(map[string]string{
		secretstore.KeyMnemonic:       mn,
		secretstore.KeyDerivationPath: *path,
	}); err != nil {
		fatal(err)
	}

	if *generate {
		fmt.Fprintln(os.Stderr, "新助记词（请离线备份）：")
		fmt.Fprintln(os.Stderr, mn)
	}
	fmt.Fprintf(os.Stderr, "已写入：%s 账户=%s\n", *dbPath, acct.Address.Hex())
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func readLine() string {
	br := bufio.NewReader(os.Stdin)
	s, _ := br.ReadString('\n')
	return strings.TrimSpace(s)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
