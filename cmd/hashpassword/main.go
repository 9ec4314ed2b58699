package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"fieldservice-admin/pkg/utils"
)

// Печатает bcrypt-хеш для ADMIN_PASSWORD_HASH. Пароль читается из stdin,
// если не передан флагом.
func main() {
	password := pflag.StringP("password", "p", "", "пароль администратора")
	pflag.Parse()

	if *password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "Пароль не передан")
			os.Exit(2)
		}
		*password = strings.TrimRight(line, "\r\n")
	}
	if len(*password) < 6 {
		fmt.Fprintln(os.Stderr, "Пароль короче 6 символов")
		os.Exit(2)
	}

	hash, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка хеширования: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
