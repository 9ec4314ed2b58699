package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"fieldservice-admin/migrations"
	"fieldservice-admin/pkg/config"
)

func main() {
	cfg := config.New()

	dsn := pflag.String("dsn", cfg.Postgres.DSN, "строка подключения к PostgreSQL")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Использование: migrate [--dsn DSN] up|down|status\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	var err error
	switch pflag.Arg(0) {
	case "up":
		err = migrations.Up(*dsn)
	case "down":
		err = migrations.Down(*dsn)
	case "status":
		err = migrations.Status(*dsn)
	default:
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка миграции: %v\n", err)
		os.Exit(1)
	}
}
