package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/fdg312/food-advisor/internal/dbmigrate"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-dir path] [%s]\n", strings.Join(dbmigrate.Commands, "|"))
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg := config.Load()
	if err := dbmigrate.Migrate(context.Background(), cfg, command, *dir, logger); err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("migrate failed")
	}

	logger.Info().Str("command", command).Msg("migrate completed")
}
