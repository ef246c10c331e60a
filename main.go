package main

import (
	"fmt"
	"os"
	"strconv"

	_ "go.uber.org/automaxprocs"

	"github.com/lguibr/pacgo/scoreboard"
	"github.com/lguibr/pacgo/server"
	"github.com/lguibr/pacgo/utils"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <levels_dir> <max_games> <fifo_registo>\n", os.Args[0])
		os.Exit(1)
	}
	levelsDir := os.Args[1]
	maxGames, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid max_games %q\n", os.Args[2])
		os.Exit(1)
	}
	fifoPath := os.Args[3]

	cfg, err := utils.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg)

	scores := scoreboard.New(cfg.ScoresLog)
	srv, err := server.New(server.Options{
		LevelsDir:   levelsDir,
		MaxGames:    maxGames,
		FifoPath:    fifoPath,
		MetricsAddr: cfg.MetricsAddr,
	}, scores, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid server options")
	}

	logger.Info().
		Str("levels_dir", levelsDir).
		Int("max_games", maxGames).
		Str("fifo", fifoPath).
		Msg("starting pacgo server")

	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
