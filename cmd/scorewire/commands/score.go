package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/scorewire/scorewire-go/scores"
)

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "fetch the current credit score",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}

			score, err := scores.New(client).Current(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%d / %d (%s, %s)\n", score.Value, score.MaxPossible, score.Band, score.Provider)
			return nil
		},
	}
}
