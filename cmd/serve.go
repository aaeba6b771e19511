package cmd

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/strumline/strumline/constants"
	"github.com/strumline/strumline/mutation"
	"github.com/strumline/strumline/server"
	"github.com/strumline/strumline/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the session server",
	Long:  `Runs the session server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := store.Open(constants.GetScoresDBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	generator := mutation.NewRiffMutator(
		mutation.NewStrengthPolicy(mutation.NewRuleAgent()),
	)

	srv := server.New(log, generator, st)
	handler := cors.Default().Handler(srv.Router())

	addr := constants.GetListenAddr()
	log.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, handler)
}
