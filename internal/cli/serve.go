package cli

import (
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/inference"
	"github.com/emiliopalmerini/poisonbench/internal/ml"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions from a trained model",
	Long: `Load a model once and serve it over HTTP.

Endpoints:
  GET  /health    {"status":"ok"}
  POST /predict   {"instances": [[...], ...]} -> {"predictions": [...]}
  GET  /schema    feature schema the model expects
  GET  /metrics   Prometheus metrics

Examples:
  poisonbench serve                          # models/model.json on port 8080
  poisonbench serve --model m.json.sz -p 3000`,
	RunE: runServe,
}

var (
	servePort  int
	serveModel string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (env POISONBENCH_SERVE_PORT)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Model path (env POISONBENCH_MODEL_PATH)")
}

func runServe(cmd *cobra.Command, args []string) error {
	port, modelPath := cfg.Serve.Port, cfg.Serve.ModelPath
	if cmd.Flags().Changed("port") {
		port = servePort
	}
	if cmd.Flags().Changed("model") {
		modelPath = serveModel
	}

	model, err := ml.LoadModel(modelPath)
	if err != nil {
		return err
	}
	logger.Info("model loaded", "path", modelPath, "trees", len(model.Forest.Trees), "classes", model.Schema.Classes)

	ctx, cancel := signalContext()
	defer cancel()

	return inference.NewServer(model, port, logger).Start(ctx)
}
