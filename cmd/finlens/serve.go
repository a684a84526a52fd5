package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/finlens/internal/api"
	"github.com/Veraticus/finlens/internal/certs"
	"github.com/Veraticus/finlens/internal/config"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/menu"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the finlens HTTP API.

The local classifier, dictionary and menu tree are loaded once at startup.
LLM endpoints answer 503 when no API key is configured.

TLS is used when server.tls is set and the certificate and key files exist.
With --self-signed a certificate is generated instead of falling back to
plain HTTP.`,
		Example: `  finlens serve
  finlens serve --port 8443 --self-signed
  finlens serve --no-tls`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "listen host (default from config)")
	cmd.Flags().Int("port", 0, "listen port (default from config)")
	cmd.Flags().Bool("no-tls", false, "serve plain HTTP")
	cmd.Flags().Bool("self-signed", false, "generate a self-signed certificate when none is configured")

	_ = viper.BindPFlag("server.self_signed", cmd.Flags().Lookup("self-signed"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		viper.Set("server.host", host)
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		viper.Set("server.port", port)
	}
	if noTLS, _ := cmd.Flags().GetBool("no-tls"); noTLS {
		viper.Set("server.tls", false)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	classifier, err := loadClassifier(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load classifier: %w", err)
	}

	dict, err := loadDictionary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}
	logger.Info("Dictionary loaded", "entries", dict.Len())

	tree, err := menu.Load(cfg.Menu.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to load menu tree: %w", err)
	}

	services := api.Services{
		Classifier: classifier,
		Dictionary: dict,
	}

	if llmErr := cfg.RequireLLM(); llmErr != nil {
		logger.Warn("LLM endpoints disabled", "reason", llmErr)
	} else {
		svc, svcErr := newLLMService(ctx, cfg)
		if svcErr != nil {
			return svcErr
		}
		defer closeLLM(svc)
		withLLM(&services, svc, tree)
	}

	tlsConfig, mode, err := certs.Resolve(certs.Options{
		CertFile:   cfg.Server.CertFile,
		KeyFile:    cfg.Server.KeyFile,
		Enabled:    cfg.Server.TLS,
		SelfSigned: cfg.Server.SelfSigned,
	}, certs.NewFileManager(cfg.Server.CertDir))
	if err != nil {
		return fmt.Errorf("failed to configure TLS: %w", err)
	}
	if cfg.Server.TLS && mode == certs.ModePlain {
		logger.Warn("TLS requested but no certificate found, serving plain HTTP",
			"cert_file", cfg.Server.CertFile,
			"key_file", cfg.Server.KeyFile)
	}

	if ginMode(cfg) == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(services, api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	logger.Info("Starting finlens API", "addr", cfg.Server.Addr(), "mode", mode.String())
	return api.NewServer(cfg.Server.Addr(), router, tlsConfig, logger).Run(ctx)
}

// withLLM fills the LLM backed fields of services.
func withLLM(services *api.Services, svc *llm.Service, tree *menu.Tree) {
	services.LLMClassifier = llm.NewClassifier(svc)
	services.Definer = llm.NewDefiner(svc)
	services.MenuFinder = llm.NewMenuFinder(svc, tree)
}

// ginMode keeps gin's debug route dump for debug logging only.
func ginMode(cfg *config.Config) string {
	if cfg.Logging.Level == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
