package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/application/usecase"
	infraemail "github.com/ticodev/facturele-api/internal/infrastructure/email"
	infrahacienda "github.com/ticodev/facturele-api/internal/infrastructure/hacienda"
	"github.com/ticodev/facturele-api/internal/infrastructure/hacienda/signer"
	"github.com/ticodev/facturele-api/internal/infrastructure/postgres"
	"github.com/ticodev/facturele-api/internal/infrastructure/rates"
	httpRouter "github.com/ticodev/facturele-api/internal/interfaces/http"
	"github.com/ticodev/facturele-api/pkg/config"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
	"github.com/ticodev/facturele-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("hacienda", cfg.Hacienda.Environment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	sequenceRepo := postgres.NewSequenceRepository(pool)

	numbering := billing.NewNumberingService(sequenceRepo)
	assembler := billing.NewAssembler()

	haciendaCfg := billing.HaciendaConfig{
		Environment:  cfg.Hacienda.Environment,
		APIToken:     cfg.Hacienda.APIToken,
		CertPath:     cfg.Hacienda.CertPath,
		CertKeyPath:  cfg.Hacienda.CertKeyPath,
		CertPassword: cfg.Hacienda.CertPassword,
	}

	xmlBuilder := infrahacienda.NewXMLBuilderService()
	signerSvc := signer.NewDigitalSignatureService()

	// Certificado: sin ruta configurada no hay firma (modo degradado fuera de producción).
	var certSource billing.CertSource
	if cfg.Hacienda.CertPath != "" {
		certSource = signer.NewFileCertSource(cfg.Hacienda.CertPath, cfg.Hacienda.CertKeyPath, cfg.Hacienda.CertPassword)
	}

	// Cliente de recepción — sin token en sandbox el orquestador simula la aceptación.
	var submitter billing.Submitter
	if cfg.Hacienda.APIToken != "" {
		submitter = infrahacienda.NewAPIClient(cfg.Hacienda.APIToken)
	}

	// Correo al receptor: best-effort, solo si SMTP está configurado.
	var mailer billing.Mailer
	if cfg.SMTP.Host != "" {
		mailer = infraemail.NewGomailSender(cfg.SMTP)
	}

	orchestrator := billing.NewSubmissionOrchestrator(
		documentRepo, xmlBuilder, signerSvc, certSource, submitter, mailer,
		haciendaCfg, log,
	)

	// Tipo de cambio: BCCR si hay suscripción; si no, el request debe traerlo.
	var rateSource billing.RateSource
	if cfg.Rates.Token != "" {
		rateSource = rates.NewBCCRClient(cfg.Rates)
	}

	createDocumentUC := billing.NewCreateDocumentUseCase(
		companyRepo, clientRepo, productRepo, documentRepo,
		numbering, assembler, orchestrator, rateSource,
		haciendaCfg, log,
	)

	// Conmutador de ambiente en caliente: sandbox <-> production sin reiniciar.
	envSwitch := billing.NewEnvironmentSwitch(cfg.Hacienda.Environment)
	orchestrator.SetEnvironmentSource(envSwitch)
	createDocumentUC.SetEnvironmentSource(envSwitch)

	clientUC := billing.NewClientUseCase(clientRepo)
	companyUC := usecase.NewCompanyUseCase(companyRepo, envSwitch)
	productUC := usecase.NewProductUseCase(productRepo)

	if cfg.Hacienda.Environment == pkghacienda.EnvironmentProduction && certSource == nil {
		log.Warn().Msg("producción sin certificado configurado: toda emisión fallará en la firma")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturele API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"service":     cfg.App.Name,
			"environment": envSwitch.Current(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:      companyUC,
		ProductUC:      productUC,
		ClientUC:       clientUC,
		CreateDocument: createDocumentUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
