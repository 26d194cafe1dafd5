package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	cmsapp "github.com/venturecrest/angelnet/internal/cms/application"
	cmsinfra "github.com/venturecrest/angelnet/internal/cms/infrastructure"
	cmshttp "github.com/venturecrest/angelnet/internal/cms/interfaces/http"
	complianceapp "github.com/venturecrest/angelnet/internal/compliance/application"
	complianceinfra "github.com/venturecrest/angelnet/internal/compliance/infrastructure"
	compliancehttp "github.com/venturecrest/angelnet/internal/compliance/interfaces/http"
	dealapp "github.com/venturecrest/angelnet/internal/deal/application"
	dealdomain "github.com/venturecrest/angelnet/internal/deal/domain"
	dealinfra "github.com/venturecrest/angelnet/internal/deal/infrastructure"
	dealhttp "github.com/venturecrest/angelnet/internal/deal/interfaces/http"
	"github.com/venturecrest/angelnet/internal/events"
	identityapp "github.com/venturecrest/angelnet/internal/identity/application"
	identitydomain "github.com/venturecrest/angelnet/internal/identity/domain"
	identityinfra "github.com/venturecrest/angelnet/internal/identity/infrastructure"
	identityhttp "github.com/venturecrest/angelnet/internal/identity/interfaces/http"
	intakeapp "github.com/venturecrest/angelnet/internal/intake/application"
	intakedomain "github.com/venturecrest/angelnet/internal/intake/domain"
	intakeinfra "github.com/venturecrest/angelnet/internal/intake/infrastructure"
	intakehttp "github.com/venturecrest/angelnet/internal/intake/interfaces/http"
	invoiceapp "github.com/venturecrest/angelnet/internal/invoice/application"
	invoiceinfra "github.com/venturecrest/angelnet/internal/invoice/infrastructure"
	invoicehttp "github.com/venturecrest/angelnet/internal/invoice/interfaces/http"
	messagingapp "github.com/venturecrest/angelnet/internal/messaging/application"
	messaginginfra "github.com/venturecrest/angelnet/internal/messaging/infrastructure"
	messaginghttp "github.com/venturecrest/angelnet/internal/messaging/interfaces/http"
	paymentapp "github.com/venturecrest/angelnet/internal/payment/application"
	paymentdomain "github.com/venturecrest/angelnet/internal/payment/domain"
	paymentinfra "github.com/venturecrest/angelnet/internal/payment/infrastructure"
	paymenthttp "github.com/venturecrest/angelnet/internal/payment/interfaces/http"
	spvapp "github.com/venturecrest/angelnet/internal/spv/application"
	spvinfra "github.com/venturecrest/angelnet/internal/spv/infrastructure"
	spvhttp "github.com/venturecrest/angelnet/internal/spv/interfaces/http"

	cmsdomain "github.com/venturecrest/angelnet/internal/cms/domain"
	compliancedomain "github.com/venturecrest/angelnet/internal/compliance/domain"
	invoicedomain "github.com/venturecrest/angelnet/internal/invoice/domain"
	messagingdomain "github.com/venturecrest/angelnet/internal/messaging/domain"
	spvdomain "github.com/venturecrest/angelnet/internal/spv/domain"

	"github.com/venturecrest/angelnet/pkg/cache"
	"github.com/venturecrest/angelnet/pkg/config"
	"github.com/venturecrest/angelnet/pkg/db"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/metrics"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/mq"
	"github.com/venturecrest/angelnet/pkg/ratelimit"
	"github.com/venturecrest/angelnet/pkg/storage"
	"github.com/venturecrest/angelnet/pkg/trace"
)

func main() {
	configPath := flag.String("config", "configs/server/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting server", "service", cfg.ServiceName, "version", cfg.Version, "environment", cfg.Environment)

	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracer(cfg.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Fatal(ctx, "Failed to init tracer", "error", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error(shutdownCtx, "Failed to shutdown tracer", "error", err)
			}
		}()
	}

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&identitydomain.User{},
		&intakedomain.InvestorApplication{},
		&intakedomain.FounderApplication{},
		&compliancedomain.KYCRecord{},
		&compliancedomain.AMLScreening{},
		&compliancedomain.AccreditationReview{},
		&dealdomain.Deal{},
		&dealdomain.DealCommitment{},
		&spvdomain.SPV{},
		&spvdomain.SPVInvitation{},
		&paymentdomain.Payment{},
		&invoicedomain.Invoice{},
		&messagingdomain.Conversation{},
		&messagingdomain.Message{},
		&messagingdomain.Notification{},
		&cmsdomain.TeamMember{},
		&cmsdomain.Partner{},
		&cmsdomain.ContentDocument{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init redis", "error", err)
	}
	defer redisCache.Close()

	m := metrics.New("server")
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	uploads, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal(ctx, "Failed to init storage", "error", err)
	}

	// 仓储
	userRepo := identityinfra.NewGormUserRepository(database.DB)
	investorAppRepo := intakeinfra.NewGormInvestorApplicationRepository(database.DB)
	founderAppRepo := intakeinfra.NewGormFounderApplicationRepository(database.DB)
	kycRepo := complianceinfra.NewGormKYCRepository(database.DB)
	screeningRepo := complianceinfra.NewGormScreeningRepository(database.DB)
	accreditationRepo := complianceinfra.NewGormAccreditationReviewRepository(database.DB)
	dealRepo := dealinfra.NewGormDealRepository(database.DB)
	commitmentRepo := dealinfra.NewGormCommitmentRepository(database.DB)
	spvRepo := spvinfra.NewGormSPVRepository(database.DB)
	invitationRepo := spvinfra.NewGormInvitationRepository(database.DB)
	paymentRepo := paymentinfra.NewGormPaymentRepository(database.DB)
	invoiceRepo := invoiceinfra.NewGormInvoiceRepository(database.DB)
	conversationRepo := messaginginfra.NewGormConversationRepository(database)
	messageRepo := messaginginfra.NewGormMessageRepository(database.DB)
	notificationRepo := messaginginfra.NewGormNotificationRepository(database.DB)
	teamRepo := cmsinfra.NewGormTeamMemberRepository(database.DB)
	partnerRepo := cmsinfra.NewGormPartnerRepository(database.DB)
	documentRepo := cmsinfra.NewGormDocumentRepository(database.DB)

	// 事件总线
	var (
		dealEvents    dealdomain.EventPublisher    = events.NoopBus{}
		paymentEvents paymentdomain.EventPublisher = events.NoopBus{}
		appEvents     intakedomain.EventPublisher  = events.NoopBus{}
		producer      *mq.KafkaProducer
	)
	kafkaCfg := mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	}
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(kafkaCfg)
		if err != nil {
			logger.Fatal(ctx, "Failed to create kafka producer", "error", err)
		}
		defer producer.Close()

		bus := events.NewKafkaBus(producer)
		dealEvents, paymentEvents, appEvents = bus, bus, bus
	}

	// 服务
	identitySvc := identityapp.NewIdentityService(userRepo, cfg.Auth)
	intakeSvc := intakeapp.NewIntakeService(investorAppRepo, founderAppRepo, &roleGranter{identitySvc}, appEvents)
	complianceSvc := complianceapp.NewComplianceService(kycRepo, screeningRepo, accreditationRepo, uploads, &accreditationVerifier{intakeSvc})
	dealCommands := dealapp.NewDealCommandService(dealRepo, commitmentRepo, dealEvents, redisCache, m)
	dealQueries := dealapp.NewDealQueryService(dealRepo, commitmentRepo, redisCache)
	spvSvc := spvapp.NewSPVService(spvRepo, invitationRepo, &dealChecker{dealQueries})
	gateway := paymentinfra.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	paymentSvc := paymentapp.NewPaymentService(paymentRepo, gateway, &commitmentDirectory{dealQueries, dealCommands}, paymentEvents, cfg.Razorpay, m)
	renderer, err := invoiceinfra.NewGofpdfRenderer(cfg.Invoice.OutputDir)
	if err != nil {
		logger.Fatal(ctx, "Failed to init invoice renderer", "error", err)
	}
	invoiceSvc := invoiceapp.NewInvoiceService(invoiceRepo, renderer, &paymentDirectory{paymentSvc}, cfg.Invoice, m)
	messagingSvc := messagingapp.NewMessagingService(conversationRepo, messageRepo, notificationRepo)
	cmsSvc := cmsapp.NewCMSService(teamRepo, partnerRepo, documentRepo, uploads)

	// 事件消费：业务事件落成站内通知
	consumerCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()
	if cfg.Kafka.Enabled {
		notifier, err := messaginginfra.NewEventNotifier(kafkaCfg, messagingSvc, &investorDirectory{commitmentRepo})
		if err != nil {
			logger.Fatal(ctx, "Failed to create event notifier", "error", err)
		}
		defer notifier.Close()
		go notifier.Run(consumerCtx)
	}

	// HTTP
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.GinRecoveryMiddleware())
	engine.Use(middleware.GinLoggingMiddleware())
	engine.Use(middleware.GinCORSMiddleware())
	if cfg.Tracing.Enabled {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if cfg.Metrics.Enabled {
		engine.Use(func(c *gin.Context) {
			start := time.Now()
			c.Next()
			m.HTTPRequestsTotal.Inc()
			m.HTTPRequestDuration.Observe(time.Since(start).Seconds())
		})
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisLimiter(redisCache.GetClient())
		engine.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	api := engine.Group("/api/v1")

	identityHandler := identityhttp.NewIdentityHandler(identitySvc, cfg.Auth.JWTSecret)
	identityHandler.RegisterRoutes(api)

	dealHandler := dealhttp.NewDealHandler(dealCommands, dealQueries)
	dealHandler.RegisterPublicRoutes(api)

	cmsHandler := cmshttp.NewCMSHandler(cmsSvc, cfg.Storage.MaxFileSize)
	cmsHandler.RegisterPublicRoutes(api)

	authed := api.Group("", middleware.JWTAuthMiddleware(cfg.Auth.JWTSecret))
	{
		intakehttp.NewIntakeHandler(intakeSvc).RegisterRoutes(authed)
		compliancehttp.NewComplianceHandler(complianceSvc, cfg.Storage.MaxFileSize).RegisterRoutes(authed)
		dealHandler.RegisterRoutes(authed)
		spvhttp.NewSPVHandler(spvSvc).RegisterRoutes(authed)
		paymenthttp.NewPaymentHandler(paymentSvc).RegisterRoutes(authed)
		invoicehttp.NewInvoiceHandler(invoiceSvc).RegisterRoutes(authed)
		messaginghttp.NewMessagingHandler(messagingSvc).RegisterRoutes(authed)
		cmsHandler.RegisterAdminRoutes(authed)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down server")
	stopConsumers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server forced to shutdown", "error", err)
	}
	logger.Info(ctx, "Server exited")
}

// roleGranter 把身份服务适配成申请模块的角色授予接口
type roleGranter struct {
	svc *identityapp.IdentityService
}

func (g *roleGranter) GrantRole(ctx context.Context, userID, role string) error {
	_, err := g.svc.GrantRole(ctx, userID, role)
	return err
}

// accreditationVerifier 把申请服务适配成合规模块的认证回写接口
type accreditationVerifier struct {
	svc *intakeapp.IntakeService
}

func (v *accreditationVerifier) VerifyAccreditation(ctx context.Context, applicationID string) error {
	_, err := v.svc.VerifyAccreditation(ctx, applicationID)
	return err
}

// dealChecker 把交易查询服务适配成 SPV 模块的存在性校验接口
type dealChecker struct {
	queries *dealapp.DealQueryService
}

func (d *dealChecker) DealExists(ctx context.Context, dealID string) (bool, error) {
	_, err := d.queries.GetDeal(ctx, dealID)
	if err != nil {
		if errors.Is(err, dealdomain.ErrDealNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// commitmentDirectory 把交易模块适配成支付模块的认购视图
type commitmentDirectory struct {
	queries  *dealapp.DealQueryService
	commands *dealapp.DealCommandService
}

func (d *commitmentDirectory) GetCommitment(ctx context.Context, commitmentID string) (*paymentapp.Commitment, error) {
	commitment, err := d.queries.GetCommitment(ctx, commitmentID)
	if err != nil {
		if errors.Is(err, dealdomain.ErrCommitmentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &paymentapp.Commitment{
		CommitmentID:   commitment.CommitmentID,
		DealID:         commitment.DealID,
		InvestorID:     commitment.InvestorID,
		Amount:         commitment.Amount,
		PaymentPending: commitment.Status == dealdomain.CommitmentPaymentPending,
	}, nil
}

func (d *commitmentDirectory) MarkPaymentReceived(ctx context.Context, commitmentID, paymentRef string) error {
	return d.commands.MarkPaymentReceived(ctx, commitmentID, paymentRef)
}

// paymentDirectory 把支付服务适配成发票模块的支付视图
type paymentDirectory struct {
	svc *paymentapp.PaymentService
}

func (d *paymentDirectory) GetCompletedPayment(ctx context.Context, paymentID string) (*invoiceapp.CompletedPayment, error) {
	payment, err := d.svc.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrPaymentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoiceapp.CompletedPayment{
		PaymentID: payment.PaymentID,
		UserID:    payment.UserID,
		Amount:    payment.Amount,
		Completed: payment.Status == paymentdomain.PaymentCompleted,
	}, nil
}

// investorDirectory 查询交易下有认购的投资人，用于事件通知
type investorDirectory struct {
	commitments dealdomain.CommitmentRepository
}

func (d *investorDirectory) InvestorsForDeal(ctx context.Context, dealID string) ([]string, error) {
	commitments, _, err := d.commitments.ListByDeal(ctx, dealID, 1000, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(commitments))
	var investors []string
	for _, commitment := range commitments {
		if commitment.Status == dealdomain.CommitmentCancelled {
			continue
		}
		if _, ok := seen[commitment.InvestorID]; ok {
			continue
		}
		seen[commitment.InvestorID] = struct{}{}
		investors = append(investors, commitment.InvestorID)
	}
	return investors, nil
}
