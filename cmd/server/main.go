// Command server runs the cron-trigger and webhook HTTP surface over the
// job queue, document-processing queue, and sync reconciler.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/novuscrm/syncwork/internal/board"
	"github.com/novuscrm/syncwork/internal/config"
	"github.com/novuscrm/syncwork/internal/directory"
	"github.com/novuscrm/syncwork/internal/docqueue"
	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/embedding"
	"github.com/novuscrm/syncwork/internal/extractor"
	syncworkhttp "github.com/novuscrm/syncwork/internal/infrastructure/http"
	"github.com/novuscrm/syncwork/internal/infrastructure/observability"
	"github.com/novuscrm/syncwork/internal/infrastructure/persistence/postgres"
	"github.com/novuscrm/syncwork/internal/jira"
	"github.com/novuscrm/syncwork/internal/queue"
	"github.com/novuscrm/syncwork/internal/queue/handlers"
	"github.com/novuscrm/syncwork/internal/search"
	"github.com/novuscrm/syncwork/internal/storage"
	"github.com/novuscrm/syncwork/internal/storage/fs"
	"github.com/novuscrm/syncwork/internal/storage/gcs"
	"github.com/novuscrm/syncwork/internal/sync"
	"github.com/novuscrm/syncwork/internal/tags"
)

func main() {
	if err:= run(); err != nil {
 fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
 os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
 return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lp, logger, err:= observability.InitLogger(ctx, observability.Config{
 Enabled: cfg.OTelEnabled,
 ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
 return fmt.Errorf("failed to init logger: %w", err)
	}
	slog.SetDefault(logger)
	defer func() {
 shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
 defer cancel()
 if err:= lp.Shutdown(shutdownCtx); err != nil {
 slog.ErrorContext(shutdownCtx, "failed to shutdown logger provider", "error", err)
 }
	}()

	tp, err:= observability.InitTracerProvider(ctx, observability.Config{Enabled: cfg.OTelEnabled, ServiceName: cfg.OTelServiceName})
	if err != nil {
 return fmt.Errorf("failed to init tracer provider: %w", err)
	}
	defer func() {
 shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
 defer cancel()
 if err:= tp.Shutdown(shutdownCtx); err != nil {
 slog.ErrorContext(shutdownCtx, "failed to shutdown tracer provider", "error", err)
 }
	}()

	mp, err:= observability.InitMeterProvider(ctx, observability.Config{Enabled: cfg.OTelEnabled, ServiceName: cfg.OTelServiceName})
	if err != nil {
 return fmt.Errorf("failed to init meter provider: %w", err)
	}
	defer func() {
 shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
 defer cancel()
 if err:= mp.Shutdown(shutdownCtx); err != nil {
 slog.ErrorContext(shutdownCtx, "failed to shutdown meter provider", "error", err)
 }
	}()

	store, err:= postgres.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
 return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	storageAdapter, err:= buildStorageAdapter(ctx, cfg)
	if err != nil {
 return fmt.Errorf("failed to build storage adapter: %w", err)
	}

	boardClient:= board.NewHTTPClient(cfg.BoardAPIURL, cfg.BoardAPIToken)
	embedder:= embedding.NewHTTPClient(cfg.EmbeddingModelURL, "")
	textExtractor := extractor.NewPlainTextExtractor()

	jobsService:= queue.NewService(store)

	documentsRepo:= postgres.NewDocumentQueueStore(store)
	documentsService:= docqueue.NewService(documentsRepo)
	pipeline:= docqueue.NewPipeline(documentsRepo, storageAdapter, textExtractor, embedder)
	documentsProcessor:= docqueue.NewProcessor(documentsService, pipeline)

	entityRepo:= postgres.NewEntityStore(store)
	conflictRepo:= postgres.NewConflictStore(store)
	ruleRepo:= postgres.NewRuleStore(store)

	egressConfig:= sync.EgressConfig{
 IntegrationConfigured: cfg.BoardAPIURL != "" && cfg.BoardAPIToken != "",
 BoardIDs: map[domain.EntityType]string{
 domain.EntityTypeContact: "contacts",
 domain.EntityTypeOrganization: "organizations",
 },
	}
	egressService:= sync.NewEgressService(entityRepo, boardClient, jobsService, egressConfig)
	conflictService:= sync.NewService(entityRepo, conflictRepo, ruleRepo, egressService)
	ingressService:= sync.NewIngressService(entityRepo, conflictService, cfg.WebhookSecret, boardTypeOf)

	tagRepo:= postgres.NewTagStore(store)
	tagService:= tags.NewService(tagRepo)

	searchRepo:= postgres.NewSearchStore(store)
	searchService:= search.NewService(searchRepo, tagService, embedder)
	_ = searchService // wired for the admin-surface collaborators consuming; not exposed by this cron/webhook server

	collaboratorRepo:= postgres.NewCollaboratorStore(store)
	jiraClient:= jira.NewHTTPClient(cfg.JiraAPIURL, cfg.JiraAPIToken)
	directoryClient:= directory.NewHTTPClient(cfg.DirectoryAPIURL, cfg.DirectoryAPIToken)

	registry := queue.NewRegistry()
	registerHandlers(registerHandlersParams{
 registry: registry,
 collaborators: collaboratorRepo,
 boardClient: boardClient,
 jiraClient: jiraClient,
 directoryClient: directoryClient,
 ingress: ingressService,
 egress: egressService,
 documents: documentsService,
 unchunkedDocs: documentsRepo,
 embedder: embedder,
 cfg: cfg,
	})
	jobsProcessor:= queue.NewProcessor(jobsService, registry)

	cronHandler:= syncworkhttp.NewCronHandler(jobsProcessor, documentsProcessor)
	webhookHandler:= syncworkhttp.NewWebhookHandler(ingressService)

	server:= syncworkhttp.NewServer(cronHandler, webhookHandler, syncworkhttp.ServerConfig{
 Port: cfg.HTTPPort,
 CronAuthToken: cfg.CronAuthToken,
	})

	serverErr:= make(chan error, 1)
	go func() {
 if err:= server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
 serverErr <- err
 return
 }
 serverErr <- nil
	}()

	select {
	case <-ctx.Done():
 slog.Info("shutdown signal received")
	case err:= <-serverErr:
 if err != nil {
 return fmt.Errorf("http server failed: %w", err)
 }
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err:= server.Shutdown(shutdownCtx); err != nil {
 return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func buildStorageAdapter(ctx context.Context, cfg *config.Config) (storage.Adapter, error) {
	switch cfg.StorageType {
	case "gcs":
 return gcs.NewStore(ctx, cfg.GCSBucket)
	default:
 return fs.NewStore(cfg.FSDir)
	}
}

// boardTypeOf maps a webhook payload's board identifier to the local
// collection it targets, matching the board ids egressConfig pushes
// to in run.
func boardTypeOf(boardID string) sync.BoardType {
	switch boardID {
	case "contacts":
 return sync.BoardTypeContacts
	case "organizations":
 return sync.BoardTypeOrganizations
	default:
 return sync.BoardTypeUnknown
	}
}

type registerHandlersParams struct {
	registry *queue.Registry
	collaborators *postgres.CollaboratorStore
	boardClient board.Client
	jiraClient *jira.HTTPClient
	directoryClient *directory.HTTPClient
	ingress *sync.IngressService
	egress *sync.EgressService
	documents *docqueue.Service
	unchunkedDocs handlers.UnchunkedDocumentRepository
	embedder embedding.Service
	cfg *config.Config
}

// registerHandlers binds every job type the system enqueues to its handler
//. SYNC_EGRESS_RETRY has no dedicated handlers.go
// file since it is a thin retry of the egress push already implemented by
// sync.EgressService.Push; the closure below just unwraps the job's
// entity_type/entity_id and re-invokes it.
func registerHandlers(p registerHandlersParams) {
	jiraRefreshTTL:= time.Duration(p.cfg.JiraRefreshTTLSeconds) * time.Second
	jiraHandler:= handlers.NewJiraRefreshHandler(p.collaborators, p.jiraClient, jiraRefreshTTL)
	p.registry.Register(domain.JobTypeJiraRefresh, jiraHandler.Handle)

	bulkImportHandler:= handlers.NewBulkImportHandler(p.collaborators)
	p.registry.Register(domain.JobTypeBulkImport, bulkImportHandler.Handle)

	contactsSyncHandler:= handlers.NewBoardSyncHandler(p.boardClient, p.ingress, domain.EntityTypeContact, "board_id")
	p.registry.Register(domain.JobTypeBoardSyncContacts, contactsSyncHandler.Handle)

	orgsSyncHandler:= handlers.NewBoardSyncHandler(p.boardClient, p.ingress, domain.EntityTypeOrganization, "board_id")
	p.registry.Register(domain.JobTypeBoardSyncOrgs, orgsSyncHandler.Handle)

	directoryHandler:= handlers.NewDirectoryGroupSyncHandler(p.collaborators, p.directoryClient)
	p.registry.Register(domain.JobTypeDirectoryGroupSync, directoryHandler.Handle)

	documentProcessingHandler:= handlers.NewDocumentProcessingHandler(p.documents)
	p.registry.Register(domain.JobTypeDocumentProcessing, documentProcessingHandler.Handle)

	embeddingHandler:= handlers.NewEmbeddingGenerationHandler(p.unchunkedDocs, p.embedder, p.cfg.EmbeddingBatch)
	p.registry.Register(domain.JobTypeEmbeddingGeneration, embeddingHandler.Handle)

	p.registry.Register(domain.JobTypeSyncEgressRetry, func(ctx context.Context, job *domain.Job) (map[string]any, error) {
 if job.EntityType == nil || job.EntityID == nil {
 return nil, fmt.Errorf("sync egress retry job %s missing entity_type/entity_id", job.ID)
 }
 p.egress.Push(ctx, domain.EntityType(*job.EntityType), *job.EntityID)
 return map[string]any{"entity_type": *job.EntityType, "entity_id": *job.EntityID}, nil
	})
}
