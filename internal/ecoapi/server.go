// Package ecoapi exposes the ledger core over HTTP: submissions, resets,
// report views, CSV export, and the coaching-advice integration.
package ecoapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/ecoledger/internal/advisor"
	"github.com/MarkoPoloResearchLab/ecoledger/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/ecoledger/internal/store/memstore"
	"github.com/MarkoPoloResearchLab/ecoledger/pkg/ecoledger"
)

// Run boots the HTTP façade using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}

	clock := func() int64 { return time.Now().UTC().Unix() }
	service, err := ecoledger.NewService(store, clock, ecoledger.WithOperationLogger(zapOperationLogger{logger: logger}))
	if err != nil {
		return fmt.Errorf("ledger service init: %w", err)
	}

	seeder, err := ecoledger.NewSeeder(rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return fmt.Errorf("seeder init: %w", err)
	}
	if cfg.SeedOnStart {
		if err := service.Reset(ctx, seeder.SeedFunc(cfg.SeedCount)); err != nil {
			return fmt.Errorf("seed ledger: %w", err)
		}
	}

	var coach advisor.Advisor
	if strings.TrimSpace(cfg.AdvisorEndpoint) != "" {
		coach, err = advisor.NewClient(advisor.Config{
			Endpoint:   cfg.AdvisorEndpoint,
			APIKey:     cfg.AdvisorAPIKey,
			Model:      cfg.AdvisorModel,
			HTTPClient: &http.Client{Timeout: cfg.AdvisorTimeout},
		})
		if err != nil {
			return fmt.Errorf("advisor init: %w", err)
		}
	}

	handler := &httpHandler{
		logger:  logger,
		service: service,
		seeder:  seeder,
		coach:   coach,
		cfg:     cfg,
		nowFn:   clock,
		metrics: newAPIMetrics(),
	}
	router := setupRouter(cfg, handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ecoapi listening", zap.String("addr", cfg.ListenAddr), zap.String("org", cfg.OrgName))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(handler.metrics.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.POST("/entries", handler.handleSubmit)
	api.GET("/entries", handler.handleListEntries)
	api.POST("/reset", handler.handleReset)
	api.GET("/factors", handler.handleFactors)
	api.GET("/export", handler.handleExport)
	api.POST("/advice", handler.handleAdvice)

	report := api.Group("/report")
	report.GET("/totals", handler.handleTotals)
	report.GET("/leaderboard", handler.handleLeaderboard)
	report.GET("/roles", handler.handleRoleBreakdown)
	report.GET("/activities", handler.handleActivityBreakdown)
	report.GET("/matrix", handler.handleMatrix)
	report.GET("/timeline", handler.handleTimeline)

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	service *ecoledger.Service
	seeder  *ecoledger.Seeder
	coach   advisor.Advisor
	cfg     Config
	nowFn   func() int64
	metrics *apiMetrics
}

func (handler *httpHandler) handleSubmit(ctx *gin.Context) {
	var request submitRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.metrics.submissionsRejected.Inc()
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}

	actor, err := ecoledger.NewActorName(request.ActorName)
	if err != nil {
		handler.rejectSubmission(ctx, err)
		return
	}
	role, err := ecoledger.ParseRole(request.Role)
	if err != nil {
		handler.rejectSubmission(ctx, err)
		return
	}
	activity, err := ecoledger.ParseActivityKind(request.Activity)
	if err != nil {
		handler.rejectSubmission(ctx, err)
		return
	}
	quantity, err := ecoledger.NewQuantity(request.Quantity)
	if err != nil {
		handler.rejectSubmission(ctx, err)
		return
	}

	entry, err := handler.service.Submit(ctx.Request.Context(), actor, role, activity, quantity)
	if err != nil {
		handler.logger.Error("submit failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("ledger_error", "submission failed"))
		return
	}
	handler.metrics.entriesSubmitted.Inc()
	ctx.JSON(http.StatusCreated, gin.H{
		"entry_id":     entry.EntryID,
		"credits":      entry.Credits,
		"co2_saved_kg": entry.CO2SavedKg,
	})
}

func (handler *httpHandler) handleListEntries(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	payload := make([]entryPayload, 0, len(snapshot))
	for _, entry := range snapshot {
		payload = append(payload, entryPayloadFrom(entry))
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": payload})
}

func (handler *httpHandler) handleReset(ctx *gin.Context) {
	var request resetRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}

	var seedFn ecoledger.SeedFunc
	seedCount := 0
	if request.Seed {
		seedCount = request.Count
		if seedCount <= 0 {
			seedCount = handler.cfg.SeedCount
		}
		seedFn = handler.seeder.SeedFunc(seedCount)
	}
	if err := handler.service.Reset(ctx.Request.Context(), seedFn); err != nil {
		handler.logger.Error("reset failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("ledger_error", "reset failed"))
		return
	}
	handler.metrics.ledgerResets.Inc()
	ctx.JSON(http.StatusOK, gin.H{"status": "reset", "seeded": seedCount})
}

func (handler *httpHandler) handleFactors(ctx *gin.Context) {
	rows := ecoledger.FactorTable()
	payload := make([]factorPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, factorPayload{
			Activity: row.Activity.String(),
			Label:    row.Activity.Label(),
			Factor:   row.Factor,
			Unit:     row.Unit,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"factors": payload})
}

func (handler *httpHandler) handleTotals(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	totals := ecoledger.ComputeTotals(snapshot)
	ctx.JSON(http.StatusOK, gin.H{
		"total_co2_saved_kg": totals.TotalCO2SavedKg,
		"total_credits":      totals.TotalCredits,
		"unique_actors":      totals.UniqueActors,
	})
}

func (handler *httpHandler) handleLeaderboard(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	limit := queryLimit(ctx, ecoledger.DefaultLeaderboardLimit)
	rows := ecoledger.Leaderboard(snapshot, limit)
	payload := make([]leaderboardPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, leaderboardPayload{Rank: row.Rank, ActorName: row.ActorName, Credits: row.Credits})
	}
	ctx.JSON(http.StatusOK, gin.H{"leaderboard": payload})
}

func (handler *httpHandler) handleRoleBreakdown(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	rows := ecoledger.RoleBreakdown(snapshot)
	payload := make([]rolePayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, rolePayload{
			Role:       row.Role.String(),
			Label:      row.Role.Label(),
			CO2SavedKg: row.CO2SavedKg,
			Credits:    row.Credits,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"roles": payload})
}

func (handler *httpHandler) handleActivityBreakdown(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	limit := queryLimit(ctx, 0)
	rows := ecoledger.ActivityBreakdown(snapshot, limit)
	payload := make([]activityPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, activityPayload{
			Activity: row.Activity.String(),
			Label:    row.Activity.Label(),
			Credits:  row.Credits,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"activities": payload})
}

func (handler *httpHandler) handleMatrix(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	cells := ecoledger.RoleActivityMatrix(snapshot)
	payload := make([]matrixPayload, 0, len(cells))
	for _, cell := range cells {
		payload = append(payload, matrixPayload{
			Role:     cell.Role.String(),
			Activity: cell.Activity.String(),
			Credits:  cell.Credits,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"matrix": payload})
}

func (handler *httpHandler) handleTimeline(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	points := ecoledger.CumulativeTimeline(snapshot)
	payload := make([]timelinePayload, 0, len(points))
	for _, point := range points {
		payload = append(payload, timelinePayload{Date: point.Date, CumulativeCredits: point.CumulativeCredits})
	}
	ctx.JSON(http.StatusOK, gin.H{"timeline": payload})
}

func (handler *httpHandler) handleExport(ctx *gin.Context) {
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	data, err := ecoledger.ExportCSV(snapshot)
	if err != nil {
		handler.logger.Error("export failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("export_error", "export failed"))
		return
	}
	handler.metrics.reportExports.Inc()
	fileName := ecoledger.ReportFileName(handler.cfg.OrgName, handler.nowFn())
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	ctx.Data(http.StatusOK, "text/csv", data)
}

func (handler *httpHandler) handleAdvice(ctx *gin.Context) {
	if handler.coach == nil {
		ctx.JSON(http.StatusServiceUnavailable, errorResponse("advisor_unconfigured", "no advice endpoint configured"))
		return
	}
	var request adviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	role, err := ecoledger.ParseRole(request.Role)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_role", err.Error()))
		return
	}
	snapshot, ok := handler.snapshot(ctx)
	if !ok {
		return
	}
	coaching, err := ecoledger.NewCoachingContext(snapshot, role)
	if err != nil {
		ctx.JSON(http.StatusConflict, errorResponse("empty_ledger", "no contributions logged yet"))
		return
	}
	advice, err := handler.coach.Advise(ctx.Request.Context(), coaching)
	if err != nil {
		handler.logger.Warn("advice failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("advice_error", err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"advice": advice})
}

func (handler *httpHandler) snapshot(ctx *gin.Context) ([]ecoledger.Entry, bool) {
	snapshot, err := handler.service.Snapshot(ctx.Request.Context())
	if err != nil {
		handler.logger.Error("snapshot failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("ledger_error", "snapshot unavailable"))
		return nil, false
	}
	return snapshot, true
}

func (handler *httpHandler) rejectSubmission(ctx *gin.Context, err error) {
	handler.metrics.submissionsRejected.Inc()
	ctx.JSON(http.StatusBadRequest, errorResponse(validationErrorCode(err), err.Error()))
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ecoledger.ErrInvalidActorName):
		return "invalid_actor_name"
	case errors.Is(err, ecoledger.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, ecoledger.ErrInvalidActivity):
		return "invalid_activity"
	case errors.Is(err, ecoledger.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "invalid_entry"
	}
}

func queryLimit(ctx *gin.Context, fallback int) int {
	raw := ctx.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return fallback
	}
	return limit
}

func openStore(dsn string) (ecoledger.Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" || trimmed == "mem" || trimmed == "mem://" {
		return memstore.New(), nil
	}
	return gormstore.Open(strings.TrimPrefix(trimmed, sqliteSchemePrefix))
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// zapOperationLogger forwards domain operation callbacks to zap.
type zapOperationLogger struct {
	logger *zap.Logger
}

func (opLogger zapOperationLogger) LogOperation(_ context.Context, entry ecoledger.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.EntryID != "" {
		fields = append(fields, zap.String("entry_id", entry.EntryID))
	}
	if entry.ActorName != "" {
		fields = append(fields, zap.String("actor", entry.ActorName))
	}
	if entry.Activity != "" {
		fields = append(fields, zap.String("activity", entry.Activity.String()))
	}
	if entry.SeedCount > 0 {
		fields = append(fields, zap.Int("seed_count", entry.SeedCount))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		opLogger.logger.Warn("ledger operation failed", fields...)
		return
	}
	fields = append(fields, zap.Float64("credits", entry.Credits))
	opLogger.logger.Info("ledger operation", fields...)
}

type submitRequest struct {
	ActorName string  `json:"actor_name"`
	Role      string  `json:"role"`
	Activity  string  `json:"activity"`
	Quantity  float64 `json:"quantity"`
}

type resetRequest struct {
	Seed  bool `json:"seed"`
	Count int  `json:"count"`
}

type adviceRequest struct {
	Role string `json:"role"`
}

type entryPayload struct {
	EntryID    string  `json:"entry_id"`
	RecordedAt string  `json:"recorded_at"`
	ActorName  string  `json:"actor_name"`
	Role       string  `json:"role"`
	Activity   string  `json:"activity"`
	Quantity   float64 `json:"quantity"`
	CO2SavedKg float64 `json:"co2_saved_kg"`
	Credits    float64 `json:"credits"`
}

func entryPayloadFrom(entry ecoledger.Entry) entryPayload {
	return entryPayload{
		EntryID:    entry.EntryID,
		RecordedAt: time.Unix(entry.RecordedUnixUTC, 0).UTC().Format(time.RFC3339),
		ActorName:  entry.ActorName,
		Role:       entry.Role.String(),
		Activity:   entry.Activity.String(),
		Quantity:   entry.Quantity,
		CO2SavedKg: entry.CO2SavedKg,
		Credits:    entry.Credits,
	}
}

type factorPayload struct {
	Activity string  `json:"activity"`
	Label    string  `json:"label"`
	Factor   float64 `json:"factor"`
	Unit     string  `json:"unit"`
}

type leaderboardPayload struct {
	Rank      int     `json:"rank"`
	ActorName string  `json:"actor_name"`
	Credits   float64 `json:"credits"`
}

type rolePayload struct {
	Role       string  `json:"role"`
	Label      string  `json:"label"`
	CO2SavedKg float64 `json:"co2_saved_kg"`
	Credits    float64 `json:"credits"`
}

type activityPayload struct {
	Activity string  `json:"activity"`
	Label    string  `json:"label"`
	Credits  float64 `json:"credits"`
}

type matrixPayload struct {
	Role     string  `json:"role"`
	Activity string  `json:"activity"`
	Credits  float64 `json:"credits"`
}

type timelinePayload struct {
	Date              string  `json:"date"`
	CumulativeCredits float64 `json:"cumulative_credits"`
}
