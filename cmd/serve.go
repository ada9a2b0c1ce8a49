package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/internal/predict"
	"github.com/meridian-fm/assetcond/internal/priority"
	"github.com/meridian-fm/assetcond/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		predictor, _ := buildPredictor()
		router := newRouter(st, predictor, cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("serve: shutting down")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("serve: starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(st store.Store, predictor *predict.Predictor, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/assessments", handleCreateAssessment(st))
		r.Get("/projects/{projectID}/condition", handleCondition(st))
		r.Get("/projects/{projectID}/predictions", handlePredictions(st, predictor))
		r.Get("/projects/{projectID}/components/{componentCode}/prediction", handleComponentPrediction(st, predictor))
		r.Get("/prioritize", handlePrioritize(st))
		r.Post("/scores", handleCreateScore(st))
		r.Get("/criteria", handleListCriteria(st))
	})

	return r
}

func handleCreateAssessment(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a model.Assessment
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if a.ProjectID == "" || a.ComponentCode == "" {
			writeError(w, http.StatusBadRequest, "project_id and component_code are required")
			return
		}
		if a.EstimatedRepairCost < 0 {
			a.EstimatedRepairCost = 0
		}
		if a.AssessedAt.IsZero() {
			a.AssessedAt = time.Now().UTC()
		}

		saved, err := st.SaveAssessment(r.Context(), a)
		if err != nil {
			zap.L().Error("serve: save assessment failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "save failed")
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func handleCondition(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		assessments, err := st.ListAssessments(r.Context(), store.AssessmentFilter{
			ProjectID:  projectID,
			BuildingID: r.URL.Query().Get("building"),
		})
		if err != nil {
			zap.L().Error("serve: list assessments failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		writeJSON(w, http.StatusOK, buildConditionReport(projectID, assessments))
	}
}

func handlePredictions(st store.Store, predictor *predict.Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		assessments, err := st.ListAssessments(r.Context(), store.AssessmentFilter{ProjectID: projectID})
		if err != nil {
			zap.L().Error("serve: list assessments failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		byComponent := make(map[string][]model.Assessment)
		for _, a := range assessments {
			byComponent[a.ComponentCode] = append(byComponent[a.ComponentCode], a)
		}

		currentYear := time.Now().UTC().Year()
		predictions := make([]model.Prediction, 0, len(byComponent))
		for code, history := range byComponent {
			predictions = append(predictions, predictor.PredictWithInsights(
				r.Context(), code, inferInstallYear(history, currentYear),
				predict.SeriesFromAssessments(history), currentYear))
		}

		writeJSON(w, http.StatusOK, predictions)
	}
}

func handleComponentPrediction(st store.Store, predictor *predict.Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")
		componentCode := chi.URLParam(r, "componentCode")

		history, err := st.ComponentHistory(r.Context(), projectID, componentCode)
		if err != nil {
			zap.L().Error("serve: component history failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		currentYear := time.Now().UTC().Year()
		pred := predictor.PredictWithInsights(
			r.Context(), componentCode, inferInstallYear(history, currentYear),
			predict.SeriesFromAssessments(history), currentYear)

		writeJSON(w, http.StatusOK, pred)
	}
}

func handlePrioritize(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := st.ListCriteria(r.Context(), true)
		if err != nil {
			zap.L().Error("serve: list criteria failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		scores, err := st.ListAllScores(r.Context())
		if err != nil {
			zap.L().Error("serve: list scores failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		byProject := make(map[string][]model.CriteriaScore)
		for _, s := range scores {
			byProject[s.ProjectID] = append(byProject[s.ProjectID], s)
		}

		writeJSON(w, http.StatusOK, priority.Rank(criteria, byProject))
	}
}

func handleCreateScore(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sc model.CriteriaScore
		if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if sc.ProjectID == "" || sc.CriteriaID == "" {
			writeError(w, http.StatusBadRequest, "project_id and criteria_id are required")
			return
		}
		if sc.Score < 0 || sc.Score > 10 {
			writeError(w, http.StatusBadRequest, "score must be between 0 and 10")
			return
		}
		if sc.ScoredAt.IsZero() {
			sc.ScoredAt = time.Now().UTC()
		}

		if err := st.UpsertScore(r.Context(), sc); err != nil {
			zap.L().Error("serve: upsert score failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "save failed")
			return
		}
		writeJSON(w, http.StatusCreated, sc)
	}
}

func handleListCriteria(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := st.ListCriteria(r.Context(), r.URL.Query().Get("all") != "true")
		if err != nil {
			zap.L().Error("serve: list criteria failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		writeJSON(w, http.StatusOK, criteria)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("serve: encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
