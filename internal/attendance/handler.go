package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/traineo/backend/internal/telemetry/metrics"
	"github.com/traineo/backend/internal/telemetry/tracing"
	"github.com/traineo/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const defaultStatsLookbackDays = 30

type dashboardService interface {
	AddRecord(ctx context.Context, rec Record) (*Record, error)
	DeleteRecord(ctx context.Context, id int) error
	ListPage(ctx context.Context, traineeID int, params ListParams) (_ []Record, total int, err error)
	AttendanceMap(ctx context.Context, traineeID int) (AttendanceMap, error)
	Stats(ctx context.Context, traineeID, lookbackDays int) (Stats, error)
	Totals(ctx context.Context, traineeID int) (Totals, error)
	MaxStreak(ctx context.Context, traineeID int) (int, error)
}

type DeleteRecordResponse struct {
	DeletedID int `json:"deletedId"`
}

type ListRecordsResponse struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

type StreakResponse struct {
	MaxStreak int `json:"maxStreak"`
}

type Handler struct {
	service dashboardService
	cache   *DashboardCache
	metrics *metrics.Manager
}

func NewHandler(service dashboardService, cache *DashboardCache, metrics *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		cache:   cache,
		metrics: metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		log.Errorf("new attendance record, unmarshal json params: %s", err)
		http.Error(w, "add attendance record failed", http.StatusBadRequest)
		return
	}

	if rec.TraineeID <= 0 {
		http.Error(w, "error, trainee id empty", http.StatusBadRequest)
		return
	}

	addedRec, err := handler.service.AddRecord(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrInvalidTimestamp) {
			http.Error(w, "error, invalid timestamp", http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrUnknownTrainee) {
			http.Error(w, "error, unknown trainee", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add attendance record for trainee %d: %s", rec.TraineeID, err)
		http.Error(w, "error, failed to add attendance record", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterCheckIns.Inc()
	log.Debugf("new attendance record added: trainee %d, [%s]: %d", addedRec.TraineeID, addedRec.Status, addedRec.ID)

	addedRecJson, err := json.Marshal(addedRec)
	if err != nil {
		log.Errorf("failed to marshal new attendance record: %s", err)
		http.Error(w, "error, failed to add attendance record", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedRecJson, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.delete")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := handler.service.DeleteRecord(ctx, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "attendance record not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete attendance record %d: %s", id, err)
		http.Error(w, "error, failed to delete attendance record", http.StatusInternalServerError)
		return
	}

	deletedJson, err := json.Marshal(DeleteRecordResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "error, failed to delete attendance record", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, deletedJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.list")
	defer span.End()

	traineeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		http.Error(w, "error, page NaN", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		http.Error(w, "error, size NaN", http.StatusBadRequest)
		return
	}
	if page < 0 || size <= 0 {
		http.Error(w, "error, invalid page or size", http.StatusBadRequest)
		return
	}

	records, total, err := handler.service.ListPage(ctx, traineeID, ListParams{Page: page, Size: size})
	if err != nil {
		log.Errorf("failed to list attendance records for trainee %d: %s", traineeID, err)
		http.Error(w, "error, failed to list attendance records", http.StatusInternalServerError)
		return
	}

	listJson, err := json.Marshal(ListRecordsResponse{
		Records: records,
		Total:   total,
	})
	if err != nil {
		log.Errorf("failed to marshal attendance records: %s", err)
		http.Error(w, "error, failed to list attendance records", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listJson, http.StatusOK)
}

func (handler *Handler) HandleMap(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.map")
	defer span.End()

	traineeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	handler.writeCached(ctx, w, traineeID, "map", func() ([]byte, error) {
		m, err := handler.service.AttendanceMap(ctx, traineeID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(m)
	})
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.stats")
	defer span.End()

	traineeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	lookbackDays := defaultStatsLookbackDays
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		days, err := strconv.Atoi(daysParam)
		if err != nil || days <= 0 {
			http.Error(w, "error, invalid days param", http.StatusBadRequest)
			return
		}
		lookbackDays = days
	}

	view := fmt.Sprintf("stats||%d", lookbackDays)
	handler.writeCached(ctx, w, traineeID, view, func() ([]byte, error) {
		stats, err := handler.service.Stats(ctx, traineeID, lookbackDays)
		if err != nil {
			return nil, err
		}
		return json.Marshal(stats)
	})
}

func (handler *Handler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.totals")
	defer span.End()

	traineeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	handler.writeCached(ctx, w, traineeID, "totals", func() ([]byte, error) {
		totals, err := handler.service.Totals(ctx, traineeID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(totals)
	})
}

func (handler *Handler) HandleStreak(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.attendance.streak")
	defer span.End()

	traineeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	handler.writeCached(ctx, w, traineeID, "streak", func() ([]byte, error) {
		streak, err := handler.service.MaxStreak(ctx, traineeID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(StreakResponse{MaxStreak: streak})
	})
}

// writeCached serves the dashboard view from the cache when possible,
// otherwise builds it, caches it and writes it out.
func (handler *Handler) writeCached(
	ctx context.Context,
	w http.ResponseWriter,
	traineeID int,
	view string,
	build func() ([]byte, error),
) {
	if handler.cache != nil {
		if payload, ok := handler.cache.Get(ctx, traineeID, view); ok {
			pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payload, http.StatusOK)
			return
		}
	}

	payload, err := build()
	if err != nil {
		log.Errorf("failed to build %s view for trainee %d: %s", view, traineeID, err)
		http.Error(w, "error, failed to build dashboard view", http.StatusInternalServerError)
		return
	}

	if handler.cache != nil {
		handler.cache.Set(ctx, traineeID, view, payload)
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payload, http.StatusOK)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	idStr := mux.Vars(r)[name]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
