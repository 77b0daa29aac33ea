package trainees

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/traineo/backend/internal/telemetry/tracing"
	"github.com/traineo/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type traineesRepo interface {
	Add(ctx context.Context, t Trainee) (*Trainee, error)
	Get(ctx context.Context, id int) (*Trainee, error)
	List(ctx context.Context) ([]Trainee, error)
}

type ListTraineesResponse struct {
	Trainees []Trainee `json:"trainees"`
	Total    int       `json:"total"`
}

type Handler struct {
	repo traineesRepo
}

func NewHandler(repo traineesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainees.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var trainee Trainee
	if err := json.NewDecoder(r.Body).Decode(&trainee); err != nil {
		log.Errorf("new trainee, unmarshal json params: %s", err)
		http.Error(w, "add trainee failed", http.StatusBadRequest)
		return
	}

	if trainee.Name == "" {
		http.Error(w, "error, trainee name empty", http.StatusBadRequest)
		return
	}

	addedTrainee, err := handler.repo.Add(ctx, trainee)
	if err != nil {
		if errors.Is(err, ErrTraineeExists) {
			http.Error(w, "error, trainee already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to add new trainee [%s]: %s", trainee.Name, err)
		http.Error(w, "error, failed to add new trainee", http.StatusInternalServerError)
		return
	}

	log.Debugf("new trainee added: [%s]: %d", addedTrainee.Name, addedTrainee.ID)

	addedTraineeJson, err := json.Marshal(addedTrainee)
	if err != nil {
		log.Errorf("failed to marshal new trainee: %s", err)
		http.Error(w, "error, failed to add new trainee", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedTraineeJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainees.get")
	defer span.End()

	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	trainee, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTraineeNotFound) {
			http.Error(w, "trainee not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get trainee %d: %s", id, err)
		http.Error(w, "error, failed to get trainee", http.StatusInternalServerError)
		return
	}

	traineeJson, err := json.Marshal(trainee)
	if err != nil {
		log.Errorf("failed to marshal trainee: %s", err)
		http.Error(w, "failed to marshal trainee", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, traineeJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainees.list")
	defer span.End()

	trainees, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("failed to list trainees: %s", err)
		http.Error(w, "error, failed to list trainees", http.StatusInternalServerError)
		return
	}

	listJson, err := json.Marshal(ListTraineesResponse{
		Trainees: trainees,
		Total:    len(trainees),
	})
	if err != nil {
		log.Errorf("failed to marshal trainees: %s", err)
		http.Error(w, "error, failed to list trainees", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listJson, http.StatusOK)
}
