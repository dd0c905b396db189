package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/history"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/service"
	"github.com/Veraticus/fraudwatch/internal/session"
)

// Handler serves the JSON API.
type Handler struct {
	accounts  *account.Service
	predictor service.Predictor
	history   service.HistoryReader
	sessions  *session.Manager
	now       func() time.Time
}

// NewHandler wires the API to its services.
func NewHandler(accounts *account.Service, predictor service.Predictor, reader service.HistoryReader, sessions *session.Manager) *Handler {
	return &Handler{
		accounts:  accounts,
		predictor: predictor,
		history:   reader,
		sessions:  sessions,
		now:       time.Now,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resetRequest struct {
	Username     string `json:"username"`
	NewPassword  string `json:"new_password"`
	Confirmation string `json:"confirmation"`
}

type messageResponse struct {
	User    *model.User `json:"user,omitempty"`
	Message string      `json:"message"`
}

type predictResponse struct {
	prediction.Result
	Message  string `json:"message"`
	Recorded bool   `json:"recorded"`
}

type historyResponse struct {
	Records []model.PredictionRecord `json:"records"`
	Count   int                      `json:"count"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Register handles POST /api/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.accounts.Register(r.Context(), in.Username, in.Password)
	if !out.OK {
		writeError(w, outcomeStatus(out), out.Message)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{User: out.User, Message: out.Message})
}

// Login handles POST /api/login and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.accounts.Login(r.Context(), in.Username, in.Password)
	if !out.OK {
		writeError(w, outcomeStatus(out), out.Message)
		return
	}

	if _, err := h.sessions.Start(w, r, out.User); err != nil {
		common.LogError(err, "failed to start session", common.Fields{"user_id": out.User.ID})
		writeError(w, http.StatusInternalServerError, account.MsgStoreFailure)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{User: out.User, Message: out.Message})
}

// Logout handles POST /api/logout. It succeeds without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		common.LogError(err, "failed to clear session", nil)
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out."})
}

// ResetPassword handles POST /api/password/reset.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.accounts.ResetPassword(r.Context(), in.Username, in.NewPassword, in.Confirmation)
	if !out.OK {
		writeError(w, outcomeStatus(out), out.Message)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: out.Message})
}

// Me returns the caller's session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, sess)
}

// Predict handles POST /api/predict. The body is a JSON object keyed by raw
// field name. The prediction is recorded in the caller's history.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	var values map[string]any
	if err := decode(w, r, &values); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := model.RawTransactionFromMap(values)
	if err != nil {
		h.predictionError(w, err)
		return
	}
	result, err := h.predictor.Predict(raw)
	if err != nil {
		h.predictionError(w, err)
		return
	}

	recorded := h.accounts.Record(r.Context(), sess.UserID, raw, result)
	writeJSON(w, http.StatusOK, predictResponse{
		Result:   result,
		Recorded: recorded.OK,
		Message:  recorded.Message,
	})
}

func (h *Handler) predictionError(w http.ResponseWriter, err error) {
	switch {
	case common.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrSchemaMismatch):
		common.LogError(err, "model artifacts do not match the feature pipeline", nil)
		writeError(w, http.StatusInternalServerError, "The fraud model is misconfigured.")
	default:
		common.LogError(err, "prediction failed", nil)
		writeError(w, http.StatusInternalServerError, "Prediction failed.")
	}
}

// History handles GET /api/history, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	records, err := h.history.ListPredictions(r.Context(), sess.UserID)
	if err != nil {
		common.LogError(err, "failed to load history", common.Fields{"user_id": sess.UserID})
		writeError(w, http.StatusInternalServerError, account.MsgStoreFailure)
		return
	}
	if records == nil {
		records = []model.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Records: records, Count: len(records)})
}

// ExportHistory handles GET /api/history/export as a CSV download.
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	records, err := h.history.ListPredictions(r.Context(), sess.UserID)
	if err != nil {
		common.LogError(err, "failed to load history", common.Fields{"user_id": sess.UserID})
		writeError(w, http.StatusInternalServerError, account.MsgStoreFailure)
		return
	}
	table, err := history.Build(records)
	if err != nil {
		common.LogError(err, "failed to build history export", common.Fields{"user_id": sess.UserID})
		writeError(w, http.StatusInternalServerError, "Export failed.")
		return
	}

	name := history.FileName(sess.Username, h.now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := history.WriteCSV(w, table); err != nil {
		slog.Warn("history export interrupted", "user_id", sess.UserID, "error", err)
	}
}

// outcomeStatus maps a failed account outcome to an HTTP status.
func outcomeStatus(out account.Outcome) int {
	switch out.Message {
	case account.MsgDuplicateUsername:
		return http.StatusConflict
	case account.MsgInvalidCredentials:
		return http.StatusUnauthorized
	case account.MsgUserNotFound:
		return http.StatusNotFound
	case account.MsgStoreFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
