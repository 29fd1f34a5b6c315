package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cybershield/internal/classifier"
	"cybershield/internal/logger"
	"cybershield/internal/models"
	"cybershield/internal/storage"
)

type sendMessageRequest struct {
	SenderID    int64  `json:"sender_id"`
	ReceiverID  int64  `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	FileURL     string `json:"file_url"`
}

type moderationStatus struct {
	WarningCount     int   `json:"warning_count"`
	HasRedTag        bool  `json:"has_red_tag"`
	IsBlocked        bool  `json:"is_blocked"`
	IncidentID       int64 `json:"incident_id"`
	WarningMessageID int64 `json:"warning_message_id"`
}

type sendMessageResponse struct {
	Message    *models.Message   `json:"message"`
	Moderation *moderationStatus `json:"moderation,omitempty"`
}

// handleSendMessage runs the send path: classify, escalate when flagged,
// store the (possibly filtered) message. Classifier failures fail open;
// moderation bookkeeping failures fail closed.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" || req.SenderID == 0 || req.ReceiverID == 0 {
		writeError(w, http.StatusBadRequest, "sender_id, receiver_id and content are required")
		return
	}
	if req.MessageType == "" {
		req.MessageType = models.MessageTypeText
	}

	sender, err := s.users.GetByID(req.SenderID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "sender not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load sender")
		return
	}
	if sender.IsBlocked {
		writeError(w, http.StatusForbidden, "your account is blocked")
		return
	}

	contentFiltered := req.Content
	isFlagged := false
	severityScore := ""
	var modStatus *moderationStatus

	if req.MessageType == models.MessageTypeText {
		sensitivity := sender.SensitivityLevel
		if sensitivity == "" {
			sensitivity = s.defaultSensitivity
		}

		verdict, err := s.detector.DetectTextAbuse(r.Context(), req.Content, sensitivity)
		if err != nil {
			// Fail open: the message still goes out unfiltered, but this is
			// a classifier outage, not a clean verdict.
			logger.Warningf("Classifier unavailable for sender %d, delivering unfiltered: %v", req.SenderID, err)
		} else if verdict.IsAbusive {
			isFlagged = true
			severityScore = verdict.Severity
			contentFiltered = verdict.FilteredText

			contextInfo := "Message to user " + strconv.FormatInt(req.ReceiverID, 10)
			outcome, err := s.moderation.HandleFlaggedVerdict(r.Context(), req.SenderID, nil, verdict, contextInfo)
			if err != nil {
				// Fail closed: flagged content is not delivered without its
				// moderation bookkeeping.
				logger.Errorf("Moderation transaction failed for sender %d: %v", req.SenderID, err)
				writeError(w, http.StatusInternalServerError, "message could not be moderated")
				return
			}
			modStatus = &moderationStatus{
				WarningCount:     outcome.WarningCount,
				HasRedTag:        outcome.HasRedTag,
				IsBlocked:        outcome.IsBlocked,
				IncidentID:       outcome.IncidentID,
				WarningMessageID: outcome.WarningMessageID,
			}
		}
	}

	message := &models.Message{
		SenderID:        req.SenderID,
		ReceiverID:      req.ReceiverID,
		Content:         req.Content,
		ContentFiltered: contentFiltered,
		MessageType:     req.MessageType,
		FileURL:         req.FileURL,
		IsFlagged:       isFlagged,
		SeverityScore:   severityScore,
	}
	if err := s.messages.Create(message); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Message: message, Moderation: modStatus})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID, err1 := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	peerID, err2 := strconv.ParseInt(r.URL.Query().Get("peer_id"), 10, 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "user_id and peer_id are required")
		return
	}

	messages, err := s.messages.GetConversation(userID, peerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// handleCheckImage classifies uploaded image bytes. Unsafe images are
// refused and escalated with a high severity verdict.
func (s *Server) handleCheckImage(w http.ResponseWriter, r *http.Request) {
	senderID, err := strconv.ParseInt(r.URL.Query().Get("sender_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sender_id is required")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "image data is required")
		return
	}

	verdict, err := s.detector.DetectImageContent(r.Context(), data)
	if err != nil {
		logger.Warningf("Image classifier unavailable for sender %d: %v", senderID, err)
		writeJSON(w, http.StatusOK, map[string]interface{}{"is_safe": true, "checked": false})
		return
	}

	if verdict.IsSafe {
		writeJSON(w, http.StatusOK, map[string]interface{}{"is_safe": true, "checked": true})
		return
	}

	textVerdict := &classifier.TextVerdict{
		Content:       "Inappropriate image upload",
		IsAbusive:     true,
		ViolationType: "nsfw",
		Severity:      models.SeverityHigh,
		Categories:    verdict.Categories,
		FilteredText:  "",
		Analysis:      "NSFW score: " + strconv.FormatFloat(verdict.NSFWScore, 'f', 2, 64),
		Confidence:    verdict.Confidence,
		Model:         verdict.Model,
	}
	outcome, err := s.moderation.HandleFlaggedVerdict(r.Context(), senderID, nil, textVerdict, "Image upload")
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "sender not found")
			return
		}
		logger.Errorf("Moderation transaction failed for sender %d: %v", senderID, err)
		writeError(w, http.StatusInternalServerError, "image could not be moderated")
		return
	}

	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"is_safe": false,
		"error":   "image contains inappropriate content and cannot be sent",
		"moderation": moderationStatus{
			WarningCount:     outcome.WarningCount,
			HasRedTag:        outcome.HasRedTag,
			IsBlocked:        outcome.IsBlocked,
			IncidentID:       outcome.IncidentID,
			WarningMessageID: outcome.WarningMessageID,
		},
	})
}

type createReportRequest struct {
	ReporterID     int64  `json:"reporter_id"`
	ReportedUserID int64  `json:"reported_user_id"`
	MessageID      *int64 `json:"message_id"`
	ReportType     string `json:"report_type"`
	Description    string `json:"description"`
	IsUrgent       bool   `json:"is_urgent"`
}

// handleCreateReport files a user report against another user or message
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ReporterID == 0 || req.ReportedUserID == 0 || req.Description == "" {
		writeError(w, http.StatusBadRequest, "reporter_id, reported_user_id and description are required")
		return
	}
	if !models.IsValidReportType(req.ReportType) {
		writeError(w, http.StatusBadRequest, "invalid report_type")
		return
	}

	if _, err := s.users.GetByID(req.ReportedUserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "reported user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load reported user")
		return
	}

	report := &models.Report{
		ReporterID:     req.ReporterID,
		ReportedUserID: &req.ReportedUserID,
		MessageID:      req.MessageID,
		ReportType:     req.ReportType,
		Status:         models.ReportStatusPending,
		Description:    req.Description,
		IsUrgent:       req.IsUrgent,
	}
	if err := s.reports.Create(report); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "report submitted successfully",
		"report_id": report.ID,
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.IsValidReportStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	reports, err := s.reports.ListRecent(status, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

type updateReportRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	var req updateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.IsValidReportStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := s.reports.UpdateStatus(reportID, req.Status, req.AdminNotes); err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "report status updated"})
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	severity := r.URL.Query().Get("severity")

	incidents, err := s.incidents.ListRecent(status, severity, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list incidents")
		return
	}

	writeJSON(w, http.StatusOK, incidents)
}

type updateIncidentRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	incidentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid incident id")
		return
	}

	var req updateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case models.IncidentStatusReviewed, models.IncidentStatusResolved, models.IncidentStatusEscalated:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := s.incidents.UpdateStatus(incidentID, req.Status); err != nil {
		if errors.Is(err, storage.ErrIncidentNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update incident")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "incident status updated"})
}

type updateTagRequest struct {
	HasRedTag bool `json:"has_red_tag"`
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.users.SetRedTag(userID, req.HasRedTag); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user tag updated"})
}

type updateBlockRequest struct {
	IsBlocked bool `json:"is_blocked"`
}

func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.users.SetBlocked(userID, req.IsBlocked); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user block updated"})
}

// handleGenerateReport returns the evidence report with optional user and
// date range filters. Dates accept RFC3339 or plain YYYY-MM-DD.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var userID *int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = &id
	}

	start, err := parseDateParam(r.URL.Query().Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDateParam(r.URL.Query().Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	report, err := s.evidence.GenerateReport(userID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warningf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
