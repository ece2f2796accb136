package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

func (rt *Router) classifyFile(w http.ResponseWriter, r *http.Request) {
	if rt.services.Classifier == nil {
		unavailable(w, "classification")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMultipartError(w, r, err, "file")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	content, err := rt.readFileContent(headers[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := rt.services.Classifier.ClassifyFile(r.Context(), content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) classifyFiles(w http.ResponseWriter, r *http.Request) {
	if rt.services.Classifier == nil {
		unavailable(w, "classification")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes()*batchBodyFiles+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMultipartError(w, r, err, "files")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}
	files := make([]ports.FileContent, 0, len(headers))
	for _, fh := range headers {
		content, err := rt.readFileContent(fh)
		if err != nil {
			writeError(w, r, err)
			return
		}
		files = append(files, content)
	}
	result, err := rt.services.Classifier.ClassifyBatch(r.Context(), files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readFileContent reads one byte past the limit so oversize files reach the
// classification service, which rejects them as too large.
func (rt *Router) readFileContent(fh *multipart.FileHeader) (ports.FileContent, error) {
	f, err := fh.Open()
	if err != nil {
		return ports.FileContent{}, fmt.Errorf("open multipart file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, rt.maxUploadBytes()+1))
	if err != nil {
		return ports.FileContent{}, fmt.Errorf("read multipart file: %w", err)
	}
	return ports.FileContent{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

type analyzeRequest struct {
	DocumentID string `json:"doc_id"`
	Content    string `json:"content"`
}

func (rt *Router) analyzeText(w http.ResponseWriter, r *http.Request) {
	if rt.services.Classifier == nil {
		unavailable(w, "classification")
		return
	}
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	analysis, err := rt.services.Classifier.AnalyzeText(r.Context(), req.DocumentID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type routeRequest struct {
	DocumentID string  `json:"doc_id"`
	DocType    string  `json:"doc_type"`
	Department string  `json:"department"`
	Priority   string  `json:"priority"`
	RiskScore  float64 `json:"risk_score"`
}

func (rt *Router) routeDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Classifier == nil {
		unavailable(w, "classification")
		return
	}
	var req routeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	decision, err := rt.services.Classifier.RouteDocument(r.Context(), domain.RoutingRequest{
		DocumentID: req.DocumentID,
		DocType:    req.DocType,
		Department: req.Department,
		Priority:   domain.Priority(req.Priority),
		RiskScore:  req.RiskScore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type workflowRequest struct {
	DocumentID   string `json:"doc_id"`
	WorkflowType string `json:"workflow_type"`
}

func (rt *Router) triggerWorkflow(w http.ResponseWriter, r *http.Request) {
	if rt.services.Classifier == nil {
		unavailable(w, "classification")
		return
	}
	var req workflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	workflow, err := rt.services.Classifier.TriggerWorkflow(r.Context(), req.DocumentID, req.WorkflowType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workflow)
}

func (rt *Router) listDepartments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"departments": domain.Departments()})
}

func (rt *Router) listPriorityLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"priority_levels": domain.PriorityLevels()})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	return nil
}
