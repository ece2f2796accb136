package httpadapter

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Ingestor == nil {
		unavailable(w, "ingestion")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMultipartError(w, r, err, "file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.services.Ingestor.Upload(r.Context(), ports.UploadRequest{
		Filename:         header.Filename,
		MimeType:         header.Header.Get("Content-Type"),
		Size:             header.Size,
		Body:             file,
		TargetDepartment: strings.TrimSpace(r.FormValue("target_department")),
		UploaderName:     strings.TrimSpace(r.FormValue("uploader_name")),
		UploaderEmail:    strings.TrimSpace(r.FormValue("uploader_email")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) uploadBatch(w http.ResponseWriter, r *http.Request) {
	if rt.services.Ingestor == nil {
		unavailable(w, "ingestion")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes()*batchBodyFiles+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMultipartError(w, r, err, "files")
		return
	}
	headers := r.MultipartForm.File["files"]
	files := make([]ports.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFileFromHeader(fh))
	}

	batch, err := rt.services.Ingestor.BulkUpload(r.Context(), ports.BulkUploadRequest{
		BatchName:        strings.TrimSpace(r.FormValue("batch_name")),
		TargetDepartment: strings.TrimSpace(r.FormValue("target_department")),
		UploaderName:     strings.TrimSpace(r.FormValue("uploader_name")),
		UploaderEmail:    strings.TrimSpace(r.FormValue("uploader_email")),
		Files:            files,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, batch)
}

func uploadFileFromHeader(fh *multipart.FileHeader) ports.UploadFile {
	return ports.UploadFile{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func writeMultipartError(w http.ResponseWriter, r *http.Request, err error, field string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large"})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field '" + field + "' is required"})
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if rt.services.Catalog == nil {
		unavailable(w, "catalog")
		return
	}
	filter, err := listFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := rt.services.Catalog.ListDocuments(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Catalog == nil {
		unavailable(w, "catalog")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.services.Catalog.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) downloadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Catalog == nil {
		unavailable(w, "catalog")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, content, err := rt.services.Catalog.OpenContent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer content.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, content)
}

func (rt *Router) listProcessingLogs(w http.ResponseWriter, r *http.Request) {
	if rt.services.Catalog == nil {
		unavailable(w, "catalog")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs, err := rt.services.Catalog.ListLogs(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": id, "logs": logs})
}

func (rt *Router) reviewDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Reviewer == nil {
		unavailable(w, "review")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input domain.ReviewInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	review, err := rt.services.Reviewer.Review(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (rt *Router) getBatch(w http.ResponseWriter, r *http.Request) {
	if rt.services.Catalog == nil {
		unavailable(w, "catalog")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	batch, err := rt.services.Catalog.GetBatch(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if rt.services.Catalog == nil {
		unavailable(w, "catalog")
		return
	}
	stats, err := rt.services.Catalog.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
