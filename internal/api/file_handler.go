package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unalkalkan/s3provider/pkg/storage"
	"github.com/unalkalkan/s3provider/pkg/types"
)

// FileStore is the provider surface the handler needs
type FileStore interface {
	UploadStream(ctx context.Context, f *types.File, params ...storage.Param) error
	Delete(ctx context.Context, f *types.File, params ...storage.DeleteParam) error
	Key(f *types.File) string
}

// FileHandler exposes the provider over HTTP
type FileHandler struct {
	store         FileStore
	maxUploadSize int64
	logger        *zap.Logger
}

// FileResponse describes a stored file
type FileResponse struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
	Ext  string `json:"ext"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
	Path string `json:"path,omitempty"`
	Key  string `json:"key"`
	URL  string `json:"url"`
}

// NewFileHandler creates a new file handler
func NewFileHandler(store FileStore, maxUploadSize int64, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{
		store:         store,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Routes registers the file endpoints on mux
func (h *FileHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/files", h.UploadFile)
	mux.HandleFunc("DELETE /api/v1/files", h.DeleteFile)
	mux.HandleFunc("GET /api/v1/files/key", h.GetKey)
}

// UploadFile handles POST /api/v1/files
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	// Get file from form
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	dir, err := cleanPath(r.FormValue("path"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))

	// Sniff the type when the client did not send one
	body := bufio.NewReader(file)
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		head, _ := body.Peek(512)
		mime = http.DetectContentType(head)
	}

	f := &types.File{
		Name:    header.Filename,
		Hash:    NewHash(name),
		Ext:     ext,
		Mime:    mime,
		Path:    dir,
		Size:    header.Size,
		Payload: types.NewStream(body),
	}

	var params []storage.Param
	if cc := r.FormValue("cache_control"); cc != "" {
		params = append(params, storage.WithCacheControl(cc))
	}

	if err := h.store.UploadStream(r.Context(), f, params...); err != nil {
		h.respondStoreError(w, "upload", err)
		return
	}

	h.logger.Info("file uploaded", zap.String("name", f.Name), zap.String("url", f.URL), zap.Int64("size", f.Size))
	respondJSON(w, h.toResponse(f), http.StatusCreated)
}

// DeleteFile handles DELETE /api/v1/files?hash=&ext=&path=
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fileFromQuery(w, r)
	if !ok {
		return
	}

	var params []storage.DeleteParam
	if v := r.URL.Query().Get("version_id"); v != "" {
		params = append(params, storage.WithVersionID(v))
	}

	if err := h.store.Delete(r.Context(), f, params...); err != nil {
		h.respondStoreError(w, "delete", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetKey handles GET /api/v1/files/key?hash=&ext=&path=
func (h *FileHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fileFromQuery(w, r)
	if !ok {
		return
	}
	respondJSON(w, map[string]string{"key": h.store.Key(f)}, http.StatusOK)
}

func (h *FileHandler) fileFromQuery(w http.ResponseWriter, r *http.Request) (*types.File, bool) {
	q := r.URL.Query()
	hash := q.Get("hash")
	if hash == "" {
		respondError(w, "hash is required", http.StatusBadRequest)
		return nil, false
	}
	dir, err := cleanPath(q.Get("path"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &types.File{Hash: hash, Ext: q.Get("ext"), Path: dir}, true
}

func (h *FileHandler) respondStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrInvalidFile) {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	// the provider already logged the backend failure
	h.logger.Warn("storage request failed", zap.String("op", op), zap.Error(err))
	respondError(w, "Storage backend failed", http.StatusBadGateway)
}

func (h *FileHandler) toResponse(f *types.File) FileResponse {
	return FileResponse{
		Name: f.Name,
		Hash: f.Hash,
		Ext:  f.Ext,
		Mime: f.Mime,
		Size: f.Size,
		Path: f.Path,
		Key:  h.store.Key(f),
		URL:  f.URL,
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// NewHash derives a unique object hash from a file's base name
func NewHash(name string) string {
	base := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if len(base) > 64 {
		base = base[:64]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	if base == "" {
		return suffix
	}
	return base + "_" + suffix
}

var errBadPath = errors.New("path must be relative and must not contain '..'")

// cleanPath normalizes a client supplied path fragment
func cleanPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "/") {
		return "", errBadPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", errBadPath
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
