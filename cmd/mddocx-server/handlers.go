package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"pkt.systems/mddocx"
	"pkt.systems/mddocx/docx"
	"pkt.systems/mddocx/imaging"
)

const defaultFilename = "output.docx"

type handler struct {
	logger  *slog.Logger
	maxBody int64
	missing mddocx.MissingImagePolicy
	theme   docx.Theme
	config  docx.Config
}

func newHandler(logger *slog.Logger, cfg serverConfig) *handler {
	return &handler{
		logger:  logger,
		maxBody: cfg.maxBody,
		missing: cfg.missing,
		theme:   cfg.theme,
		config:  cfg.docx,
	}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /docx", h.handleDocx)
	mux.HandleFunc("POST /merge", h.handleMerge)
	mux.HandleFunc("POST /crop", h.handleCrop)
	return mux
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// docxRequest is the JSON form of POST /docx. Images are base64 encoded
// and keyed by the file name used in the Markdown.
type docxRequest struct {
	Markdown      *string           `json:"markdown"`
	Text          *string           `json:"text"`
	Filename      string            `json:"filename"`
	Images        map[string]string `json:"images"`
	MissingImages string            `json:"missing_images"`
	Theme         string            `json:"theme"`
	PageSize      string            `json:"page_size"`
}

// POST /docx
// Accepts JSON {"markdown"|"text", "filename", "images"} or multipart with
// "markdown"/"text"/"filename" fields and any number of "file" parts.
func (h *handler) handleDocx(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req docxRequest
	images := mddocx.Images{}
	switch mediaType(r) {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			writeBodyError(w, err, "invalid multipart body")
			return
		}
		if vals, ok := r.MultipartForm.Value["markdown"]; ok && len(vals) > 0 {
			req.Markdown = &vals[0]
		}
		if vals, ok := r.MultipartForm.Value["text"]; ok && len(vals) > 0 {
			req.Text = &vals[0]
		}
		req.Filename = r.FormValue("filename")
		req.MissingImages = r.FormValue("missing_images")
		req.Theme = r.FormValue("theme")
		req.PageSize = r.FormValue("page_size")
		for _, fh := range r.MultipartForm.File["file"] {
			data, err := readPart(fh)
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed to read file part")
				h.logger.Warn("reading file part", "filename", fh.Filename, "error", err)
				return
			}
			images[filepath.Base(fh.Filename)] = data
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBodyError(w, err, "invalid request: expected JSON with 'markdown' or multipart/form-data with 'markdown' and 'file' parts")
			return
		}
		for name, enc := range req.Images {
			data, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("image %q is not valid base64", name))
				return
			}
			images[name] = data
		}
	}
	if req.Markdown == nil && req.Text == nil {
		writeError(w, http.StatusBadRequest, "either 'markdown' or 'text' is required")
		return
	}

	policy := h.missing
	if req.MissingImages != "" {
		p, err := mddocx.ParseMissingImagePolicy(req.MissingImages)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		policy = p
	}
	theme := h.theme
	if req.Theme != "" {
		t, ok := docx.ThemeByName(req.Theme)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown theme %q", req.Theme))
			return
		}
		theme = t
	}
	cfg := h.config
	if req.PageSize != "" {
		cfg.PageSize = req.PageSize
		cfg.PageWidth, cfg.PageHeight = 0, 0
	}

	var doc *mddocx.Document
	if req.Markdown != nil && *req.Markdown != "" {
		parsed, err := mddocx.Parse(mddocx.ParseRequest{
			Reader:  strings.NewReader(*req.Markdown),
			Images:  images,
			Options: []mddocx.ParseOption{mddocx.WithMissingImages(policy)},
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		doc = parsed
	} else {
		text := ""
		if req.Text != nil {
			text = *req.Text
		}
		doc = mddocx.PlainText(text)
	}

	var buf bytes.Buffer
	if err := docx.Render(docx.RenderRequest{Document: doc, Writer: &buf, Theme: theme, Config: cfg}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		h.logger.Warn("render failed", "error", err)
		return
	}
	h.logger.Debug("rendered document", "blocks", doc.Len(), "images", doc.ImageCount(), "bytes", buf.Len())
	writeAttachment(w, docx.ContentType, downloadName(req.Filename, defaultFilename), buf.Bytes())
}

// POST /merge
// Accepts JSON {"documents": {"1": base64, ...}, "filename"} or multipart
// with one file part per document. Documents are merged in numeric key
// order; multipart keys are the file names without extension and must be
// unique.
func (h *handler) handleMerge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	docs := map[string][]byte{}
	filename := ""
	switch mediaType(r) {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			writeBodyError(w, err, "invalid multipart body")
			return
		}
		filename = r.FormValue("filename")
		for field, parts := range r.MultipartForm.File {
			for _, fh := range parts {
				data, err := readPart(fh)
				if err != nil {
					writeError(w, http.StatusBadRequest, "failed to read file part")
					h.logger.Warn("reading file part", "field", field, "filename", fh.Filename, "error", err)
					return
				}
				key := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
				if key == "" {
					key = field
				}
				if _, dup := docs[key]; dup {
					writeError(w, http.StatusBadRequest, fmt.Sprintf("duplicate document key %q", key))
					return
				}
				docs[key] = data
			}
		}
	default:
		var req struct {
			Documents map[string]string `json:"documents"`
			Filename  string            `json:"filename"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBodyError(w, err, "invalid request: expected JSON with 'documents' or multipart/form-data with file parts")
			return
		}
		filename = req.Filename
		for key, enc := range req.Documents {
			data, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("document %q is not valid base64", key))
				return
			}
			docs[key] = data
		}
	}

	var buf bytes.Buffer
	if err := docx.MergeMap(&buf, docs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		h.logger.Warn("merge failed", "documents", len(docs), "error", err)
		return
	}
	writeAttachment(w, docx.ContentType, downloadName(filename, "merged.docx"), buf.Bytes())
}

// POST /crop
// Accepts multipart with a "file" part and x1, y1, x2, y2 (and optional
// quality) fields, or JSON {"image": base64, "x1", "y1", "x2", "y2"}.
// Responds with the cropped image as JPEG.
func (h *handler) handleCrop(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var (
		data    []byte
		rect    imaging.Rect
		quality int
	)
	switch mediaType(r) {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			writeBodyError(w, err, "invalid multipart body")
			return
		}
		parts := r.MultipartForm.File["file"]
		if len(parts) == 0 {
			writeError(w, http.StatusBadRequest, "'file' is required")
			return
		}
		var err error
		if data, err = readPart(parts[0]); err != nil {
			writeError(w, http.StatusBadRequest, "failed to read file part")
			return
		}
		coords := make([]int, 4)
		for i, name := range []string{"x1", "y1", "x2", "y2"} {
			v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("'%s' must be an integer", name))
				return
			}
			coords[i] = v
		}
		rect = imaging.Rect{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
		if q := r.FormValue("quality"); q != "" {
			if quality, err = strconv.Atoi(q); err != nil {
				writeError(w, http.StatusBadRequest, "'quality' must be an integer")
				return
			}
		}
	default:
		var req struct {
			Image   string `json:"image"`
			X1      int    `json:"x1"`
			Y1      int    `json:"y1"`
			X2      int    `json:"x2"`
			Y2      int    `json:"y2"`
			Quality int    `json:"quality"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBodyError(w, err, "invalid request: expected JSON with 'image' or multipart/form-data with a 'file' part")
			return
		}
		var err error
		if data, err = base64.StdEncoding.DecodeString(req.Image); err != nil {
			writeError(w, http.StatusBadRequest, "'image' is not valid base64")
			return
		}
		rect = imaging.Rect{X1: req.X1, Y1: req.Y1, X2: req.X2, Y2: req.Y2}
		quality = req.Quality
	}

	out, err := imaging.Crop(data, rect, quality)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// downloadName sanitises a client supplied file name for
// Content-Disposition.
func downloadName(name, fallback string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeBodyError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
