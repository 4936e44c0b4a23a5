package editor

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

const maxFormMemory = 32 << 20

// Routes served by Handlers.
const (
	RouteSave   = "/editor/save"
	RouteUpload = "/editor/uploadFile"
)

// Handlers serves the editor's save and upload endpoints.
type Handlers struct {
	saver   *Saver
	staging *Staging
	errs    *ferrors.HTTPErrorAdapter
}

// NewHandlers creates the editor handlers.
func NewHandlers(saver *Saver, staging *Staging) *Handlers {
	return &Handlers{saver: saver, staging: staging, errs: ferrors.NewHTTPErrorAdapter(nil)}
}

// Register mounts the endpoints on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+RouteSave, h.Save)
	mux.HandleFunc("POST "+RouteUpload, h.Upload)
}

type uploadResponse struct {
	Success int `json:"success"`
	File    struct {
		URL string `json:"url"`
	} `json:"file"`
}

// Upload stages one image from the "image" form field.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(r); err != nil {
		h.errs.WriteErrorResponse(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.errs.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryValidation, "missing image upload").Build())
		return
	}
	defer func() { _ = file.Close() }()

	name, err := h.staging.Put(header.Filename, file)
	if err != nil {
		h.errs.WriteErrorResponse(w, r, err)
		return
	}
	var resp uploadResponse
	resp.Success = 1
	resp.File.URL = h.staging.URL(name)
	writeJSON(w, http.StatusOK, resp)
}

// Save stages the submitted thumbnail and images and saves the post. The
// staged files are removed again when the save fails.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(r); err != nil {
		h.errs.WriteErrorResponse(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	p, doc, err := h.readPost(r)
	if err == nil {
		var result *SaveResult
		if result, err = h.saver.Save(r.Context(), p, doc); err == nil {
			writeJSON(w, http.StatusOK, result)
			return
		}
	}
	// Files staged by this request are of no use once the save failed.
	h.staging.Remove(append(p.Images, p.Thumbnail)...)
	h.errs.WriteErrorResponse(w, r, err)
}

func (h *Handlers) parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "malformed multipart form").Build()
	}
	return nil
}

func (h *Handlers) readPost(r *http.Request) (Post, *Document, error) {
	p := Post{
		Title:      strings.TrimSpace(r.FormValue("title")),
		Excerpt:    r.FormValue("excerpt"),
		Tags:       r.FormValue("tags"),
		AuthorName: r.FormValue("postAuthorName"),
		AuthorURL:  r.FormValue("postAuthorUrl"),
	}
	if p.Title == "" {
		return p, nil, ferrors.ValidationError("title is required").Build()
	}

	date, err := post.ParseDate(r.FormValue("postDate"))
	if err != nil {
		return p, nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid postDate").
			WithContext("postDate", r.FormValue("postDate")).
			Build()
	}
	p.PostDate = date

	doc := &Document{}
	if raw := r.FormValue("editor"); raw != "" {
		if doc, err = ParseDocument(raw); err != nil {
			return p, nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid editor document").Build()
		}
	}

	if files := r.MultipartForm.File["thumbnail"]; len(files) > 0 {
		if p.Thumbnail, err = h.stage(files[0]); err != nil {
			return p, nil, err
		}
	}
	for _, fh := range r.MultipartForm.File["images"] {
		name, err := h.stage(fh)
		if err != nil {
			return p, nil, err
		}
		p.Images = append(p.Images, name)
	}
	return p, doc, nil
}

func (h *Handlers) stage(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "read uploaded file").WithContext("file", fh.Filename).Build()
	}
	defer func() { _ = f.Close() }()
	return h.staging.Put(fh.Filename, f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
