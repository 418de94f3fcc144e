package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	custommw "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver/middleware"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/httpx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

// Dashboard tabs.
const (
	tabStats    = "stats"
	tabContent  = "content"
	tabServices = "services"
	tabGallery  = "gallery"
	tabMessages = "messages"
)

var dashboardTabs = []string{tabStats, tabContent, tabServices, tabGallery, tabMessages}

// maxUploadRequest bounds a streamed multipart body. Files over the image
// limit are truncated while reading, so this only stops runaway requests.
const maxUploadRequest = 1 << 30

// panelID is the element tab links swap.
const panelID = "dashboard-panel"

type tabView struct {
	Key    string
	Label  string
	Active bool
	Href   string
}

type dashboardView struct {
	Tab       string
	Tabs      []tabView
	User      *appsession.User
	CSRFToken string
	Stats     []services.StatCard
	Content   []editor.Row[domain.SiteContent]
	Services  []editor.Row[domain.Service]
	Gallery   []editor.Row[domain.GalleryImage]
	Messages  []editor.Row[domain.ContactMessage]
	Unread    int
	HasDraft  bool
	Icons     []domain.Icon
	Confirm   confirmCopy
}

type confirmCopy struct {
	Service string
	Image   string
	Message string
}

type dashboardHandlers struct {
	managers *services.ManagerRegistry
	stats    *services.StatsService
	bundle   *i18n.Bundle
	views    *views
}

// Page renders the dashboard with one tab open.
func (h *dashboardHandlers) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	tab := normaliseTab(r.URL.Query().Get("tab"))
	// Opening a tab refetches its rows; a failure keeps the previous ones
	// and queues a notice.
	_ = set.Reload(ctx, tab)
	view := h.view(r, set, sess, tab)
	toasts := append(toastsFromFlashes(sess.Flashes()), toastsFromNotices(set.Notices())...)

	// Tab switches only swap the panel.
	if custommw.IsHTMXRequest(ctx) && custommw.HTMXTarget(ctx) == panelID {
		if err := h.views.fragment(w, http.StatusOK, "dashboard-panel", view, toasts); err != nil {
			requestctx.Logger(ctx).Error("render dashboard panel", zap.Error(err))
		}
		return
	}

	data := basePage(r, "ar")
	data.Title = h.bundle.T("ar", "dashboard.title")
	data.Toasts = toasts
	data.Body = view
	if err := h.views.page(w, http.StatusOK, "dashboard.tmpl", data); err != nil {
		requestctx.Logger(ctx).Error("render dashboard", zap.Error(err))
	}
}

// EditField applies the posted fields to a local row. Nothing is saved.
func (h *dashboardHandlers) EditField(w http.ResponseWriter, r *http.Request) {
	set, _, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if err := applyFields(set, chi.URLParam(r, "kind"), chi.URLParam(r, "id"), r.PostForm); err != nil {
		writeEditorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save commits one row of a manager.
func (h *dashboardHandlers) Save(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	kind, id := chi.URLParam(r, "kind"), chi.URLParam(r, "id")
	if err := applyFields(set, kind, id, r.PostForm); err != nil {
		writeEditorError(w, r, err)
		return
	}
	var err error
	switch kind {
	case tabContent:
		err = set.Content.Commit(r.Context(), id)
	case tabServices:
		err = set.Services.Commit(r.Context(), id)
	case tabGallery:
		err = set.Gallery.Commit(r.Context(), id)
	default:
		http.NotFound(w, r)
		return
	}
	if errors.Is(err, editor.ErrRowNotFound) {
		writeEditorError(w, r, err)
		return
	}
	h.respond(w, r, set, sess, kind)
}

// Delete removes a row after the user confirmed it.
func (h *dashboardHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	kind, id := chi.URLParam(r, "kind"), chi.URLParam(r, "id")
	confirmed := r.PostFormValue("confirmed") == "true"
	var err error
	switch kind {
	case tabContent:
		err = set.Content.Remove(r.Context(), id, confirmed)
	case tabServices:
		err = set.Services.Remove(r.Context(), id, confirmed)
	case tabGallery:
		err = set.Gallery.Remove(r.Context(), id, confirmed)
	case tabMessages:
		err = set.Messages.Remove(r.Context(), id, confirmed)
	default:
		http.NotFound(w, r)
		return
	}
	switch {
	case errors.Is(err, editor.ErrNotConfirmed):
		httpx.WriteError(r.Context(), w, httpx.NewError("confirmation_required", "delete was not confirmed", http.StatusConflict))
		return
	case errors.Is(err, editor.ErrRowNotFound), errors.Is(err, services.ErrSectionsFixed):
		writeEditorError(w, r, err)
		return
	}
	h.respond(w, r, set, sess, kind)
}

// NewService opens the draft service card.
func (h *dashboardHandlers) NewService(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	set.NewServiceDraft()
	h.respond(w, r, set, sess, tabServices)
}

// MarkRead marks a contact message read.
func (h *dashboardHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	if err := set.MarkRead(r.Context(), chi.URLParam(r, "id")); errors.Is(err, editor.ErrRowNotFound) {
		writeEditorError(w, r, err)
		return
	}
	h.respond(w, r, set, sess, tabMessages)
}

// RenameImage saves a new gallery image title.
func (h *dashboardHandlers) RenameImage(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if err := set.RenameImage(r.Context(), chi.URLParam(r, "id"), r.PostFormValue("title_ar")); errors.Is(err, editor.ErrRowNotFound) {
		writeEditorError(w, r, err)
		return
	}
	h.respond(w, r, set, sess, tabGallery)
}

// UploadSectionImage replaces the image of a content section.
func (h *dashboardHandlers) UploadSectionImage(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	files, err := readImages(w, r, "image")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if len(files) > 0 {
		if err := set.UploadSectionImage(r.Context(), chi.URLParam(r, "id"), files[0]); errors.Is(err, editor.ErrRowNotFound) {
			writeEditorError(w, r, err)
			return
		}
	}
	h.respond(w, r, set, sess, tabContent)
}

// UploadServiceImage sets the image of a service card. The card is saved
// with its other fields.
func (h *dashboardHandlers) UploadServiceImage(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	files, err := readImages(w, r, "image")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if len(files) > 0 {
		if _, err := set.UploadServiceImage(r.Context(), chi.URLParam(r, "id"), files[0]); errors.Is(err, editor.ErrRowNotFound) {
			writeEditorError(w, r, err)
			return
		}
	}
	h.respond(w, r, set, sess, tabServices)
}

// UploadGallery adds every posted image to the gallery.
func (h *dashboardHandlers) UploadGallery(w http.ResponseWriter, r *http.Request) {
	set, sess, ok := h.managerSet(w, r)
	if !ok {
		return
	}
	files, err := readImages(w, r, "images")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	set.UploadGallery(r.Context(), files)
	h.respond(w, r, set, sess, tabGallery)
}

func (h *dashboardHandlers) managerSet(w http.ResponseWriter, r *http.Request) (*services.ManagerSet, *appsession.Session, bool) {
	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok || !sess.Authenticated() {
		httpx.Redirect(w, r, loginPath)
		return nil, nil, false
	}
	set, err := h.managers.Get(r.Context(), sess.ID())
	if err != nil {
		requestctx.Logger(r.Context()).Error("load dashboard managers", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("managers_unavailable", "dashboard unavailable", http.StatusInternalServerError))
		return nil, nil, false
	}
	return set, sess, true
}

// respond re-renders the open panel for htmx, or carries the notices over a
// redirect back to the tab.
func (h *dashboardHandlers) respond(w http.ResponseWriter, r *http.Request, set *services.ManagerSet, sess *appsession.Session, tab string) {
	ctx := r.Context()
	notices := set.Notices()
	if !custommw.IsHTMXRequest(ctx) {
		for _, n := range notices {
			sess.AddFlash(flashFromNotice(n))
		}
		http.Redirect(w, r, tabHref(tab), http.StatusSeeOther)
		return
	}
	view := h.view(r, set, sess, tab)
	if err := h.views.fragment(w, http.StatusOK, "dashboard-panel", view, toastsFromNotices(notices)); err != nil {
		requestctx.Logger(ctx).Error("render dashboard panel", zap.String("tab", tab), zap.Error(err))
	}
}

func (h *dashboardHandlers) view(r *http.Request, set *services.ManagerSet, sess *appsession.Session, tab string) dashboardView {
	view := dashboardView{
		Tab:       tab,
		User:      sess.User(),
		CSRFToken: custommw.CSRFTokenFromContext(r.Context()),
		Unread:    set.UnreadMessages(),
		Icons:     domain.Icons(),
		Confirm: confirmCopy{
			Service: services.ConfirmDeleteService,
			Image:   services.ConfirmDeleteImage,
			Message: services.ConfirmDeleteMessage,
		},
	}
	for _, key := range dashboardTabs {
		view.Tabs = append(view.Tabs, tabView{
			Key:    key,
			Label:  h.bundle.T("ar", "dashboard.tab."+key),
			Active: key == tab,
			Href:   tabHref(key),
		})
	}
	switch tab {
	case tabStats:
		view.Stats = h.stats.Cards(r.Context())
	case tabContent:
		view.Content = orderSections(set.Content.Rows())
	case tabServices:
		view.Services = set.Services.Rows()
		view.HasDraft = set.Services.HasDraft()
	case tabGallery:
		view.Gallery = set.Gallery.Rows()
	case tabMessages:
		view.Messages = set.Messages.Rows()
	}
	return view
}

func orderSections(rows []editor.Row[domain.SiteContent]) []editor.Row[domain.SiteContent] {
	rank := make(map[domain.SectionKey]int, len(domain.SectionKeys))
	for i, key := range domain.SectionKeys {
		rank[key] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[rows[i].Value.Section] < rank[rows[j].Value.Section]
	})
	return rows
}

// applyFields edits a local row with every posted field except the CSRF token.
func applyFields(set *services.ManagerSet, kind, id string, form url.Values) error {
	keys := make([]string, 0, len(form))
	for key := range form {
		if key == custommw.CSRFField || key == "confirmed" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := editField(set, kind, id, key, form.Get(key)); err != nil {
			return err
		}
	}
	return nil
}

func editField(set *services.ManagerSet, kind, id, field, value string) error {
	switch kind {
	case tabContent:
		return set.Content.EditField(id, field, value)
	case tabServices:
		return set.Services.EditField(id, field, value)
	case tabGallery:
		return set.Gallery.EditField(id, field, value)
	case tabMessages:
		return set.Messages.EditField(id, field, value)
	default:
		return fmt.Errorf("%w: %s", editor.ErrRowNotFound, kind)
	}
}

// readImages reads the files posted under field. Parts are streamed one at a
// time and each is read at most one byte past the image limit, so a batch of
// many large files is judged file by file rather than by the body size.
func readImages(w http.ResponseWriter, r *http.Request, field string) ([]services.ImageFile, error) {
	if r.MultipartForm != nil {
		// Already parsed while looking up the CSRF form field.
		return readParsedImages(r.MultipartForm.File[field])
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequest)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("parse upload: %w", err)
	}
	var files []services.ImageFile
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse upload: %w", err)
		}
		if part.FormName() != field || part.FileName() == "" {
			part.Close()
			continue
		}
		file, err := readImage(part.FileName(), part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
}

func readParsedImages(headers []*multipart.FileHeader) ([]services.ImageFile, error) {
	files := make([]services.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		file, err := readImage(fh.Filename, fh.Header.Get("Content-Type"), f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// readImage keeps MaxImageBytes+1 bytes so the uploader can still reject
// the file by size, and discards the rest.
func readImage(name, contentType string, src io.Reader) (services.ImageFile, error) {
	data, err := io.ReadAll(io.LimitReader(src, services.MaxImageBytes+1))
	if err == nil {
		_, err = io.Copy(io.Discard, src)
	}
	if err != nil {
		return services.ImageFile{}, fmt.Errorf("read %s: %w", name, err)
	}
	return services.ImageFile{Filename: name, ContentType: contentType, Data: data}, nil
}

func writeEditorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, editor.ErrRowNotFound):
		httpx.WriteError(r.Context(), w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrSectionsFixed):
		httpx.WriteError(r.Context(), w, httpx.NewError("not_allowed", err.Error(), http.StatusMethodNotAllowed))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_field", err.Error(), http.StatusBadRequest))
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(r.Context(), w, httpx.NewError("bad_request", err.Error(), http.StatusBadRequest))
}

func normaliseTab(tab string) string {
	tab = strings.ToLower(strings.TrimSpace(tab))
	for _, known := range dashboardTabs {
		if tab == known {
			return tab
		}
	}
	return tabStats
}

func tabHref(tab string) string {
	return dashboardPath + "?" + url.Values{"tab": {tab}}.Encode()
}
