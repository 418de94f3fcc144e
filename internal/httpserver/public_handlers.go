package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/gallery"
	custommw "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver/middleware"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
)

// Public page sections in page order.
const (
	sectionHero     = "hero"
	sectionAbout    = "about"
	sectionServices = "services"
	sectionGallery  = "gallery"
	sectionContact  = "contact"
	sectionFooter   = "footer"
)

var publicSections = []string{sectionHero, sectionAbout, sectionServices, sectionGallery, sectionContact, sectionFooter}

// footerServiceLinks caps the service names listed in the footer.
const footerServiceLinks = 6

type heroView struct {
	Lang     string
	Title    string
	Content  string
	ImageURL string
}

type statView struct {
	Value string
	Icon  string
	Label string
}

type featureView struct {
	Icon        string
	Title       string
	Description string
}

type aboutView struct {
	Lang     string
	Title    string
	Content  string
	ImageURL string
	Stats    []statView
	Features []featureView
}

type serviceCard struct {
	Title       string
	Description string
	Icon        domain.Icon
	ImageURL    string
}

type servicesView struct {
	Lang  string
	Cards []serviceCard
}

type galleryTile struct {
	Index int
	Thumb string
	Alt   string
	Title string
	Open  string
}

type lightboxView struct {
	Index    int
	Total    int
	ImageURL string
	Alt      string
	Title    string
	Prev     string
	Next     string
	Close    string
}

type galleryView struct {
	Lang        string
	Tiles       []galleryTile
	HasMore     bool
	ShowMore    string
	Placeholder bool
	Lightbox    *lightboxView
}

type contactInfoView struct {
	Kind    string
	Title   string
	Details []string
}

type contactFormView struct {
	Name    string
	Phone   string
	Email   string
	Message string
}

type contactView struct {
	Lang      string
	Title     string
	Content   string
	ImageURL  string
	Info      []contactInfoView
	Phone     string
	Form      contactFormView
	CSRFToken string
}

type socialView struct {
	Icon  string
	Href  string
	Label string
}

type footerView struct {
	Lang     string
	Company  string
	Blurb    string
	Services []string
	Social   []socialView
	Year     int
}

// sectionSlot is one public section on the page: rendered inline when its
// fetch finished within the render budget, a lazy-loading skeleton otherwise.
type sectionSlot struct {
	Name  string
	Lang  string
	Ready bool
	Src   string
	Data  any
}

type homeView struct {
	Lang     string
	Hero     sectionSlot
	About    sectionSlot
	Services sectionSlot
	Gallery  sectionSlot
	Contact  sectionSlot
	Footer   sectionSlot
}

type publicHandlers struct {
	sections *services.SectionService
	contact  *services.ContactService
	bundle   *i18n.Bundle
	views    *views
	budget   time.Duration
	now      func() time.Time
}

// Home renders the page shell. Section fetches run concurrently; the ones
// done within the budget are inlined and the rest load from /sections/{name}.
// A negative budget sends every section as a skeleton.
func (h *publicHandlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := requestctx.Lang(ctx)
	query := r.URL.Query()

	var (
		mu    sync.Mutex
		ready = make(map[string]any, len(publicSections))
	)
	if h.budget > 0 {
		var g errgroup.Group
		for _, name := range publicSections {
			g.Go(func() error {
				data, err := h.build(ctx, name, lang, query)
				if err != nil {
					return err
				}
				mu.Lock()
				ready[name] = data
				mu.Unlock()
				return nil
			})
		}
		done := make(chan error, 1)
		go func() { done <- g.Wait() }()

		timer := time.NewTimer(h.budget)
		select {
		case err := <-done:
			if err != nil {
				requestctx.Logger(ctx).Warn("public section build failed", zap.Error(err))
			}
		case <-timer.C:
		case <-ctx.Done():
		}
		timer.Stop()
	}

	mu.Lock()
	slot := func(name string) sectionSlot {
		data, ok := ready[name]
		return sectionSlot{Name: name, Lang: lang, Ready: ok, Src: sectionSource(name, query), Data: data}
	}
	view := homeView{
		Lang:     lang,
		Hero:     slot(sectionHero),
		About:    slot(sectionAbout),
		Services: slot(sectionServices),
		Gallery:  slot(sectionGallery),
		Contact:  slot(sectionContact),
		Footer:   slot(sectionFooter),
	}
	mu.Unlock()

	data := basePage(r, lang)
	data.Title = h.bundle.T(lang, "site.name")
	data.Body = view
	if sess, ok := custommw.SessionFromContext(ctx); ok {
		data.Toasts = toastsFromFlashes(sess.Flashes())
	}
	if err := h.views.page(w, http.StatusOK, "home.tmpl", data); err != nil {
		requestctx.Logger(ctx).Error("render home", zap.Error(err))
	}
}

// Section renders one public section as an htmx fragment.
func (h *publicHandlers) Section(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	lang := requestctx.Lang(r.Context())
	data, err := h.build(r.Context(), name, lang, r.URL.Query())
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.views.fragment(w, http.StatusOK, "section-"+name, data, nil); err != nil {
		requestctx.Logger(r.Context()).Error("render section", zap.String("section", name), zap.Error(err))
	}
}

// Contact handles the contact form. htmx posts get the re-rendered section
// with a toast; plain posts are redirected back with a flash.
func (h *publicHandlers) Contact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := services.ContactForm{
		Name:    r.PostFormValue("name"),
		Phone:   r.PostFormValue("phone"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	}
	_, err := h.contact.Submit(ctx, form)
	notice := services.ContactNotice(err)

	if !custommw.IsHTMXRequest(ctx) {
		if sess, ok := custommw.SessionFromContext(ctx); ok {
			sess.AddFlash(flashFromNotice(notice))
		}
		http.Redirect(w, r, "/#contact", http.StatusSeeOther)
		return
	}

	view := h.contactView(ctx, requestctx.Lang(ctx))
	if err != nil {
		view.Form = contactFormView{Name: form.Name, Phone: form.Phone, Email: form.Email, Message: form.Message}
	}
	if renderErr := h.views.fragment(w, http.StatusOK, "section-contact", view, toastsFromNotices([]editor.Notice{notice})); renderErr != nil {
		requestctx.Logger(ctx).Error("render contact", zap.Error(renderErr))
	}
}

func (h *publicHandlers) build(ctx context.Context, name, lang string, query url.Values) (any, error) {
	switch name {
	case sectionHero:
		v := h.sections.Hero(ctx, lang)
		return heroView{Lang: lang, Title: v.Title, Content: v.Content, ImageURL: v.ImageURL}, nil
	case sectionAbout:
		return h.aboutView(ctx, lang), nil
	case sectionServices:
		return h.servicesView(ctx, lang), nil
	case sectionGallery:
		return h.galleryView(ctx, lang, query), nil
	case sectionContact:
		return h.contactView(ctx, lang), nil
	case sectionFooter:
		return h.footerView(ctx, lang), nil
	default:
		return nil, fmt.Errorf("unknown section %q", name)
	}
}

func (h *publicHandlers) aboutView(ctx context.Context, lang string) aboutView {
	v := h.sections.About(ctx, lang)
	d := h.sections.Defaults()
	view := aboutView{Lang: lang, Title: v.Title, Content: v.Content, ImageURL: v.ImageURL}
	for _, s := range d.About.Stats {
		view.Stats = append(view.Stats, statView{Value: s.Value, Icon: s.Icon, Label: s.Label.In(lang)})
	}
	for _, f := range d.About.Features {
		view.Features = append(view.Features, featureView{Icon: f.Icon, Title: f.Title.In(lang), Description: f.Description.In(lang)})
	}
	return view
}

func (h *publicHandlers) servicesView(ctx context.Context, lang string) servicesView {
	rows, _ := h.sections.Services(ctx)
	view := servicesView{Lang: lang, Cards: make([]serviceCard, 0, len(rows))}
	for _, s := range rows {
		view.Cards = append(view.Cards, serviceCard{
			Title:       s.Title(lang),
			Description: s.Description(lang),
			Icon:        s.Icon(),
			ImageURL:    s.ImageURL,
		})
	}
	return view
}

func (h *publicHandlers) galleryView(ctx context.Context, lang string, query url.Values) galleryView {
	viewer := gallery.NewViewer(h.sections.Gallery(ctx))
	all := query.Get("gallery") == "all"
	if all {
		viewer.RevealMore()
	}
	base := url.Values{}
	if all {
		base.Set("gallery", "all")
	}

	view := galleryView{
		Lang:        lang,
		HasMore:     viewer.HasMore(),
		ShowMore:    "/sections/gallery?gallery=all",
		Placeholder: viewer.IsPlaceholder(),
	}
	for i, img := range viewer.Visible() {
		view.Tiles = append(view.Tiles, galleryTile{
			Index: i,
			Thumb: img.Thumbnail(),
			Alt:   img.Alt(),
			Title: img.TitleAR,
			Open:  galleryLink(base, i),
		})
	}

	if photo, err := strconv.Atoi(query.Get("photo")); err == nil && viewer.Open(photo) {
		img, idx, _ := viewer.Selected()
		prev, next, _ := viewer.Neighbours()
		view.Lightbox = &lightboxView{
			Index:    idx,
			Total:    viewer.Len(),
			ImageURL: img.ImageURL,
			Alt:      img.Alt(),
			Title:    img.TitleAR,
			Prev:     galleryLink(base, prev),
			Next:     galleryLink(base, next),
			Close:    galleryLink(base, -1),
		}
	}
	return view
}

func galleryLink(base url.Values, photo int) string {
	q := url.Values{}
	for k, v := range base {
		q[k] = v
	}
	if photo >= 0 {
		q.Set("photo", strconv.Itoa(photo))
	}
	if len(q) == 0 {
		return "/sections/gallery"
	}
	return "/sections/gallery?" + q.Encode()
}

func (h *publicHandlers) contactView(ctx context.Context, lang string) contactView {
	v := h.sections.Contact(ctx, lang)
	d := h.sections.Defaults()
	view := contactView{
		Lang:      lang,
		Title:     v.Title,
		Content:   v.Content,
		ImageURL:  v.ImageURL,
		CSRFToken: custommw.CSRFTokenFromContext(ctx),
	}
	for _, info := range d.Contact.Info {
		item := contactInfoView{Kind: info.Kind, Title: info.Title.In(lang)}
		for _, detail := range info.Details {
			item.Details = append(item.Details, detail.In(lang))
		}
		if info.Kind == "phone" && len(item.Details) > 0 && view.Phone == "" {
			view.Phone = strings.ReplaceAll(item.Details[0], " ", "")
		}
		view.Info = append(view.Info, item)
	}
	return view
}

func (h *publicHandlers) footerView(ctx context.Context, lang string) footerView {
	d := h.sections.Defaults()
	v := h.sections.Footer(ctx, lang)
	view := footerView{
		Lang:    lang,
		Company: d.Footer.Company.In(lang),
		Blurb:   v.Content,
		Year:    h.now().Year(),
	}
	rows, _ := h.sections.Services(ctx)
	for i, s := range rows {
		if i == footerServiceLinks {
			break
		}
		view.Services = append(view.Services, s.Title(lang))
	}
	for _, s := range d.Footer.Social {
		view.Social = append(view.Social, socialView{Icon: s.Icon, Href: s.Href, Label: s.Label.In(lang)})
	}
	return view
}

func sectionSource(name string, query url.Values) string {
	if name != sectionGallery {
		return "/sections/" + name
	}
	q := url.Values{}
	if v := query.Get("gallery"); v != "" {
		q.Set("gallery", v)
	}
	if v := query.Get("photo"); v != "" {
		q.Set("photo", v)
	}
	if len(q) == 0 {
		return "/sections/gallery"
	}
	return "/sections/gallery?" + q.Encode()
}

func basePage(r *http.Request, lang string) pageData {
	data := pageData{
		Lang:      lang,
		Dir:       i18n.Dir(lang),
		CSRFToken: custommw.CSRFTokenFromContext(r.Context()),
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok && sess.Authenticated() {
		data.User = sess.User()
	}
	return data
}
