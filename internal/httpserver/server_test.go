package httpserver_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/testutil"
)

const (
	ownerEmail    = "owner@example.com"
	ownerPassword = "secret-pass"
)

func signedInBrowser(t *testing.T, site *testutil.Site) *testutil.Browser {
	t.Helper()
	site.AddUser(t, ownerEmail, ownerPassword, "صاحب الموقع")
	b := site.NewBrowser(t)
	resp := b.SignIn(ownerEmail, ownerPassword)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
	return b
}

func TestHomeRendersSeededSectionsInArabic(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	resp := site.NewBrowser(t).Get("/", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := resp.Doc(t)
	html := doc.Find("html")
	assert.Equal(t, "ar", html.AttrOr("lang", ""))
	assert.Equal(t, "rtl", html.AttrOr("dir", ""))
	assert.Equal(t, "مرحباً بكم في شركتنا للتسويق", strings.TrimSpace(doc.Find("#hero h1").Text()))
	assert.Equal(t, 6, doc.Find("#services .service-card").Length())
	assert.Equal(t, 4, doc.Find("#about .stat").Length())
	assert.Equal(t, 0, doc.Find(".skeleton").Length())
	assert.True(t, doc.Find("#gallery .gallery-grid").HasClass("is-placeholder"))
	assert.Contains(t, doc.Find("#footer").Text(), "2025")
}

func TestHomeSwitchesToEnglish(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	b := site.NewBrowser(t)
	resp := b.Get("/?lang=en", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := resp.Doc(t)
	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "ltr", doc.Find("html").AttrOr("dir", ""))
	assert.Equal(t, "Welcome to our marketing agency", strings.TrimSpace(doc.Find("#hero h1").Text()))

	// The choice sticks to the session.
	resp = b.Get("/", false)
	assert.Equal(t, "en", resp.Doc(t).Find("html").AttrOr("lang", ""))
}

func TestHomeFallsBackToDefaultsWithoutStoredContent(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	doc := site.NewBrowser(t).Get("/", false).Doc(t)
	assert.Equal(t, "مرحباً بكم في شركتنا للتسويق", strings.TrimSpace(doc.Find("#hero h1").Text()))
	assert.Equal(t, 6, doc.Find("#services .service-card").Length())
}

func TestHomeDefersSectionsPastBudget(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed(), testutil.WithSectionBudget(-1))
	b := site.NewBrowser(t)
	doc := b.Get("/?photo=1", false).Doc(t)

	require.Equal(t, 6, doc.Find("section.skeleton").Length())
	assert.Equal(t, "/sections/hero", doc.Find("#hero").AttrOr("hx-get", ""))
	assert.Equal(t, "/sections/gallery?photo=1", doc.Find("#gallery").AttrOr("hx-get", ""))
	assert.Equal(t, "load", doc.Find("#hero").AttrOr("hx-trigger", ""))

	fragment := b.Get("/sections/about", true)
	require.Equal(t, http.StatusOK, fragment.StatusCode)
	assert.Equal(t, "من نحن", strings.TrimSpace(fragment.Doc(t).Find("#about h2").Text()))

	assert.Equal(t, http.StatusNotFound, b.Get("/sections/pricing", true).StatusCode)
}

func TestGalleryLightboxWrapsAround(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	ctx := context.Background()
	for i, title := range []string{"أول", "ثاني", "ثالث"} {
		_, err := site.Registry.Gallery.Insert(ctx, domain.GalleryImage{
			TitleAR:   title,
			ImageURL:  "/media/img-" + title + ".png",
			SortOrder: i + 1,
			IsActive:  true,
		})
		require.NoError(t, err)
	}

	b := site.NewBrowser(t)
	doc := b.Get("/sections/gallery?photo=2", true).Doc(t)
	box := doc.Find(".lightbox")
	require.Equal(t, 1, box.Length())
	assert.Equal(t, "/sections/gallery?photo=1", box.Find(".lightbox-prev").AttrOr("hx-get", ""))
	assert.Equal(t, "/sections/gallery?photo=0", box.Find(".lightbox-next").AttrOr("hx-get", ""))
	assert.Equal(t, "/sections/gallery", box.Find(".lightbox-close").AttrOr("hx-get", ""))
	assert.Contains(t, box.Find("figcaption").Text(), "ثالث")
	assert.Equal(t, 3, doc.Find(".gallery-tile").Length())
	assert.False(t, doc.Find(".gallery-grid").HasClass("is-placeholder"))

	doc = b.Get("/sections/gallery?photo=9", true).Doc(t)
	assert.Equal(t, 0, doc.Find(".lightbox").Length())
}

func TestContactSubmissionOverHTMX(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := site.NewBrowser(t)

	resp := b.PostForm("/contact", url.Values{"name": {"أحمد"}, "message": {""}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{services.ContactInvalidTitle}, resp.Toasts(t))
	assert.Equal(t, "أحمد", resp.Doc(t).Find(`#contact input[name="name"]`).AttrOr("value", ""))
	count, err := site.Registry.Messages.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	resp = b.PostForm("/contact", url.Values{
		"name":    {"أحمد"},
		"email":   {"ahmad@example.com"},
		"message": {"أريد عرض سعر"},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{services.ContactSentTitle}, resp.Toasts(t))
	assert.Empty(t, resp.Doc(t).Find(`#contact input[name="name"]`).AttrOr("value", ""))

	msgs, err := site.Registry.Messages.List(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "أريد عرض سعر", msgs[0].Message)
	assert.False(t, msgs[0].IsRead)
}

func TestContactSubmissionWithoutJavaScriptUsesFlash(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := site.NewBrowser(t)
	resp := b.PostForm("/contact", url.Values{"name": {"سارة"}, "message": {"مرحبا"}}, false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/#contact", resp.Header.Get("Location"))

	home := b.Get("/", false)
	assert.Equal(t, []string{services.ContactSentTitle}, home.Toasts(t))
	// Flashes are shown once.
	assert.Empty(t, b.Get("/", false).Toasts(t))
}

func TestContactRejectsMissingCSRFToken(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := site.NewBrowser(t)
	resp := b.PostForm("/contact", url.Values{"csrf_token": {"forged"}, "name": {"x"}, "message": {"y"}}, true)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDashboardRequiresSignIn(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := site.NewBrowser(t)

	resp := b.Get("/dashboard", false)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth", resp.Header.Get("Location"))

	resp = b.Get("/dashboard?tab=services", true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "/auth", resp.Header.Get("HX-Redirect"))
}

func TestSignInWithWrongPasswordShowsArabicError(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	site.AddUser(t, ownerEmail, ownerPassword, "")
	b := site.NewBrowser(t)

	resp := b.SignIn(ownerEmail, "wrong-pass")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	doc := resp.Doc(t)
	assert.Equal(t, services.AuthSignInFailedTitle, strings.TrimSpace(doc.Find(".toast-title").Text()))
	assert.Equal(t, services.AuthBadCredentials, strings.TrimSpace(doc.Find(".toast-body").Text()))
	assert.Equal(t, ownerEmail, doc.Find(`input[name="email"]`).AttrOr("value", ""))

	resp = b.PostForm("/auth/signin", url.Values{"email": {ownerEmail}, "password": {"wrong-pass"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Doc(t).Find("#auth-form").Length())
}

func TestSignUpKeepsVisitorSignedOut(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := site.NewBrowser(t)

	resp := b.PostForm("/auth/signup", url.Values{
		"email":            {"new@example.com"},
		"password":         {"123456"},
		"confirm_password": {"654321"},
		"full_name":        {"مستخدم"},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), services.AuthPasswordMismatch)

	resp = b.PostForm("/auth/signup", url.Values{
		"email":            {"new@example.com"},
		"password":         {"123456"},
		"confirm_password": {"123456"},
		"full_name":        {"مستخدم"},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{services.AuthSignedUpTitle}, resp.Toasts(t))

	assert.Equal(t, http.StatusFound, b.Get("/dashboard", false).StatusCode)
	user, err := site.Registry.Users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "مستخدم", user.FullName)
}

func TestDashboardAfterSignIn(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	b := signedInBrowser(t, site)

	resp := b.Get("/dashboard", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := resp.Doc(t)
	assert.Equal(t, "لوحة التحكم", strings.TrimSpace(doc.Find(".dashboard-header h1").Text()))
	assert.Contains(t, doc.Find(".dashboard-header").Text(), "صاحب الموقع")
	assert.Equal(t, 4, doc.Find(".stat-card").Length())
	assert.Equal(t, "6", strings.TrimSpace(doc.Find(`[data-stat="services"] .stat-value`).Text()))
	assert.Equal(t, []string{services.AuthSignedInTitle}, resp.Toasts(t))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, 1, site.Sweeper.Len())

	// Signed-in visitors skip the sign-in page.
	resp = b.Get("/auth", false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestDashboardContentEditAndSave(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	b := signedInBrowser(t, site)

	doc := b.Get("/dashboard?tab=content", false).Doc(t)
	cards := doc.Find(".editor-card")
	require.Equal(t, 4, cards.Length())
	assert.Contains(t, cards.First().Find("h3").Text(), "القسم الرئيسي (Hero)")

	hero, err := site.Registry.SiteContent.FindBySection(context.Background(), domain.SectionHero)
	require.NoError(t, err)

	resp := b.PostForm("/dashboard/content/"+hero.ID+"/field", url.Values{"title_ar": {"عنوان جديد"}}, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stored, err := site.Registry.SiteContent.FindBySection(context.Background(), domain.SectionHero)
	require.NoError(t, err)
	assert.Equal(t, hero.TitleAR, stored.TitleAR, "field edits stay local until saved")

	resp = b.PostForm("/dashboard/content/"+hero.ID+"/save", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"تم الحفظ بنجاح"}, resp.Toasts(t))

	stored, err = site.Registry.SiteContent.FindBySection(context.Background(), domain.SectionHero)
	require.NoError(t, err)
	assert.Equal(t, "عنوان جديد", stored.TitleAR)

	home := b.Get("/", false).Doc(t)
	assert.Equal(t, "عنوان جديد", strings.TrimSpace(home.Find("#hero h1").Text()))

	resp = b.PostForm("/dashboard/content/"+hero.ID+"/field", url.Values{"colour": {"red"}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = b.PostForm("/dashboard/content/missing/field", url.Values{"title_ar": {"x"}}, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardServiceDraftLifecycle(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	b := signedInBrowser(t, site)

	resp := b.PostForm("/dashboard/services/new", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := resp.Doc(t)
	require.Equal(t, 1, doc.Find("#service-new").Length())
	assert.Equal(t, "7", doc.Find(`#service-new input[name="sort_order"]`).AttrOr("value", ""))

	// Missing Arabic description fails validation and nothing is stored.
	resp = b.PostForm("/dashboard/services/new/save", url.Values{"title_ar": {"خدمة جديدة"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"خطأ في الحفظ"}, resp.Toasts(t))
	count, err := site.Registry.Services.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	resp = b.PostForm("/dashboard/services/new/save", url.Values{
		"title_ar":       {"خدمة جديدة"},
		"description_ar": {"وصف الخدمة"},
		"icon_name":      {"Globe"},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"تم الحفظ بنجاح"}, resp.Toasts(t))
	assert.Equal(t, 0, resp.Doc(t).Find("#service-new").Length())

	rows, err := site.Registry.Services.List(context.Background(), repositories.ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 7)
	created := rows[6]
	assert.Equal(t, "خدمة جديدة", created.TitleAR)
	assert.Equal(t, "Globe", created.IconName)
	assert.True(t, created.IsActive)

	resp = b.PostForm("/dashboard/services/"+created.ID+"/delete", url.Values{}, true)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = b.PostForm("/dashboard/services/"+created.ID+"/delete", url.Values{"confirmed": {"true"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"تم الحذف بنجاح"}, resp.Toasts(t))
	count, err = site.Registry.Services.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestDashboardActionsWithoutHTMXRedirectToTab(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	b := signedInBrowser(t, site)
	b.Get("/dashboard", false)

	resp := b.PostForm("/dashboard/services/new", nil, false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard?tab=services", resp.Header.Get("Location"))
}

func TestDashboardMessages(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	msg, err := site.Registry.Messages.Insert(context.Background(), domain.ContactMessage{Name: "ليلى", Message: "استفسار"})
	require.NoError(t, err)
	b := signedInBrowser(t, site)

	doc := b.Get("/dashboard?tab=messages", false).Doc(t)
	require.Equal(t, 1, doc.Find(".message-card.is-unread").Length())
	assert.Contains(t, doc.Find(".message-card").Text(), "تم الإرسال في ١ مارس ٢٠٢٥")
	assert.Equal(t, "1", strings.TrimSpace(doc.Find(".tab .badge").Text()))

	resp := b.PostForm("/dashboard/messages/"+msg.ID+"/read", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"تم تحديد الرسالة كمقروءة"}, resp.Toasts(t))
	assert.Equal(t, 0, resp.Doc(t).Find(".message-card.is-unread").Length())

	resp = b.PostForm("/dashboard/messages/"+msg.ID+"/delete", url.Values{"confirmed": {"true"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Doc(t).Find(".empty-state").Length())
}

func TestDashboardGalleryUpload(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := signedInBrowser(t, site)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	addFile(t, mw, "images", "office.png", "image/png", png)
	addFile(t, mw, "images", "notes.txt", "text/plain", []byte("hello"))
	require.NoError(t, mw.Close())

	resp := b.Post("/dashboard/gallery/upload", mw.FormDataContentType(), &body, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	titles := resp.Toasts(t)
	assert.Contains(t, titles, services.UploadWrongTypeTitle)
	assert.Contains(t, titles, services.GalleryUploadTitle)
	assert.Equal(t, 1, site.Media.Len())

	images, err := site.Registry.Gallery.List(context.Background(), repositories.ListFilter{})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "office", images[0].TitleAR)
	assert.True(t, strings.HasPrefix(images[0].ImageURL, "/media/gallery-"))

	media, err := b.Client.Get(site.Server.URL + images[0].ImageURL)
	require.NoError(t, err)
	media.Body.Close()
	assert.Equal(t, http.StatusOK, media.StatusCode)
	assert.Equal(t, "image/png", media.Header.Get("Content-Type"))

	resp = b.PostForm("/dashboard/gallery/"+images[0].ID+"/delete", url.Values{"confirmed": {"true"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, site.Media.Len())
}

func addFile(t *testing.T, mw *multipart.Writer, field, name, contentType string, data []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
}

func TestSignOutEndsDashboardSession(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := signedInBrowser(t, site)
	b.Get("/dashboard", false)
	require.Equal(t, 1, site.Managers.Len())

	ch, cancel := site.Broker.Subscribe("")
	defer cancel()

	resp := b.PostForm("/auth/signout", nil, false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	select {
	case ev := <-ch:
		assert.Equal(t, events.TypeSessionEnded, ev.Type)
		assert.Equal(t, "signout", ev.Reason)
	case <-time.After(time.Second):
		t.Fatal("no session event published")
	}
	assert.Zero(t, site.Managers.Len())
	assert.Zero(t, site.Sweeper.Len())

	home := b.Get("/", false)
	assert.Equal(t, []string{services.AuthSignedOutTitle}, home.Toasts(t))
	assert.Equal(t, http.StatusFound, b.Get("/dashboard", false).StatusCode)
}

func TestExpiredSessionIsAnnounced(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := signedInBrowser(t, site)

	ch, cancel := site.Broker.Subscribe("")
	defer cancel()

	site.Clock.Advance(3 * time.Hour)
	resp := b.Get("/dashboard", false)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	select {
	case ev := <-ch:
		assert.Equal(t, events.TypeSessionEnded, ev.Type)
		assert.Equal(t, "expired", ev.Reason)
	case <-time.After(time.Second):
		t.Fatal("no expiry event published")
	}
}

func TestEventStreamRedirectsWhenSessionEnds(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := signedInBrowser(t, site)
	user, err := site.Registry.Users.FindByEmail(context.Background(), ownerEmail)
	require.NoError(t, err)

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.Server.URL+"/dashboard/events", nil)
	require.NoError(t, err)
	resp, err := b.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	require.NoError(t, site.Broker.Publish(ctx, events.Event{Type: events.TypeSessionEnded, UserID: user.ID, SessionID: "another-session"}))
	require.NoError(t, site.Broker.Publish(ctx, events.Event{Type: events.TypeSessionEnded, UserID: user.ID, Reason: "expired"}))

	var eventName, data string
	for eventName == "" || data == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, "redirect", eventName)
	var payload struct {
		Location string `json:"location"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Equal(t, "/auth", payload.Location)
	assert.Equal(t, "expired", payload.Reason)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	resp, err := http.Get(site.Server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(site.Server.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report domain.HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, domain.HealthStatusOK, report.Status)
	assert.Contains(t, report.Checks, "backend")
	assert.Contains(t, report.Checks, "storage")
}

func TestDashboardTabSwitchReturnsPanelOnly(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t, testutil.WithSeed())
	b := signedInBrowser(t, site)
	b.Get("/dashboard", false)

	req, err := http.NewRequest(http.MethodGet, site.Server.URL+"/dashboard?tab=services", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "dashboard-panel")
	resp, err := b.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := testutil.Response{Response: resp, Body: readAll(t, resp)}.Doc(t)
	assert.Equal(t, 0, doc.Find(".dashboard-header").Length())
	assert.Equal(t, "services", doc.Find("#dashboard-panel").AttrOr("data-tab", ""))
	assert.Equal(t, 6, doc.Find(".editor-card").Length())
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDashboardRefreshShowsMessagesReceivedLater(t *testing.T) {
	t.Parallel()

	site := testutil.NewServer(t)
	b := signedInBrowser(t, site)

	doc := b.Get("/dashboard?tab=messages", false).Doc(t)
	require.Equal(t, 0, doc.Find(".message-card").Length())

	_, err := site.Registry.Messages.Insert(context.Background(), domain.ContactMessage{Name: "Ali", Message: "Hello"})
	require.NoError(t, err)

	doc = b.Get("/dashboard?tab=messages", false).Doc(t)
	assert.Equal(t, 1, doc.Find(".message-card.is-unread").Length())

	req, err := http.NewRequest(http.MethodGet, site.Server.URL+"/dashboard?tab=messages", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "dashboard-panel")
	resp, err := b.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	panel := testutil.Response{Response: resp, Body: readAll(t, resp)}.Doc(t)
	assert.Equal(t, 1, panel.Find(".message-card").Length())
}
