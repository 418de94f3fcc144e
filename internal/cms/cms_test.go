package cms

import (
	"strings"
	"testing"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
)

func TestEmbeddedDefaults(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := d.Hero.Title.In("ar"); got != "مرحباً بكم في شركتنا للتسويق" {
		t.Fatalf("unexpected hero title %q", got)
	}
	if got := d.About.Content.In("ar"); got != "شركة رائدة في مجال التسويق الرقمي مع خبرة تمتد لأكثر من 10 سنوات في السوق" {
		t.Fatalf("unexpected about body %q", got)
	}
	if len(d.About.Stats) != 4 || d.About.Stats[0].Value != "500+" {
		t.Fatalf("unexpected about stats %+v", d.About.Stats)
	}
	if len(d.About.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(d.About.Features))
	}
	if len(d.Contact.Info) != 4 || d.Contact.Info[1].Details[0].AR != "info@marketingco.com" {
		t.Fatalf("unexpected contact info %+v", d.Contact.Info)
	}
	if len(d.Footer.Social) != 4 {
		t.Fatalf("expected 4 social links, got %d", len(d.Footer.Social))
	}
}

func TestDefaultServicesResolveKnownIcons(t *testing.T) {
	services := MustLoad().Services()
	if len(services) != 6 {
		t.Fatalf("expected 6 default services, got %d", len(services))
	}
	for i, svc := range services {
		if err := svc.Validate(); err != nil {
			t.Fatalf("service %d invalid: %v", i, err)
		}
		if svc.SortOrder != i+1 || !svc.IsActive {
			t.Fatalf("unexpected ordering for %+v", svc)
		}
		if string(domain.ParseIcon(svc.IconName)) != svc.IconName {
			t.Fatalf("service %q uses unknown icon %q", svc.TitleAR, svc.IconName)
		}
	}
}

func TestTextFallsBackToArabic(t *testing.T) {
	text := Text{AR: "مرحبا"}
	if text.In("en") != "مرحبا" {
		t.Fatalf("expected arabic fallback")
	}
	if (Text{AR: "مرحبا", EN: "Hello"}).In("en") != "Hello" {
		t.Fatalf("expected english translation")
	}
}

func TestSectionForFooterUsesBlurb(t *testing.T) {
	d := MustLoad()
	if d.SectionFor(domain.SectionFooter).Content.AR != d.Footer.Blurb.AR {
		t.Fatalf("footer default should be the blurb")
	}
	if d.SectionFor("unknown").Title.AR != "" {
		t.Fatalf("unknown sections have no defaults")
	}
}

func TestParseRejectsMissingArabicCopy(t *testing.T) {
	if _, err := Parse([]byte("hero:\n  title:\n    en: Hi\n")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestMarkdownIsSanitised(t *testing.T) {
	r := NewRenderer()
	out := string(r.Markdown("**مرحبا**\n\n<script>alert(1)</script>"))
	if !strings.Contains(out, "<strong>مرحبا</strong>") {
		t.Fatalf("expected bold markup, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script survived sanitising: %q", out)
	}
	if r.Markdown("   ") != "" {
		t.Fatalf("expected empty output for blank body")
	}
	if got := r.PlainText("<b>Ali</b> & Co"); got != "Ali & Co" {
		t.Fatalf("unexpected plain text %q", got)
	}
}
