package gallery

import "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"

const unsplashFormat = "?w=800&h=600&fit=crop"

func unsplash(photo string) string {
	return "https://images.unsplash.com/" + photo + unsplashFormat
}

// Placeholders returns the sample portfolio shown while the gallery has no
// images of its own. A fresh slice is returned on every call.
func Placeholders() []domain.GalleryImage {
	return []domain.GalleryImage{
		{ID: "1", TitleAR: "مشروع التسويق الرقمي", ImageURL: unsplash("photo-1460925895917-afdab827c52f"), AltTextAR: "مشروع تسويق رقمي", SortOrder: 1, IsActive: true},
		{ID: "2", TitleAR: "تصميم الهوية البصرية", ImageURL: unsplash("photo-1561070791-2526d30994b5"), AltTextAR: "تصميم هوية بصرية", SortOrder: 2, IsActive: true},
		{ID: "3", TitleAR: "حملة إعلانية", ImageURL: unsplash("photo-1533750349088-cd871a92f312"), AltTextAR: "حملة إعلانية ناجحة", SortOrder: 3, IsActive: true},
		{ID: "4", TitleAR: "إنتاج المحتوى", ImageURL: unsplash("photo-1611224923853-80b023f02d71"), AltTextAR: "إنتاج محتوى إبداعي", SortOrder: 4, IsActive: true},
		{ID: "5", TitleAR: "التصوير الاحترافي", ImageURL: unsplash("photo-1542038784456-1ea8e935640e"), AltTextAR: "تصوير احترافي", SortOrder: 5, IsActive: true},
		{ID: "6", TitleAR: "وسائل التواصل الاجتماعي", ImageURL: unsplash("photo-1611162617474-5b21e879e113"), AltTextAR: "إدارة وسائل التواصل", SortOrder: 6, IsActive: true},
	}
}
