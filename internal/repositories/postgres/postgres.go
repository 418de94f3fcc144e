// Package postgres implements the repository interfaces with raw SQL over
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

const uniqueViolation = "23505"

// Store runs every repository against one *sql.DB.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Option customises the store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides ulid primary keys.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New wraps db.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the store through the repository interfaces.
func (s *Store) Registry() repositories.Registry {
	return repositories.Registry{
		SiteContent: sectionRepo{s},
		Services:    serviceRepo{s},
		Gallery:     galleryRepo{s},
		Messages:    messageRepo{s},
		Users:       userRepo{s},
		Ping:        s.db.PingContext,
		Close:       func(context.Context) error { return s.db.Close() },
	}
}

func (s *Store) timestamp() time.Time { return s.now().UTC() }

func (s *Store) count(ctx context.Context, op, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}

// execOne runs a single-row mutation and reports NotFound when no row matched.
func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return repositories.NotFound(op)
	}
	return nil
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.NotFound(op)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == uniqueViolation {
			return repositories.Conflict(op, err)
		}
		if pqErr.Code.Class() == "08" {
			return repositories.Unavailable(op, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return repositories.Unavailable(op, err)
	}
	return repositories.Wrap(op, err)
}

func nullable(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

type sectionRepo struct{ s *Store }

const sectionColumns = "id, section, title_ar, title_en, content_ar, content_en, image_url, updated_at"

func scanSection(row interface{ Scan(...any) error }) (domain.SiteContent, error) {
	var (
		c                                    domain.SiteContent
		section                              string
		titleAR, titleEN, bodyAR, bodyEN, im sql.NullString
	)
	if err := row.Scan(&c.ID, &section, &titleAR, &titleEN, &bodyAR, &bodyEN, &im, &c.UpdatedAt); err != nil {
		return domain.SiteContent{}, err
	}
	c.Section = domain.SectionKey(section)
	c.TitleAR, c.TitleEN = titleAR.String, titleEN.String
	c.ContentAR, c.ContentEN = bodyAR.String, bodyEN.String
	c.ImageURL = im.String
	return c, nil
}

func (r sectionRepo) List(ctx context.Context) ([]domain.SiteContent, error) {
	rows, err := r.s.db.QueryContext(ctx, "SELECT "+sectionColumns+" FROM site_content ORDER BY section")
	if err != nil {
		return nil, classify("site_content.list", err)
	}
	defer rows.Close()
	var out []domain.SiteContent
	for rows.Next() {
		c, err := scanSection(rows)
		if err != nil {
			return nil, classify("site_content.list", err)
		}
		out = append(out, c)
	}
	return out, classify("site_content.list", rows.Err())
}

func (r sectionRepo) FindBySection(ctx context.Context, section domain.SectionKey) (domain.SiteContent, error) {
	row := r.s.db.QueryRowContext(ctx, "SELECT "+sectionColumns+" FROM site_content WHERE section = $1", string(section))
	c, err := scanSection(row)
	if err != nil {
		return domain.SiteContent{}, classify("site_content.find", err)
	}
	return c, nil
}

func (r sectionRepo) Insert(ctx context.Context, c domain.SiteContent) (domain.SiteContent, error) {
	c.ID = r.s.newID()
	c.UpdatedAt = r.s.timestamp()
	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO site_content (id, section, title_ar, title_en, content_ar, content_en, image_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, string(c.Section), nullable(c.TitleAR), nullable(c.TitleEN), nullable(c.ContentAR), nullable(c.ContentEN), nullable(c.ImageURL), c.UpdatedAt)
	if err != nil {
		return domain.SiteContent{}, classify("site_content.insert", err)
	}
	return c, nil
}

func (r sectionRepo) Update(ctx context.Context, c domain.SiteContent) error {
	return r.s.execOne(ctx, "site_content.update",
		`UPDATE site_content SET title_ar = $1, title_en = $2, content_ar = $3, content_en = $4, image_url = $5, updated_at = $6
		 WHERE id = $7`,
		nullable(c.TitleAR), nullable(c.TitleEN), nullable(c.ContentAR), nullable(c.ContentEN), nullable(c.ImageURL), r.s.timestamp(), c.ID)
}

func (r sectionRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, "site_content.count", "site_content")
}

type serviceRepo struct{ s *Store }

const serviceColumns = "id, title_ar, title_en, description_ar, description_en, icon_name, image_url, sort_order, is_active, created_at, updated_at"

func (r serviceRepo) List(ctx context.Context, filter repositories.ListFilter) ([]domain.Service, error) {
	query := "SELECT " + serviceColumns + " FROM services"
	if filter.ActiveOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order ASC, created_at ASC"
	rows, err := r.s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("services.list", err)
	}
	defer rows.Close()
	var out []domain.Service
	for rows.Next() {
		var (
			svc                         domain.Service
			titleEN, descEN, icon, image sql.NullString
		)
		if err := rows.Scan(&svc.ID, &svc.TitleAR, &titleEN, &svc.DescriptionAR, &descEN, &icon, &image, &svc.SortOrder, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, classify("services.list", err)
		}
		svc.TitleEN, svc.DescriptionEN, svc.IconName, svc.ImageURL = titleEN.String, descEN.String, icon.String, image.String
		out = append(out, svc)
	}
	return out, classify("services.list", rows.Err())
}

func (r serviceRepo) Insert(ctx context.Context, svc domain.Service) (domain.Service, error) {
	svc.ID = r.s.newID()
	svc.CreatedAt = r.s.timestamp()
	svc.UpdatedAt = svc.CreatedAt
	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO services (`+serviceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		svc.ID, svc.TitleAR, nullable(svc.TitleEN), svc.DescriptionAR, nullable(svc.DescriptionEN), nullable(svc.IconName), nullable(svc.ImageURL),
		svc.SortOrder, svc.IsActive, svc.CreatedAt, svc.UpdatedAt)
	if err != nil {
		return domain.Service{}, classify("services.insert", err)
	}
	return svc, nil
}

func (r serviceRepo) Update(ctx context.Context, svc domain.Service) error {
	return r.s.execOne(ctx, "services.update",
		`UPDATE services SET title_ar = $1, title_en = $2, description_ar = $3, description_en = $4, icon_name = $5,
		 image_url = $6, sort_order = $7, is_active = $8, updated_at = $9 WHERE id = $10`,
		svc.TitleAR, nullable(svc.TitleEN), svc.DescriptionAR, nullable(svc.DescriptionEN), nullable(svc.IconName),
		nullable(svc.ImageURL), svc.SortOrder, svc.IsActive, r.s.timestamp(), svc.ID)
}

func (r serviceRepo) Delete(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "services.delete", "DELETE FROM services WHERE id = $1", id)
}

func (r serviceRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, "services.count", "services")
}

type galleryRepo struct{ s *Store }

const galleryColumns = "id, title_ar, image_url, thumbnail_url, alt_text_ar, sort_order, is_active, created_at"

func (r galleryRepo) List(ctx context.Context, filter repositories.ListFilter) ([]domain.GalleryImage, error) {
	query := "SELECT " + galleryColumns + " FROM gallery_images"
	if filter.ActiveOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order ASC, created_at ASC"
	rows, err := r.s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("gallery_images.list", err)
	}
	defer rows.Close()
	var out []domain.GalleryImage
	for rows.Next() {
		var (
			img              domain.GalleryImage
			title, thumb, alt sql.NullString
		)
		if err := rows.Scan(&img.ID, &title, &img.ImageURL, &thumb, &alt, &img.SortOrder, &img.IsActive, &img.CreatedAt); err != nil {
			return nil, classify("gallery_images.list", err)
		}
		img.TitleAR, img.ThumbnailURL, img.AltTextAR = title.String, thumb.String, alt.String
		out = append(out, img)
	}
	return out, classify("gallery_images.list", rows.Err())
}

func (r galleryRepo) Insert(ctx context.Context, img domain.GalleryImage) (domain.GalleryImage, error) {
	img.ID = r.s.newID()
	img.CreatedAt = r.s.timestamp()
	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO gallery_images (`+galleryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		img.ID, nullable(img.TitleAR), img.ImageURL, nullable(img.ThumbnailURL), nullable(img.AltTextAR), img.SortOrder, img.IsActive, img.CreatedAt)
	if err != nil {
		return domain.GalleryImage{}, classify("gallery_images.insert", err)
	}
	return img, nil
}

func (r galleryRepo) Update(ctx context.Context, img domain.GalleryImage) error {
	return r.s.execOne(ctx, "gallery_images.update",
		`UPDATE gallery_images SET title_ar = $1, image_url = $2, thumbnail_url = $3, alt_text_ar = $4, sort_order = $5, is_active = $6
		 WHERE id = $7`,
		nullable(img.TitleAR), img.ImageURL, nullable(img.ThumbnailURL), nullable(img.AltTextAR), img.SortOrder, img.IsActive, img.ID)
}

func (r galleryRepo) Delete(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "gallery_images.delete", "DELETE FROM gallery_images WHERE id = $1", id)
}

func (r galleryRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, "gallery_images.count", "gallery_images")
}

type messageRepo struct{ s *Store }

func (r messageRepo) List(ctx context.Context) ([]domain.ContactMessage, error) {
	rows, err := r.s.db.QueryContext(ctx,
		"SELECT id, name, phone, email, message, is_read, created_at FROM contact_messages ORDER BY created_at DESC")
	if err != nil {
		return nil, classify("contact_messages.list", err)
	}
	defer rows.Close()
	var out []domain.ContactMessage
	for rows.Next() {
		var (
			msg          domain.ContactMessage
			phone, email sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.Name, &phone, &email, &msg.Message, &msg.IsRead, &msg.CreatedAt); err != nil {
			return nil, classify("contact_messages.list", err)
		}
		msg.Phone, msg.Email = phone.String, email.String
		out = append(out, msg)
	}
	return out, classify("contact_messages.list", rows.Err())
}

func (r messageRepo) Insert(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error) {
	msg.ID = r.s.newID()
	msg.IsRead = false
	msg.CreatedAt = r.s.timestamp()
	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, phone, email, message, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.Name, nullable(msg.Phone), nullable(msg.Email), msg.Message, false, msg.CreatedAt)
	if err != nil {
		return domain.ContactMessage{}, classify("contact_messages.insert", err)
	}
	return msg, nil
}

func (r messageRepo) MarkRead(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "contact_messages.mark_read", "UPDATE contact_messages SET is_read = TRUE WHERE id = $1", id)
}

func (r messageRepo) Delete(ctx context.Context, id string) error {
	return r.s.execOne(ctx, "contact_messages.delete", "DELETE FROM contact_messages WHERE id = $1", id)
}

func (r messageRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, "contact_messages.count", "contact_messages")
}

type userRepo struct{ s *Store }

func (r userRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.s.db.QueryRowContext(ctx,
		"SELECT id, email, full_name, password_hash, created_at FROM users WHERE email = $1",
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return domain.User{}, classify("users.find", err)
	}
	return user, nil
}

func (r userRepo) Insert(ctx context.Context, user domain.User) (domain.User, error) {
	user.ID = r.s.newID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = r.s.timestamp()
	_, err := r.s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, full_name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)",
		user.ID, user.Email, user.FullName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return domain.User{}, classify("users.insert", err)
	}
	return user, nil
}
