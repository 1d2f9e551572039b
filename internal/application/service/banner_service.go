package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/repository"
	domainservice "github.com/setuphub/setuphub/internal/domain/service"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	// MaxBannerBytes caps uploaded banner size
	MaxBannerBytes = 256 << 10

	svgContentType = "image/svg+xml"
	bannerWidth    = 1200
	bannerHeight   = 300
)

// elements that can run script or pull remote content inside an SVG
var forbiddenSVGElements = map[string]bool{
	"script":        true,
	"foreignobject": true,
	"iframe":        true,
	"embed":         true,
	"object":        true,
}

// BannerService stores uploaded profile banners and generates default ones
type BannerService struct {
	storage  domainservice.BlobStorage
	userRepo repository.UserRepository
	log      *logger.Logger
}

// NewBannerService creates a new BannerService instance
func NewBannerService(
	storage domainservice.BlobStorage,
	userRepo repository.UserRepository,
	log *logger.Logger,
) *BannerService {
	return &BannerService{
		storage:  storage,
		userRepo: userRepo,
		log:      log.WithComponent("banner-service"),
	}
}

// Upload validates an SVG and makes it the user's banner
func (s *BannerService) Upload(ctx context.Context, userID uuid.UUID, data []byte) error {
	if len(data) == 0 {
		return apperrors.ValidationError("banner", "banner is empty")
	}
	if len(data) > MaxBannerBytes {
		return apperrors.ValidationError("banner", fmt.Sprintf("banner must be at most %d KiB", MaxBannerBytes>>10))
	}
	if err := ValidateSVG(data); err != nil {
		return apperrors.ValidationError("banner", err.Error())
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	key := bannerKey(userID)
	if err := s.storage.Put(ctx, key, data, svgContentType); err != nil {
		s.log.Error("Failed to store banner", logger.UserID(userID.String()), logger.Error(err))
		return apperrors.StorageError("store banner", err)
	}

	if user.BannerKey != key {
		user.BannerKey = key
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
	}

	s.log.Info("Banner uploaded",
		logger.UserID(userID.String()),
		logger.Int("bytes", len(data)),
	)
	return nil
}

// Remove deletes an uploaded banner so the generated one is served again
func (s *BannerService) Remove(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.BannerKey == "" {
		return nil
	}

	if err := s.storage.Delete(ctx, user.BannerKey); err != nil {
		return apperrors.StorageError("delete banner", err)
	}

	user.BannerKey = ""
	return s.userRepo.Update(ctx, user)
}

// Banner returns the SVG for a username: the upload if there is one,
// otherwise the generated banner
func (s *BannerService) Banner(ctx context.Context, username string) ([]byte, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}

	if user.BannerKey != "" {
		data, _, err := s.storage.Get(ctx, user.BannerKey)
		switch {
		case err == nil:
			return data, nil
		case errors.Is(err, domainservice.ErrObjectNotFound):
			s.log.Warn("Banner object missing, serving generated banner",
				logger.UserID(user.ID.String()),
				logger.String("key", user.BannerKey),
			)
		default:
			return nil, apperrors.StorageError("read banner", err)
		}
	}

	return GenerateBanner(user.Username), nil
}

// ValidateSVG checks that data is well-formed XML rooted at <svg> and free
// of scriptable content
func ValidateSVG(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("banner is not valid XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			if depth == 0 {
				if sawRoot {
					return fmt.Errorf("banner must have a single root element")
				}
				if name != "svg" {
					return fmt.Errorf("banner root element must be <svg>, got <%s>", t.Name.Local)
				}
				sawRoot = true
			}
			if forbiddenSVGElements[name] {
				return fmt.Errorf("banner must not contain <%s>", t.Name.Local)
			}
			for _, attr := range t.Attr {
				if err := checkSVGAttr(attr); err != nil {
					return err
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.Directive:
			// DOCTYPE can declare entities
			return fmt.Errorf("banner must not contain XML directives")
		}
	}

	if !sawRoot {
		return fmt.Errorf("banner root element must be <svg>")
	}
	return nil
}

func checkSVGAttr(attr xml.Attr) error {
	name := strings.ToLower(attr.Name.Local)
	if strings.HasPrefix(name, "on") {
		return fmt.Errorf("banner must not contain event handler attributes")
	}
	if name == "href" {
		value := strings.ToLower(strings.TrimSpace(attr.Value))
		if !strings.HasPrefix(value, "#") {
			return fmt.Errorf("banner must not reference external resources")
		}
	}
	return nil
}

// GenerateBanner renders a deterministic banner from the username hash.
// The hash picks two hues and one of three patterns.
func GenerateBanner(username string) []byte {
	sum := sha256.Sum256([]byte(strings.ToLower(username)))

	hueA := (int(sum[0])<<8 | int(sum[1])) % 360
	hueB := (hueA + 40 + int(sum[2])%140) % 360
	pattern := int(sum[3]) % 3

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, bannerWidth, bannerHeight, bannerWidth, bannerHeight)
	b.WriteString(`<defs><linearGradient id="bg" x1="0" y1="0" x2="1" y2="1">`)
	fmt.Fprintf(&b, `<stop offset="0" stop-color="hsl(%d,70%%,45%%)"/>`, hueA)
	fmt.Fprintf(&b, `<stop offset="1" stop-color="hsl(%d,70%%,35%%)"/>`, hueB)
	b.WriteString(`</linearGradient></defs>`)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="url(#bg)"/>`, bannerWidth, bannerHeight)

	// remaining hash bytes place the shapes
	shapes := sum[4:]
	switch pattern {
	case 0:
		for i := 0; i+1 < len(shapes); i += 2 {
			x := int(shapes[i]) * bannerWidth / 256
			r := 10 + int(shapes[i+1])%60
			y := (i * 37) % bannerHeight
			fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="%d" fill="hsl(%d,80%%,70%%)" fill-opacity="0.25"/>`, x, y, r, hueB)
		}
	case 1:
		for i, v := range shapes {
			x := i * bannerWidth / len(shapes)
			w := 8 + int(v)%40
			fmt.Fprintf(&b, `<rect x="%d" y="0" width="%d" height="%d" fill="hsl(%d,80%%,75%%)" fill-opacity="0.15" transform="skewX(-20)"/>`, x, w, bannerHeight, hueA)
		}
	default:
		const cell = 50
		for i, v := range shapes {
			if v%2 == 0 {
				continue
			}
			x := (i * cell * 3) % bannerWidth
			y := (int(v) % (bannerHeight / cell)) * cell
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="6" fill="hsl(%d,70%%,80%%)" fill-opacity="0.2"/>`, x, y, cell-6, cell-6, hueB)
		}
	}

	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func bannerKey(userID uuid.UUID) string {
	return "banners/" + userID.String() + ".svg"
}
