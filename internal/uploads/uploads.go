package uploads

import (
	"bytes"
	"image"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNoFiles  = errors.New("no files uploaded")
	ErrTooMany  = errors.New("too many files")
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not a supported image")
)

// Options ограничения и размещение загрузок
type Options struct {
	Dir          string
	PublicURL    string
	MaxFileSize  int64
	MaxFileCount int
	ThumbWidth   int
}

// Saved результат сохранения одной фотографии
type Saved struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	ThumbURL string `json:"thumbUrl"`
}

// Store хранит фотографии площадок в локальном каталоге
type Store struct {
	opts Options
}

func NewStore(opts Options) (*Store, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create uploads dir")
	}
	if opts.ThumbWidth <= 0 {
		opts.ThumbWidth = 320
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &Store{opts: opts}, nil
}

func (s *Store) Dir() string {
	return s.opts.Dir
}

type decoded struct {
	name string
	ext  string
	data []byte
	img  image.Image
}

// Save проверяет все файлы и только потом пишет их на диск:
// либо сохраняется вся пачка, либо ничего.
func (s *Store) Save(files []*multipart.FileHeader) ([]Saved, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if s.opts.MaxFileCount > 0 && len(files) > s.opts.MaxFileCount {
		return nil, errors.Wrapf(ErrTooMany, "at most %d files", s.opts.MaxFileCount)
	}

	batch := make([]decoded, 0, len(files))
	for _, fh := range files {
		d, err := s.decode(fh)
		if err != nil {
			return nil, errors.WithMessage(err, fh.Filename)
		}
		batch = append(batch, d)
	}

	out := make([]Saved, 0, len(batch))
	for _, d := range batch {
		base := uuid.NewString()
		name := base + d.ext
		thumbName := base + "_thumb.jpg"

		if err := os.WriteFile(filepath.Join(s.opts.Dir, name), d.data, 0o644); err != nil {
			return nil, errors.Wrap(err, "write upload")
		}
		thumb := d.img
		if thumb.Bounds().Dx() > s.opts.ThumbWidth {
			thumb = imaging.Resize(thumb, s.opts.ThumbWidth, 0, imaging.Lanczos)
		}
		if err := imaging.Save(thumb, filepath.Join(s.opts.Dir, thumbName)); err != nil {
			return nil, errors.Wrap(err, "write thumbnail")
		}

		out = append(out, Saved{
			Name:     d.name,
			URL:      s.opts.PublicURL + "/uploads/" + name,
			ThumbURL: s.opts.PublicURL + "/uploads/" + thumbName,
		})
	}
	return out, nil
}

func (s *Store) decode(fh *multipart.FileHeader) (decoded, error) {
	if s.opts.MaxFileSize > 0 && fh.Size > s.opts.MaxFileSize {
		return decoded{}, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return decoded{}, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	var r io.Reader = f
	if s.opts.MaxFileSize > 0 {
		r = io.LimitReader(f, s.opts.MaxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return decoded{}, errors.Wrap(err, "read upload")
	}
	if s.opts.MaxFileSize > 0 && int64(len(data)) > s.opts.MaxFileSize {
		return decoded{}, ErrTooLarge
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return decoded{}, ErrNotImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return decoded{}, ErrNotImage
	}

	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	return decoded{name: fh.Filename, ext: ext, data: data, img: img}, nil
}
